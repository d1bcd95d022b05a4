// ABOUTME: Shared helpers for commands that read vCard files
// ABOUTME: Parses input, loads contacts into the in-memory store, and writes output files
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harperreed/vcfmerge/db"
	"github.com/harperreed/vcfmerge/models"
	"github.com/harperreed/vcfmerge/vcard"
)

// workspace is an in-memory collection loaded from one input file.
type workspace struct {
	db    *sql.DB
	store *db.ContactStore
	codec *vcard.Codec
}

func (a *app) codec(countryCode string) *vcard.Codec {
	if countryCode == "" {
		countryCode = a.cfg.DefaultCountryCode
	}
	return vcard.NewCodec(
		vcard.WithLogger(a.logger),
		vcard.WithCountryCode(countryCode),
	)
}

// readContacts parses every record in path.
func (a *app) readContacts(path, countryCode string) ([]models.Contact, *vcard.Codec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	codec := a.codec(countryCode)
	contacts := codec.Parse(string(data))
	a.logger.Debug("parsed contacts", "file", path, "count", len(contacts))
	return contacts, codec, nil
}

// openWorkspace parses path and loads the result into a fresh store.
func (a *app) openWorkspace(ctx context.Context, path, countryCode string) (*workspace, error) {
	contacts, codec, err := a.readContacts(path, countryCode)
	if err != nil {
		return nil, err
	}

	database, store, err := db.Load(ctx, contacts)
	if err != nil {
		return nil, err
	}

	return &workspace{db: database, store: store, codec: codec}, nil
}

func (w *workspace) Close() error {
	return w.db.Close()
}

// writeOutput writes text to path, or to the command output when path is "".
func writeOutput(cmd *cobra.Command, path, text string) error {
	if path == "" {
		cmd.Print(text)
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// baseName strips the directory and extension from path.
func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
