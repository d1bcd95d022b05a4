// ABOUTME: The merge command
// ABOUTME: Detects duplicates in a vCard file, reviews each group, and exports the merged result
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/harperreed/vcfmerge/dedupe"
	"github.com/harperreed/vcfmerge/merge"
	"github.com/harperreed/vcfmerge/models"
	"github.com/harperreed/vcfmerge/tui"
	"github.com/harperreed/vcfmerge/vcard"
)

// isTerminal reports whether stdin can drive the interactive review.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

type mergeOptions struct {
	by          string
	out         string
	version     string
	countryCode string
	yes         bool
}

func newMergeCmd(a *app) *cobra.Command {
	opts := &mergeOptions{}

	cmd := &cobra.Command{
		Use:   "merge <file>",
		Short: "Review and merge duplicate contacts",
		Long: `Find groups of duplicate contacts in a vCard file and merge them one group at a time.

In a terminal each group opens a review screen where you can pick the master
record, remove or add phones and emails, then commit or skip the merge.
With --yes, or when stdin is not a terminal, every group is merged as proposed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMerge(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.by, "by", "", "Match contacts by name, phone or email (default: match_by from config)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output file (default: <output_dir>/<name>-merged-<id>.vcf)")
	cmd.Flags().StringVar(&opts.version, "version", "", "vCard version to write (default: export_version from config)")
	cmd.Flags().StringVar(&opts.countryCode, "country", "", "Country code for numbers without one, e.g. +34")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Merge every group without asking")
	return cmd
}

func (a *app) runMerge(cmd *cobra.Command, path string, opts *mergeOptions) error {
	ctx := cmd.Context()

	mode := a.cfg.Mode()
	if opts.by != "" {
		m, err := dedupe.ParseMode(opts.by)
		if err != nil {
			return err
		}
		mode = m
	}

	exportVersion := a.cfg.ExportVersion
	if opts.version != "" {
		exportVersion = opts.version
	}
	if !models.IsSupportedVersion(exportVersion) {
		return fmt.Errorf("%w: %q", vcard.ErrUnsupportedVersion, exportVersion)
	}

	countryCode := opts.countryCode
	if countryCode == "" {
		countryCode = a.cfg.DefaultCountryCode
	}

	ws, err := a.openWorkspace(ctx, path, countryCode)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	ws.store.OnChange(func() {
		a.logger.Debug("contact collection changed")
	})

	contacts, err := ws.store.List(ctx)
	if err != nil {
		return err
	}

	groups, err := dedupe.NewMatcher(countryCode).Find(mode, contacts)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		cmd.Printf("No duplicates found among %d contacts (matched by %s).\n", len(contacts), mode)
		return nil
	}

	var presenter merge.Presenter = merge.AutoPresenter{}
	if !opts.yes && isTerminal() {
		presenter = tui.NewPresenter(ws.store, cmd.InOrStdin(), cmd.OutOrStdout())
	}

	engine := merge.NewEngine(ws.store,
		merge.WithLogger(a.logger),
		merge.WithCountryCode(countryCode),
	)
	queue := merge.NewQueue(engine, ws.store, presenter, merge.WithLogger(a.logger))

	summary, err := queue.Run(ctx, groups)
	if err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}

	cmd.Printf("%d groups: %d merged, %d skipped, %d already resolved\n",
		summary.Groups, summary.Merged, summary.Skipped, summary.Discarded)
	if summary.Merged == 0 {
		if summary.Cancelled {
			cmd.Println("Cancelled; nothing written.")
		} else {
			cmd.Println("No merges applied; nothing written.")
		}
		return nil
	}

	merged, err := ws.store.List(ctx)
	if err != nil {
		return err
	}

	text, err := ws.codec.Export(merged, exportVersion)
	if errors.Is(err, vcard.ErrEmptyExport) {
		a.logger.Warn("nothing to export", "file", path)
		return nil
	}
	if err != nil {
		return err
	}

	out := opts.out
	if out == "" {
		out = filepath.Join(a.cfg.OutputDir, fmt.Sprintf("%s-merged-%s.vcf", baseName(path), ulid.Make()))
	}
	if err := writeOutput(cmd, out, text); err != nil {
		return err
	}

	cmd.Printf("Wrote %d contacts (vCard %s) to %s\n", len(merged), exportVersion, out)
	return nil
}
