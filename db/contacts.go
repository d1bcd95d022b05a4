// ABOUTME: Contact collection operations
// ABOUTME: Ordered add, lookup, removal and merge replacement with change notification
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/harperreed/vcfmerge/models"
)

var ErrInvalidContact = errors.New("invalid contact")

// ContactStore owns the working contact collection. It is not safe for
// concurrent writers; one caller drives it at a time.
type ContactStore struct {
	db        *sql.DB
	listeners []func()
}

// NewContactStore creates a store over an initialized database.
func NewContactStore(db *sql.DB) *ContactStore {
	return &ContactStore{db: db}
}

// OnChange registers fn to run after every mutation of the collection.
func (s *ContactStore) OnChange(fn func()) {
	s.listeners = append(s.listeners, fn)
}

// NotifyChanged runs every registered change listener in registration order.
func (s *ContactStore) NotifyChanged() {
	for _, fn := range s.listeners {
		fn()
	}
}

// Add appends contacts to the end of the collection in order. Contacts
// without an id are given one.
func (s *ContactStore) Add(ctx context.Context, contacts ...*models.Contact) error {
	if len(contacts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // Safe even after commit
	}()

	for _, c := range contacts {
		if err := insertContact(ctx, tx, c, `SELECT COALESCE(MAX(position), 0) + 1 FROM contacts`); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.NotifyChanged()
	return nil
}

// Get returns the contact with id, or nil when there is none.
func (s *ContactStore) Get(ctx context.Context, id string) (*models.Contact, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM contacts WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var c models.Contact
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode contact %s: %w", id, err)
	}
	return &c, nil
}

// List returns the whole collection in order.
func (s *ContactStore) List(ctx context.Context) ([]models.Contact, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, data FROM contacts ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []models.Contact{}
	for rows.Next() {
		var id string
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return nil, err
		}
		var c models.Contact
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("failed to decode contact %s: %w", id, err)
		}
		contacts = append(contacts, c)
	}

	return contacts, rows.Err()
}

// Count returns the number of contacts in the collection.
func (s *ContactStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&n)
	return n, err
}

// Remove deletes the contact with id. Removing a missing id is not an error.
func (s *ContactStore) Remove(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	s.NotifyChanged()
	return nil
}

// Replace removes every contact in ids and inserts merged at the front of
// the collection, atomically. It does not notify listeners; the caller does
// once the whole merge has been applied.
func (s *ContactStore) Replace(ctx context.Context, ids []string, merged models.Contact) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // Safe even after commit
	}()

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete contact %s: %w", id, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, merged.ID); err != nil {
		return fmt.Errorf("failed to delete contact %s: %w", merged.ID, err)
	}

	if err := insertContact(ctx, tx, &merged, `SELECT COALESCE(MIN(position), 1) - 1 FROM contacts`); err != nil {
		return err
	}

	return tx.Commit()
}

// insertContact writes c at the position computed by positionQuery.
func insertContact(ctx context.Context, tx *sql.Tx, c *models.Contact, positionQuery string) error {
	if c == nil || strings.TrimSpace(c.FullName) == "" {
		return ErrInvalidContact
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	data, err := json.Marshal(c)
	if err != nil {
		return err
	}

	var position int64
	if err := tx.QueryRowContext(ctx, positionQuery).Scan(&position); err != nil {
		return fmt.Errorf("failed to compute position: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO contacts (id, position, full_name, data)
		VALUES (?, ?, ?, ?)
	`, c.ID, position, c.FullName, data)
	if err != nil {
		return fmt.Errorf("failed to insert contact %s: %w", c.ID, err)
	}
	return nil
}
