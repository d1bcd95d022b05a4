// ABOUTME: Database connection management and initialization
// ABOUTME: Opens a private in-memory SQLite database for one editing session and loads it
package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harperreed/vcfmerge/models"
)

// OpenMemory opens an in-memory database and initializes its schema. The
// data lives only as long as the returned handle.
func OpenMemory() (*sql.DB, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, err
	}

	// Every connection to :memory: is a separate database, so keep exactly one.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := InitSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Load opens a fresh in-memory database and adds contacts to it in order.
// Contacts without an id are given one in place.
func Load(ctx context.Context, contacts []models.Contact) (*sql.DB, *ContactStore, error) {
	database, err := OpenMemory()
	if err != nil {
		return nil, nil, err
	}

	store := NewContactStore(database)
	ptrs := make([]*models.Contact, len(contacts))
	for i := range contacts {
		ptrs[i] = &contacts[i]
	}
	if err := store.Add(ctx, ptrs...); err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to load contacts: %w", err)
	}
	return database, store, nil
}
