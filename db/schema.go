// ABOUTME: Database schema definitions
// ABOUTME: Creates the contacts table used as the in-memory working collection
package db

import (
	"database/sql"
)

// Contacts are stored whole as JSON; position orders the collection and
// lets merged records be inserted at the front.
const schema = `
CREATE TABLE IF NOT EXISTS contacts (
	id TEXT PRIMARY KEY,
	position INTEGER NOT NULL,
	full_name TEXT NOT NULL,
	data TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_contacts_position ON contacts(position);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
