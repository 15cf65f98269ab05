package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
//
// Timestamps are fixed-width UTC text (see store.formatTime) so that string
// comparison orders them chronologically.
const schema = `
CREATE TABLE IF NOT EXISTS inventory_sessions (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    status        TEXT NOT NULL DEFAULT 'in_progress' CHECK (status IN ('in_progress', 'completed')),
    total_items   INTEGER NOT NULL CHECK (total_items >= 0),
    checked_items INTEGER NOT NULL DEFAULT 0 CHECK (checked_items >= 0),
    created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_created_at
    ON inventory_sessions(created_at);

CREATE TABLE IF NOT EXISTS inventory_items (
    id                TEXT PRIMARY KEY,
    session_id        TEXT NOT NULL REFERENCES inventory_sessions(id) ON DELETE CASCADE,
    barcode           TEXT NOT NULL,
    product_name      TEXT NOT NULL,
    expected_quantity INTEGER NOT NULL CHECK (expected_quantity >= 0),
    actual_quantity   INTEGER CHECK (actual_quantity >= 0),
    status            TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'matched', 'mismatched')),
    checked_at        TEXT,
    created_at        TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_session_barcode
    ON inventory_items(session_id, barcode, status);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
