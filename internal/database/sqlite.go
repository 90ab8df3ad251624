package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteSchema creates the settlements table used by the embedded mirror.
// Dates are stored as YYYY-MM-DD text and tags joined with '|'.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS settlements (
    id          TEXT PRIMARY KEY,
    date        TEXT    NOT NULL,
    race_time   TEXT    NOT NULL,
    course      TEXT    NOT NULL,
    horse       TEXT    NOT NULL,
    price       REAL    NOT NULL DEFAULT 0,
    price_valid INTEGER NOT NULL DEFAULT 0,
    confidence  REAL,
    position    TEXT    NOT NULL,
    stake       REAL    NOT NULL DEFAULT 0,
    profit      REAL    NOT NULL DEFAULT 0,
    outcome     TEXT    NOT NULL,
    mode        TEXT    NOT NULL,
    tags        TEXT    NOT NULL DEFAULT '',
    nap         INTEGER NOT NULL DEFAULT 0,
    matched     INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_settlements_mode_date ON settlements(mode, date);
`

// OpenSQLite opens (or creates) the SQLite database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %q: %w", path, err)
	}
	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, SQLiteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply sqlite schema: %w", err)
	}
	return db, nil
}
