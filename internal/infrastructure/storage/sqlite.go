// Package storage persists UploadWatcher state in SQLite: runtime settings,
// notification slots, and the check log.
package storage

import (
	"database/sql"
	"fmt"
	"testing"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS settings (
    id             INTEGER PRIMARY KEY CHECK (id = 1),
    assignee       TEXT NOT NULL DEFAULT '',
    enabled        INTEGER NOT NULL DEFAULT 0,
    interval_hours INTEGER NOT NULL DEFAULT 3,
    updated_at     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS notification_slots (
    tag            TEXT PRIMARY KEY,
    title          TEXT NOT NULL DEFAULT '',
    body           TEXT NOT NULL DEFAULT '',
    sent_at        INTEGER NOT NULL,
    replaced_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS check_log (
    id            TEXT PRIMARY KEY,
    started_at    INTEGER NOT NULL,
    duration_ms   INTEGER NOT NULL DEFAULT 0,
    status        TEXT NOT NULL,
    error         TEXT NOT NULL DEFAULT '',
    webhook_items INTEGER NOT NULL DEFAULT 0,
    portal_rows   INTEGER NOT NULL DEFAULT 0,
    not_uploaded  INTEGER NOT NULL DEFAULT 0,
    notifications INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_check_log_time ON check_log(started_at DESC);
`

// Open opens the state database at path with WAL and busy-timeout pragmas
// and applies the schema.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// OpenMemory opens an in-memory database for tests. MaxOpenConns(1) keeps
// every query on the same in-memory instance; the database is closed via
// t.Cleanup.
func OpenMemory(t testing.TB) *sql.DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("storage.OpenMemory: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}
