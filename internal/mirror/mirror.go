// Package mirror provides the best-effort durable key-value store backing
// the entity cache across runs. It is opportunistic, not authoritative: any
// failure is a signal for the caller to continue memory-only.
package mirror

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// Mirror is a durable key-value store for serialized entity tables.
//
// Implementations may fail at any call (storage quota, missing directory,
// corrupt file). Callers must treat a failure as "disable the mirror for the
// rest of the session" rather than an error worth aborting over.
type Mirror interface {
	// Get returns the value stored under key, with false when the key is
	// absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// SetAll stores every key/value pair atomically: either all of them
	// replace their previous values, or none do. Keys not named keep their
	// current values.
	SetAll(ctx context.Context, values map[string][]byte) error
	// Close releases the underlying store.
	Close() error
}

// SQLite is a Mirror backed by a SQLite database file.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) a SQLite-backed mirror at dbPath.
func NewSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool size to 1 for in-memory databases to ensure consistency
	// For file-based databases, this still works well for our use case
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 10000",  // Wait up to 10 seconds on lock
		"PRAGMA synchronous = NORMAL",  // Balance between safety and performance
		"PRAGMA journal_mode = WAL",    // Write-Ahead Logging for concurrent access
		"PRAGMA temp_store = MEMORY",   // Use memory for temp tables
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
		);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Get returns the value stored under key.
func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return value, true, nil
}

// SetAll stores every key/value pair in a single transaction. A failure on
// any key rolls the whole write back, so readers never observe a snapshot
// with some keys updated and others stale.
func (s *SQLite) SetAll(ctx context.Context, values map[string][]byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for key, value := range values {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO kv (key, value, updated_at) VALUES (?, ?, strftime('%s', 'now'))
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, key, value)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to write key %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit write: %w", err)
	}
	return nil
}

// Close releases the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
