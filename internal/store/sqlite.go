package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jun/babymemories/internal/adapter"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteBackend stores values in a single SQLite table. It backs the local
// development server so widget data survives restarts without AWS.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS keyed_values (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		version INTEGER NOT NULL,
		updated_at DATETIME NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}

func (s *SQLiteBackend) Get(ctx context.Context, key string) (Item, error) {
	var item Item
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value, version FROM keyed_values WHERE key = ?", key,
	).Scan(&value, &item.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, adapter.ErrNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("failed to query %q: %w", key, err)
	}
	item.Value = []byte(value)
	return item, nil
}

func (s *SQLiteBackend) Put(ctx context.Context, key string, value []byte, expectedVersion int64) (int64, error) {
	now := time.Now().UTC()
	var (
		res sql.Result
		err error
	)
	if expectedVersion == 0 {
		res, err = s.db.ExecContext(ctx,
			"INSERT INTO keyed_values (key, value, version, updated_at) VALUES (?, ?, 1, ?) ON CONFLICT(key) DO NOTHING",
			key, string(value), now)
	} else {
		res, err = s.db.ExecContext(ctx,
			"UPDATE keyed_values SET value = ?, version = version + 1, updated_at = ? WHERE key = ? AND version = ?",
			string(value), now, key, expectedVersion)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to write %q: %w", key, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to write %q: %w", key, err)
	}
	if n != 1 {
		return 0, adapter.ErrPreconditionFailed
	}
	return expectedVersion + 1, nil
}
