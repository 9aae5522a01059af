package drafts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const draftsSchema = `CREATE TABLE IF NOT EXISTS drafts (
	draft_key  TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteStore keeps drafts in a single SQLite table.
type SQLiteStore struct {
	db      *sql.DB
	timeout time.Duration
}

// OpenSQLite opens (creating when needed) the draft database at path.
// ":memory:" opens a private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("drafts: sqlite path is required")
	}
	dsn := ":memory:"
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("drafts: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, timeout: 5 * time.Second}
	ctx, cancel := store.context()
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("drafts: ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, draftsSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("drafts: create schema: %w", err)
	}
	return store, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Get(key string) (string, bool, error) {
	ctx, cancel := s.context()
	defer cancel()
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM drafts WHERE draft_key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("drafts: get %s: %w", key, err)
	}
	return payload, true, nil
}

func (s *SQLiteStore) Set(key, value string) error {
	ctx, cancel := s.context()
	defer cancel()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO drafts (draft_key, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(draft_key) DO UPDATE SET
		    payload = excluded.payload,
		    updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("drafts: set %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Remove(key string) error {
	ctx, cancel := s.context()
	defer cancel()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE draft_key = ?`, key); err != nil {
		return fmt.Errorf("drafts: remove %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}
