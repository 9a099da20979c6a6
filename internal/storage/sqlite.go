package storage

import (
	"database/sql"
	"errors"
	"fmt"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps items in a single-table sqlite database.
type SQLiteStore struct {
	conn *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and runs migrations.
// ":memory:" gives a private in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite store path is empty")
	}
	if path != ":memory:" {
		if err := ensureDir(path); err != nil {
			return nil, err
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite store: %w", err)
	}
	// One connection keeps ":memory:" databases shared across calls.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pinging sqlite store: %w", err)
	}

	s := &SQLiteStore{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, m := range migrations {
		if _, err := s.conn.Exec(m); err != nil {
			return fmt.Errorf("migrating sqlite store: %w", err)
		}
	}
	return nil
}

// GetItem returns the value stored under key and whether it exists.
func (s *SQLiteStore) GetItem(key string) (string, bool, error) {
	var value string
	err := s.conn.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %q: %w", key, err)
	}
	return value, true, nil
}

// SetItem inserts or replaces key.
func (s *SQLiteStore) SetItem(key, value string) error {
	_, err := s.conn.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("writing %q: %w", key, err)
	}
	return nil
}

// RemoveItem deletes key. A missing key is not an error.
func (s *SQLiteStore) RemoveItem(key string) error {
	if _, err := s.conn.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("removing %q: %w", key, err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}
