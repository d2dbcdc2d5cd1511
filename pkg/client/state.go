package client

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a durable Store backed by a single-table SQLite database.
// It survives process restarts, playing the role browser storage plays for
// the web client.
type SQLiteStore struct {
	db  *sql.DB
	dir string // Directory where state is stored
}

// OpenStore opens or creates the client state database.
func OpenStore(path string) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	// Configure for better reliability
	db.SetMaxOpenConns(1) // Client only needs one connection
	db.SetMaxIdleConns(1)

	// Enable WAL mode
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set busy timeout
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS KV (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create KV table: %w", err)
	}

	return &SQLiteStore{db: db, dir: dir}, nil
}

// Close closes the state database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get retrieves a value.
func (s *SQLiteStore) Get(key string) (string, bool) {
	var value string
	err := s.db.QueryRow("SELECT value FROM KV WHERE key = ?", key).Scan(&value)
	if err != nil {
		return "", false
	}
	return value, true
}

// Set stores a value.
func (s *SQLiteStore) Set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO KV (key, value) VALUES (?, ?)
	`, key, value)
	return err
}

// Remove deletes a key. Deleting a missing key is not an error.
func (s *SQLiteStore) Remove(key string) error {
	_, err := s.db.Exec("DELETE FROM KV WHERE key = ?", key)
	return err
}

// StateDir returns the directory where state is stored.
func (s *SQLiteStore) StateDir() string {
	return s.dir
}
