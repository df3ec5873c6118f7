package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// HistoryDB stores parse runs and their results
type HistoryDB struct {
	db   *sql.DB
	path string
	mu   sync.RWMutex
}

// OpenPath opens or creates the database at a specific path
func OpenPath(path string) (*HistoryDB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// WAL lets the API read while a scan is writing
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return initialize(db, path)
}

// OpenInMemory opens an in-memory database for testing
func OpenInMemory() (*HistoryDB, error) {
	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// every connection would get its own empty database
	db.SetMaxOpenConns(1)

	return initialize(db, ":memory:")
}

func initialize(db *sql.DB, path string) (*HistoryDB, error) {
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	hdb := &HistoryDB{
		db:   db,
		path: path,
	}

	if err := hdb.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// Path returns the filesystem path to the database file
func (h *HistoryDB) Path() string {
	return h.path
}

func (h *HistoryDB) migrate() error {
	return applyMigrations(h.db)
}

// SchemaVersion returns the highest applied migration.
func (h *HistoryDB) SchemaVersion() (int, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var v int
	err := h.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&v)
	return v, err
}
