package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
)

// Database manages the history store lifecycle: directory creation,
// migration, and a single long-lived connection for repositories.
type Database struct {
	db   *sql.DB
	path string
}

// NewDatabase opens (creating if needed) the history database at path and
// applies pending migrations from migrationsPath (file:// URL).
func NewDatabase(path, migrationsPath string) (*Database, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Migrations run on their own connection because the migrator closes
	// the connection it is handed.
	if err := MigrateUpFromPath(path, migrationsPath); err != nil {
		return nil, err
	}

	conn, err := NewSQLiteConnectionWithDefaults(path)
	if err != nil {
		return nil, err
	}

	return &Database{db: conn, path: path}, nil
}

// DB returns the underlying connection for repositories.
func (d *Database) DB() *sql.DB { return d.db }

// Path returns the database file path.
func (d *Database) Path() string { return d.path }

// Close closes the underlying connection.
func (d *Database) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}
