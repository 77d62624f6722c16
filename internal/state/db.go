// Package state owns imsg's private SQLite database: the dispatch log and
// the persisted compose history. The Messages store itself is never written.
package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the app-owned state.db connection.
type DB struct {
	*sql.DB
}

// Open creates the database file if needed and applies the connection pragmas.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping state db: %w", err)
	}
	return &DB{db}, nil
}

// OpenAndMigrate opens the database and brings its schema up to date.
func OpenAndMigrate(path string) (*DB, MigrateResult, error) {
	db, err := Open(path)
	if err != nil {
		return nil, MigrateResult{}, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, result, err
	}
	return db, result, nil
}
