// Package store reads the macOS Messages database (chat.db). The database
// belongs to Messages.app and is only ever opened read-only.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// ErrUnavailable reports a missing or inaccessible chat.db.
var ErrUnavailable = errors.New("messages store unavailable")

// DB wraps a read-only connection to chat.db.
type DB struct {
	*sql.DB
	path     string
	resolver NameResolver
}

// DefaultPath returns ~/Library/Messages/chat.db.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Library", "Messages", "chat.db")
}

// Open connects to the store at path in read-only mode. resolver may be nil,
// in which case identifiers are shown verbatim.
func Open(path string, resolver NameResolver) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, path, err)
	}
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("open chat db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping %s: %v", ErrUnavailable, path, err)
	}
	if resolver == nil {
		resolver = identityResolver{}
	}
	return &DB{DB: db, path: path, resolver: resolver}, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

func (db *DB) senderName(fromMe bool, handle string) string {
	if fromMe {
		return "Me"
	}
	if handle == "" {
		return "Unknown"
	}
	return db.resolver.Resolve(handle)
}

// chatName picks the stored name, then the resolved identifier, then "Unknown".
func (db *DB) chatName(displayName, identifier string) string {
	if displayName != "" {
		return displayName
	}
	if identifier != "" {
		return db.resolver.Resolve(identifier)
	}
	return "Unknown"
}
