package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// Freshness is a cheap change signal for chat.db. Messages.app writes
// through the WAL, so the -wal file is tracked alongside the main file.
// It is only ever compared, never used for ordering.
type Freshness struct {
	DBModTime  time.Time
	DBSize     int64
	WALModTime time.Time
	WALSize    int64
}

// After reports whether f shows activity newer than prev. A signal that
// moved backwards is not newer.
func (f Freshness) After(prev Freshness) bool {
	return newer(f.DBModTime, f.DBSize, prev.DBModTime, prev.DBSize) ||
		newer(f.WALModTime, f.WALSize, prev.WALModTime, prev.WALSize)
}

// Max merges two signals field by field so the result never decreases.
func (f Freshness) Max(other Freshness) Freshness {
	out := f
	if newer(other.DBModTime, other.DBSize, out.DBModTime, out.DBSize) {
		out.DBModTime, out.DBSize = other.DBModTime, other.DBSize
	}
	if newer(other.WALModTime, other.WALSize, out.WALModTime, out.WALSize) {
		out.WALModTime, out.WALSize = other.WALModTime, other.WALSize
	}
	return out
}

func newer(mod time.Time, size int64, prevMod time.Time, prevSize int64) bool {
	if mod.After(prevMod) {
		return true
	}
	return mod.Equal(prevMod) && size > prevSize
}

// Freshness stats chat.db and its WAL. A missing WAL is not an error.
func (db *DB) Freshness(_ context.Context) (Freshness, error) {
	return StatFreshness(db.path)
}

// StatFreshness reads the freshness signal for the database at path.
func StatFreshness(path string) (Freshness, error) {
	var f Freshness
	info, err := os.Stat(path)
	if err != nil {
		return f, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	f.DBModTime, f.DBSize = info.ModTime(), info.Size()

	wal, err := os.Stat(path + "-wal")
	switch {
	case err == nil:
		f.WALModTime, f.WALSize = wal.ModTime(), wal.Size()
	case !errors.Is(err, fs.ErrNotExist):
		return f, fmt.Errorf("stat wal: %w", err)
	}
	return f, nil
}
