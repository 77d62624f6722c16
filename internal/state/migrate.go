package state

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/matheus3301/imsg/internal/state/migrations"
)

// ErrDirty means an earlier migration stopped halfway. The schema needs
// manual repair before imsg can use the database.
var ErrDirty = errors.New("state db schema is dirty")

// MigrateResult is the schema version before and after Migrate.
type MigrateResult struct {
	From uint
	To   uint
}

// Changed reports whether any migration ran.
func (r MigrateResult) Changed() bool {
	return r.From != r.To
}

// Migrate brings state.db up to the newest embedded schema. A dirty schema
// is refused rather than migrated further.
func (db *DB) Migrate() (MigrateResult, error) {
	var res MigrateResult
	m, err := db.migrator()
	if err != nil {
		return res, err
	}
	if res.From, err = schemaVersion(m); err != nil {
		return res, err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return res, fmt.Errorf("apply state migrations: %w", err)
	}
	if res.To, err = schemaVersion(m); err != nil {
		return res, err
	}
	return res, nil
}

func (db *DB) migrator() (*migrate.Migrate, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("state migrations: %w", err)
	}
	drv, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("state migration driver: %w", err)
	}
	return migrate.NewWithInstance("iofs", src, "sqlite3", drv)
}

// schemaVersion returns 0 for a database that has never been migrated.
func schemaVersion(m *migrate.Migrate) (uint, error) {
	v, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("read state schema version: %w", err)
	case dirty:
		return v, fmt.Errorf("%w at version %d", ErrDirty, v)
	}
	return v, nil
}
