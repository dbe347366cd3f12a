package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SchemaChange reports the schema version before and after a migration run.
// Version 0 means no migration had ever been applied.
type SchemaChange struct {
	From uint
	To   uint
}

// Changed reports whether any migration ran.
func (c SchemaChange) Changed() bool {
	return c.From != c.To
}

// RunMigrations applies every pending embedded migration to the database at
// dbPath. Tables created before migrations existed are adopted as they are.
func RunMigrations(dbPath string) (SchemaChange, error) {
	// The migrate driver closes its connection, so it gets its own.
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return SchemaChange{}, fmt.Errorf("open migration database: %w", err)
	}
	defer db.Close()

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return SchemaChange{}, fmt.Errorf("create sqlite driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return SchemaChange{}, fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return SchemaChange{}, fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	var change SchemaChange
	if change.From, err = schemaVersion(m); err != nil {
		return change, err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return change, fmt.Errorf("run migrations: %w", err)
	}
	change.To, err = schemaVersion(m)
	return change, err
}

func schemaVersion(m *migrate.Migrate) (uint, error) {
	v, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("read schema version: %w", err)
	case dirty:
		return v, fmt.Errorf("schema version %d is dirty, a previous migration failed halfway", v)
	}
	return v, nil
}
