// Package migration drives golang-migrate against the job_runs schema
// (see migrations/) from the standalone cmd/migrate CLI.
package migration

import (
	"database/sql"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// Migrator wraps a golang-migrate instance bound to the worker pool
// service's postgres database.
type Migrator struct {
	migrate *migrate.Migrate
	logger  *zap.Logger
}

// New creates a Migrator from an already-open *sql.DB and a directory of
// .up.sql/.down.sql migration file pairs.
func New(db *sql.DB, migrationsPath string, logger *zap.Logger) (*Migrator, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("creating postgres driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"postgres",
		driver,
	)
	if err != nil {
		return nil, fmt.Errorf("creating migrate instance: %w", err)
	}

	return &Migrator{migrate: m, logger: logger}, nil
}

// Up applies every pending migration.
func (m *Migrator) Up() error {
	m.logger.Info("running migrations up")
	if err := m.migrate.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return m.logVersion("migrations up")
}

// Down rolls back every applied migration.
func (m *Migrator) Down() error {
	m.logger.Info("running migrations down")
	if err := m.migrate.Down(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration down failed: %w", err)
	}
	m.logger.Info("all migrations rolled back")
	return nil
}

// Steps applies n migrations; n negative rolls back abs(n) steps.
func (m *Migrator) Steps(n int) error {
	m.logger.Info("running migration steps", zap.Int("steps", n))
	if err := m.migrate.Steps(n); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration steps failed: %w", err)
	}
	return m.logVersion("migration steps")
}

// GoTo migrates forward or backward to a specific schema version.
func (m *Migrator) GoTo(version uint) error {
	m.logger.Info("migrating to version", zap.Uint("target_version", version))
	if err := m.migrate.Migrate(version); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration to version %d failed: %w", version, err)
	}
	return m.logVersion("migration to version")
}

// Version returns the schema's current applied version and whether the
// last migration left it in a dirty (partially-applied) state.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if err != nil {
		if err == migrate.ErrNilVersion {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("getting migration version: %w", err)
	}
	return version, dirty, nil
}

// Force sets the schema version without running any migration SQL. This
// exists to recover from a dirty state left by a failed migration; it
// does not undo or redo any statements.
func (m *Migrator) Force(version int) error {
	m.logger.Warn("forcing migration version", zap.Int("version", version))
	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("forcing version %d: %w", version, err)
	}
	m.logger.Info("migration version forced", zap.Int("version", version))
	return nil
}

// Drop removes every object golang-migrate knows about. Destroys all
// data in the target database.
func (m *Migrator) Drop() error {
	m.logger.Warn("dropping database - all data will be lost")
	if err := m.migrate.Drop(); err != nil {
		return fmt.Errorf("dropping database: %w", err)
	}
	m.logger.Info("database dropped")
	return nil
}

// Close releases the source and database handles golang-migrate holds.
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	if sourceErr != nil {
		return fmt.Errorf("closing migration source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("closing migration database handle: %w", dbErr)
	}
	return nil
}

// logVersion logs the schema version reached after an Up/Steps/GoTo call,
// treating ErrNilVersion (nothing applied yet) as a no-op rather than an
// error.
func (m *Migrator) logVersion(action string) error {
	version, dirty, err := m.migrate.Version()
	if err != nil {
		if err == migrate.ErrNilVersion {
			m.logger.Info(action + ": no migrations applied yet")
			return nil
		}
		return fmt.Errorf("getting migration version: %w", err)
	}
	m.logger.Info(action+" completed", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}
