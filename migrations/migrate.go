// Package migrations brings a memory database's schema to the version this
// build expects, using versioned up/down SQL files embedded in the binary.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

// Latest is the highest schema version shipped with this build. Keep in sync
// with the files under sql/; TestLatestMatchesFiles pins it.
const Latest uint = 3

// ErrSchemaTooNew indicates the on-disk schema was written by a newer build.
// Operating against unknown structure is never safe, so initialization must
// fail instead.
var ErrSchemaTooNew = errors.New("database schema version is newer than this build supports")

// IsSchemaTooNew checks whether err is the forward-incompatibility error.
func IsSchemaTooNew(err error) bool {
	return errors.Is(err, ErrSchemaTooNew)
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationFiles, "sql")
	if err != nil {
		return nil, fmt.Errorf("load embedded migrations: %w", err)
	}
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("create sqlite3 driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return nil, fmt.Errorf("initialize migrations: %w", err)
	}
	return m, nil
}

// Run applies all pending migrations, bringing the database to Latest. Each
// step is atomic: a failure leaves the recorded version at the last fully
// applied migration. A database recorded at a version beyond Latest fails
// with ErrSchemaTooNew; a database marked dirty by an interrupted migration
// fails rather than being silently repaired.
func Run(db *sql.DB, logger zerolog.Logger) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		// Fresh database.
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case dirty:
		return fmt.Errorf("database is dirty at version %d; repair it with migrations.RunTo before use", version)
	case version > Latest:
		return fmt.Errorf("%w: on-disk version %d, supported %d", ErrSchemaTooNew, version, Latest)
	}

	logger.Info().Uint("current", uint(version)).Uint("target", Latest).Msg("Running database migrations")
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	logger.Info().Msg("Database schema is up to date")
	return nil
}

// RunTo migrates the database to an exact version, downward included. This
// is administrative tooling; normal startup only ever migrates up via Run.
func RunTo(db *sql.DB, version uint, logger zerolog.Logger) error {
	if version > Latest {
		return fmt.Errorf("%w: requested version %d, supported %d", ErrSchemaTooNew, version, Latest)
	}
	m, err := newMigrator(db)
	if err != nil {
		return err
	}

	logger.Info().Uint("target", version).Msg("Migrating database to explicit version")
	if err := m.Migrate(version); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate to version %d: %w", version, err)
	}
	return nil
}

// Version reports the database's recorded schema version and dirty flag.
// A fresh database reports version 0.
func Version(db *sql.DB) (uint, bool, error) {
	m, err := newMigrator(db)
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}
