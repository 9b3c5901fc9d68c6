package migrations

import (
	"errors"
	"fmt"
	"os"
	"rental-location/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/uptrace/bun"
)

// SchemaVersion is the last schema migration. Later versions only seed data.
const SchemaVersion = 2

type MigrateOptions struct {
	MigrationsDir string
	// SeedData also applies the migrations after SchemaVersion (the settings row).
	SeedData bool
}

// State describes where the rental schema currently stands.
type State struct {
	Version uint
	Dirty   bool
	// Pending is true while the schema is below SchemaVersion.
	Pending bool
}

func DefaultOptions() MigrateOptions {
	return MigrateOptions{
		MigrationsDir: "./migrations",
		SeedData:      true,
	}
}

// Runner applies the rental schema to postgres
type Runner struct {
	bunDB    *bun.DB
	options  MigrateOptions
	log      *logger.Logger
	migrator *migrate.Migrate
}

func NewRunner(bunDB *bun.DB, opts MigrateOptions, log *logger.Logger) *Runner {
	return &Runner{
		bunDB:   bunDB,
		options: opts,
		log:     log,
	}
}

// Initialize opens the migration source and the postgres driver.
func (r *Runner) Initialize() error {
	if _, err := os.Stat(r.options.MigrationsDir); os.IsNotExist(err) {
		return fmt.Errorf("migrations directory does not exist: %s", r.options.MigrationsDir)
	}

	driver, err := postgres.WithInstance(r.bunDB.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create postgres migration driver: %w", err)
	}

	migrator, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", r.options.MigrationsDir),
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	r.migrator = migrator
	return nil
}

func (r *Runner) ensure() error {
	if r.migrator != nil {
		return nil
	}
	return r.Initialize()
}

// RunMigrations brings the schema up to date. A dirty version left by a failed
// run is forced back before retrying.
func (r *Runner) RunMigrations() error {
	if err := r.ensure(); err != nil {
		return err
	}

	version, dirty, err := r.migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	if dirty {
		r.log.Warn("MIGRATION", fmt.Sprintf("Detected dirty migration at version %d, forcing", version))
		if err := r.migrator.Force(int(version)); err != nil {
			return fmt.Errorf("failed to fix dirty migration: %w", err)
		}
	}

	if r.options.SeedData {
		r.log.Info("MIGRATION", "Running all migrations including seed data")
		err = r.migrator.Up()
	} else {
		r.log.Info("MIGRATION", "Running schema migrations only")
		err = r.migrateUpTo(SchemaVersion, version)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if version, _, err := r.migrator.Version(); err == nil {
		r.log.Info("MIGRATION", fmt.Sprintf("Current schema version: %d", version))
	}
	return nil
}

// migrateUpTo never moves down, a database already past target is left alone
func (r *Runner) migrateUpTo(target, current uint) error {
	if current >= target {
		return migrate.ErrNoChange
	}
	return r.migrator.Migrate(target)
}

// Status reports the applied version without changing anything.
func (r *Runner) Status() (State, error) {
	if err := r.ensure(); err != nil {
		return State{}, err
	}
	version, dirty, err := r.migrator.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return State{Pending: true}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("failed to read schema version: %w", err)
	}
	return State{Version: version, Dirty: dirty, Pending: version < SchemaVersion}, nil
}

// MigrateDown rolls back all migrations
func (r *Runner) MigrateDown() error {
	if err := r.ensure(); err != nil {
		return err
	}
	if err := r.migrator.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down failed: %w", err)
	}
	return nil
}

func (r *Runner) Close() error {
	if r.migrator == nil {
		return nil
	}
	srcErr, dbErr := r.migrator.Close()
	return errors.Join(srcErr, dbErr)
}
