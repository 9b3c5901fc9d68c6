package database

import (
	"context"
	"database/sql"
	"fmt"
	"rental-location/internal/config"
	"rental-location/internal/logger"
	"rental-location/internal/rentals/db"
	"time"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// retryDelay is the pause between postgres connection attempts
var retryDelay = 2 * time.Second

// Open connects to the configured database. Postgres is retried ConnectTries
// times; SQLite gets its tables created directly.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*bun.DB, error) {
	switch cfg.Driver {
	case DriverPostgres:
		return openPostgres(cfg, log)
	case DriverSQLite:
		return openSQLite(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
}

func openPostgres(cfg config.DatabaseConfig, log *logger.Logger) (*bun.DB, error) {
	if cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("POSTGRES_DSN not set")
	}

	maxRetries := cfg.ConnectTries
	if maxRetries < 1 {
		maxRetries = 1
	}

	var sqldb *sql.DB
	var err error
	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.PostgresDSN)
		if err == nil {
			if err = sqldb.Ping(); err == nil {
				break
			}
			sqldb.Close()
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL after %d attempts: %w", maxRetries, err)
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	log.Info("DATABASE", "PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New()), nil
}

func openSQLite(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}
	// SQLite allows a single writer
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	if err := (&db.DB{Bun: bunDB}).CreateTables(ctx); err != nil {
		bunDB.Close()
		return nil, fmt.Errorf("failed to create SQLite tables: %w", err)
	}

	log.Info("DATABASE", fmt.Sprintf("SQLite database ready at %s", cfg.SQLitePath))
	return bunDB, nil
}
