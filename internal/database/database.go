// Package database opens the configured repository backend and brings its
// schema up to date.
package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukerupert/lojas/internal"
	"github.com/dukerupert/lojas/internal/postgres"
	"github.com/dukerupert/lojas/internal/repository"
	"github.com/dukerupert/lojas/internal/sqlite"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// Open connects to the backend named by cfg.Driver and runs pending
// migrations. The caller owns the returned repository and must Close it.
func Open(ctx context.Context, cfg internal.DatabaseConfig, logger *slog.Logger) (repository.Repository, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Driver {
	case internal.DriverSQLite:
		return openSQLite(cfg.SQLitePath, logger)
	case internal.DriverPostgres:
		return openPostgres(ctx, cfg.URL, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openSQLite(path string, logger *slog.Logger) (repository.Repository, error) {
	logger.Info("Opening SQLite database...", "path", path)
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(db, internal.DriverSQLite); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	return sqlite.New(db), nil
}

func openPostgres(ctx context.Context, url string, logger *slog.Logger) (repository.Repository, error) {
	logger.Info("Connecting to database...")
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	// goose needs database/sql; borrow a handle backed by the same pool
	logger.Info("Running database migrations...")
	sqlDB := stdlib.OpenDBFromPool(pool)
	err = internal.RunMigrations(sqlDB, internal.DriverPostgres)
	sqlDB.Close()
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	return postgres.New(pool), nil
}
