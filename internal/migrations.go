package internal

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/lojas/migrations"
	"github.com/pressly/goose/v3"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// RunMigrations executes all pending migrations for the given driver.
// Each driver reads its own directory of the embedded filesystem.
func RunMigrations(db *sql.DB, driver string) error {
	var dialect string
	switch driver {
	case DriverPostgres:
		dialect = "postgres"
	case DriverSQLite:
		dialect = "sqlite3"
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}

	goose.SetBaseFS(migrations.MigrationsFS)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, driver); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
