// Package migrations embeds the goose SQL migrations for every supported driver.
package migrations

import "embed"

// MigrationsFS holds one directory per database driver ("postgres", "sqlite").
//
//go:embed postgres/*.sql sqlite/*.sql
var MigrationsFS embed.FS
