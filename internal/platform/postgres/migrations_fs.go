package postgres

import "embed"

// MigrationsFS embeds the SQL migration files so the server binary can
// run migrations without access to the source tree.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS
