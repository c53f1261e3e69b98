package postgres

import "embed"

// MigrationsDir is the directory inside Migrations holding the goose files.
const MigrationsDir = "migrations"

// MigrationTableName is the table goose uses to track applied versions.
const MigrationTableName = "schema_migrations"

// Migrations holds the SQL migrations compiled into the binary.
//
//go:embed migrations/*.sql
var Migrations embed.FS
