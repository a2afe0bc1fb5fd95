package repository

import "embed"

// MigrationsFS holds the SQL schema migrations applied by golang-migrate.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS

// MigrationsDir is the directory inside MigrationsFS that holds the files.
const MigrationsDir = "migrations"
