package store

import "embed"

// Migrations holds the Postgres schema, applied by db.Migrate on start.
//
//go:embed migrations/*.sql
var Migrations embed.FS

const MigrationsDir = "migrations"
