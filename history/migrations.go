package history

import "embed"

// MigrationsDir is the directory of Migrations holding the SQL files.
const MigrationsDir = "migrations"

// Migrations holds the versioned schema of the history database.
//
//go:embed migrations/*.sql
var Migrations embed.FS
