// Package migrations holds the PostgreSQL schema for the order store.
package migrations

import "embed"

// FS contains the *.up.sql files applied by database.RunMigrations.
//
//go:embed *.up.sql
var FS embed.FS
