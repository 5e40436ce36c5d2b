// Package migrations carries the licensing schema: the device_state table
// backing storage/postgres and the error_audit table backing audit. The SQL
// is embedded so deployments migrate from the binary alone.
package migrations

import (
	"embed"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed *.sql
var migrationFS embed.FS

// FS exposes the embedded SQL for external migration runners.
var FS = migrationFS

// Migrations is the bun registry for the licensing schema.
var Migrations = migrate.NewMigrations()

// NewMigrator binds the registry to a database handle.
func NewMigrator(db *bun.DB) *migrate.Migrator {
	return migrate.NewMigrator(db, Migrations)
}

func init() {
	if err := Migrations.Discover(migrationFS); err != nil {
		panic(err)
	}
}
