// Package migrations owns the version store schema. Migration files are
// embedded so the engine can migrate any store it opens without external
// assets; schema changes are always explicit goose migrations, never silent
// reinterpretation of existing rows.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var embedMigrations embed.FS

// Migrate applies all pending migrations. dialect is the goose dialect name
// matching the open connection ("sqlite3" or "postgres").
func Migrate(db *sql.DB, dialect string) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migration error setting dialect for db: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	return nil
}
