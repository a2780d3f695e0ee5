package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed sql/*.sql
var sqlFiles embed.FS

// Migrations holds the schema for scenarios, progression and reports.
var Migrations = migrate.NewMigrations()

func init() {
	files, err := fs.Sub(sqlFiles, "sql")
	if err != nil {
		panic(fmt.Sprintf("migrations fs: %v", err))
	}
	if err := Migrations.Discover(files); err != nil {
		panic(fmt.Sprintf("discover migrations: %v", err))
	}
}

// Run initialises the bun migration tables and applies pending migrations.
func Run(ctx context.Context, db *bun.DB) (*migrate.MigrationGroup, error) {
	migrator := migrate.NewMigrator(db, Migrations)
	if err := migrator.Init(ctx); err != nil {
		return nil, fmt.Errorf("init migrator: %w", err)
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return group, nil
}
