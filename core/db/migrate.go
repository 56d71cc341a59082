package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies all pending goose migrations using the pool's config.
func (db *DB) Migrate(ctx context.Context) error {
	return db.runGoose(func(sqlDB *sql.DB) error {
		return goose.UpContext(ctx, sqlDB, "migrations")
	})
}

// MigrateDown rolls back the most recent migration.
func (db *DB) MigrateDown(ctx context.Context) error {
	return db.runGoose(func(sqlDB *sql.DB) error {
		return goose.DownContext(ctx, sqlDB, "migrations")
	})
}

// MigrationStatus logs the applied state of every migration.
func (db *DB) MigrationStatus(ctx context.Context) error {
	return db.runGoose(func(sqlDB *sql.DB) error {
		return goose.StatusContext(ctx, sqlDB, "migrations")
	})
}

func (db *DB) runGoose(fn func(*sql.DB) error) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(db.pool)
	defer sqlDB.Close()

	if err := fn(sqlDB); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}
