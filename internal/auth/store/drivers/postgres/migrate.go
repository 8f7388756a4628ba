package postgres

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/claimdesk/internal/auth/store/drivers/postgres/migrations"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// ApplyMigrations runs the embedded goose migrations through a database/sql
// handle borrowed from the pool.
func (s *Store) ApplyMigrations() error {
	const op = "postgres.ApplyMigrations"

	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := goose.UpContext(context.Background(), db, "."); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
