package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/iamrosada0/paypay-integration-simplified/sql/schema"
)

// RunMigrations brings the database schema up to date using the embedded
// goose migrations. Called at server startup so a fresh deployment needs no
// separate migration step.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	// goose works on database/sql; borrow a stdlib view of the pgx pool
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(schema.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
