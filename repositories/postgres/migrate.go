package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies pending schema migrations through a short-lived database/sql handle.
func Migrate(ctx context.Context, dsn string, log *slog.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open sql connection: %w", err)
	}
	defer db.Close()

	if err = db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sql connection: %w", err)
	}

	goose.SetBaseFS(migrations)
	if err = goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("configure goose: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	log.Info("Applying migrations")
	if err = goose.UpContext(runCtx, db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	log.Info("Migrations applied")
	return nil
}
