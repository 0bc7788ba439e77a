package migrations

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"trade-report-lab/internal/observability"
)

// PostgresDB is the part of a pgx pool the migrator uses.
type PostgresDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

const postgresHistory = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		name       TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

// RunPostgresMigrations applies the embedded files missing from
// schema_migrations, each in its own transaction together with its
// history row.
func RunPostgresMigrations(ctx context.Context, db PostgresDB, logger *zap.Logger) error {
	files, err := load(PostgresFS, "postgres")
	if err != nil {
		return err
	}

	if _, err := db.Exec(ctx, postgresHistory); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	applied, err := appliedPostgres(ctx, db)
	if err != nil {
		return err
	}

	for _, m := range files {
		if applied[m.name] {
			logger.Debug("migration already applied",
				zap.String("database", "postgres"),
				zap.String("file", m.name),
			)
			continue
		}

		start := time.Now()
		err := applyPostgres(ctx, db, m)
		observability.RecordDBQuery("postgres", "migrate", time.Since(start).Seconds(), err)
		if err != nil {
			return fmt.Errorf("apply migration %s: %w", m.name, err)
		}
		logger.Info("migration applied",
			zap.String("database", "postgres"),
			zap.String("file", m.name),
			zap.Duration("took", time.Since(start)),
		)
	}

	return nil
}

func appliedPostgres(ctx context.Context, db PostgresDB) (map[string]bool, error) {
	rows, err := db.Query(ctx, `SELECT name FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan schema_migrations: %w", err)
		}
		applied[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schema_migrations: %w", err)
	}
	return applied, nil
}

func applyPostgres(ctx context.Context, db PostgresDB, m migration) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	// Rollback after Commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, m.sql); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, m.name); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
