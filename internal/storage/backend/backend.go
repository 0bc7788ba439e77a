// Package backend opens the report stores for a binary: in memory, or
// PostgreSQL for report summaries plus ClickHouse for equity curves.
package backend

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"trade-report-lab/internal/storage"
	chstore "trade-report-lab/internal/storage/clickhouse"
	"trade-report-lab/internal/storage/memory"
	"trade-report-lab/internal/storage/migrations"
	pgstore "trade-report-lab/internal/storage/postgres"
)

// ErrMissingDSN is returned when database mode lacks a DSN.
var ErrMissingDSN = errors.New("postgres and clickhouse DSNs are both required")

// Stores holds the opened stores and releases their connections.
type Stores struct {
	Reports storage.ReportStore
	Curves  storage.EquityCurveStore

	close func()
}

// Close releases database connections; safe on memory stores.
func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

// Memory returns empty in-memory stores.
func Memory() *Stores {
	return &Stores{
		Reports: memory.NewReportStore(),
		Curves:  memory.NewEquityCurveStore(),
	}
}

// Open connects to both databases and applies the embedded migrations.
func Open(ctx context.Context, postgresDSN, clickhouseDSN string, logger *zap.Logger) (*Stores, error) {
	if postgresDSN == "" || clickhouseDSN == "" {
		return nil, ErrMissingDSN
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, err
	}
	if err := migrations.RunPostgresMigrations(ctx, pool, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres migrations: %w", err)
	}
	logger.Info("postgres ready")

	chConn, err := chstore.Open(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, err
	}
	if err := migrations.RunClickhouseMigrations(ctx, chConn, logger); err != nil {
		chConn.Close()
		pool.Close()
		return nil, fmt.Errorf("clickhouse migrations: %w", err)
	}
	logger.Info("clickhouse ready")

	return &Stores{
		Reports: pgstore.NewReportStore(pool),
		Curves:  chstore.NewEquityCurveStore(chConn),
		close: func() {
			chConn.Close()
			pool.Close()
		},
	}, nil
}
