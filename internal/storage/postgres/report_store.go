package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"trade-report-lab/internal/domain"
	"trade-report-lab/internal/storage"
)

// ReportStore implements storage.ReportStore using PostgreSQL.
type ReportStore struct {
	pool *Pool
}

// NewReportStore creates a new ReportStore.
func NewReportStore(pool *Pool) *ReportStore {
	return &ReportStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ReportStore = (*ReportStore)(nil)

const reportColumns = `
	report_id, created_at, source_name, input_hash, platform,
	total_trades, initial_equity, final_equity, total_net_profit,
	profit_factor, win_rate, max_drawdown_abs, max_drawdown_pct,
	sharpe, sortino, calmar
`

// Insert adds a new report. Returns ErrDuplicateKey if report_id exists.
func (s *ReportStore) Insert(ctx context.Context, r *domain.ReportSummary) (err error) {
	if r == nil || r.ReportID == "" {
		return storage.ErrInvalidInput
	}

	start := time.Now()
	defer func() { observe("report_insert", start, err) }()

	query := `
		INSERT INTO reports (` + reportColumns + `) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13,
			$14, $15, $16
		)
	`

	_, err = s.pool.Exec(ctx, query,
		r.ReportID, r.CreatedAt, r.SourceName, r.InputHash, string(r.Platform),
		r.TotalTrades, r.InitialEquity, r.FinalEquity, r.TotalNetProfit,
		r.ProfitFactor, r.WinRate, r.MaxDrawdownAbs, r.MaxDrawdownPct,
		r.Sharpe, r.Sortino, r.Calmar,
	)
	return storageError("insert report", err)
}

// GetByID retrieves a report by its ID. Returns ErrNotFound if not exists.
func (s *ReportStore) GetByID(ctx context.Context, reportID string) (r *domain.ReportSummary, err error) {
	start := time.Now()
	defer func() { observe("report_get", start, err) }()

	query := `SELECT ` + reportColumns + ` FROM reports WHERE report_id = $1`

	r, err = scanReport(s.pool.QueryRow(ctx, query, reportID))
	if err != nil {
		return nil, storageError("get report by id", err)
	}
	return r, nil
}

// GetByInputHash retrieves every report computed from the same input, newest first.
func (s *ReportStore) GetByInputHash(ctx context.Context, inputHash string) (reports []*domain.ReportSummary, err error) {
	start := time.Now()
	defer func() { observe("report_by_hash", start, err) }()

	query := `
		SELECT ` + reportColumns + `
		FROM reports
		WHERE input_hash = $1
		ORDER BY created_at DESC, report_id ASC
	`

	rows, err := s.pool.Query(ctx, query, inputHash)
	if err != nil {
		return nil, storageError("query reports by input hash", err)
	}
	defer rows.Close()

	return scanReports(rows)
}

// List retrieves up to limit reports, newest first.
func (s *ReportStore) List(ctx context.Context, limit int) (reports []*domain.ReportSummary, err error) {
	start := time.Now()
	defer func() { observe("report_list", start, err) }()

	query := `
		SELECT ` + reportColumns + `
		FROM reports
		ORDER BY created_at DESC, report_id ASC
	`

	var rows pgx.Rows
	if limit > 0 {
		rows, err = s.pool.Query(ctx, query+" LIMIT $1", limit)
	} else {
		rows, err = s.pool.Query(ctx, query)
	}
	if err != nil {
		return nil, storageError("list reports", err)
	}
	defer rows.Close()

	return scanReports(rows)
}

// scanReport scans a single row into a ReportSummary.
func scanReport(row pgx.Row) (*domain.ReportSummary, error) {
	var r domain.ReportSummary
	var platform string

	err := row.Scan(
		&r.ReportID, &r.CreatedAt, &r.SourceName, &r.InputHash, &platform,
		&r.TotalTrades, &r.InitialEquity, &r.FinalEquity, &r.TotalNetProfit,
		&r.ProfitFactor, &r.WinRate, &r.MaxDrawdownAbs, &r.MaxDrawdownPct,
		&r.Sharpe, &r.Sortino, &r.Calmar,
	)
	if err != nil {
		return nil, err
	}

	r.Platform = domain.Platform(platform)
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}

// scanReports scans multiple rows.
func scanReports(rows pgx.Rows) ([]*domain.ReportSummary, error) {
	reports := []*domain.ReportSummary{}

	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}

	return reports, nil
}
