package storage

import (
	"context"

	"trade-report-lab/internal/domain"
)

// ReportStore provides access to archived report summaries.
type ReportStore interface {
	// Insert adds a new report. Returns ErrDuplicateKey if report_id exists.
	Insert(ctx context.Context, r *domain.ReportSummary) error

	// GetByID retrieves a report by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, reportID string) (*domain.ReportSummary, error)

	// GetByInputHash retrieves every report computed from the same input, newest first.
	GetByInputHash(ctx context.Context, inputHash string) ([]*domain.ReportSummary, error)

	// List retrieves up to limit reports, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]*domain.ReportSummary, error)
}

// EquityCurveStore provides access to stored equity curves.
type EquityCurveStore interface {
	// InsertBulk stores the points of one report's curve atomically.
	// Returns ErrDuplicateKey if a curve for reportID already exists.
	InsertBulk(ctx context.Context, reportID string, points []domain.EquityPoint) error

	// GetByReportID retrieves a curve in point order. Empty when none stored.
	GetByReportID(ctx context.Context, reportID string) ([]domain.EquityPoint, error)
}
