package clickhouse

import (
	"context"
	"fmt"
	"time"

	"trade-report-lab/internal/domain"
	"trade-report-lab/internal/observability"
	"trade-report-lab/internal/storage"
)

// EquityCurveStore implements storage.EquityCurveStore using ClickHouse.
type EquityCurveStore struct {
	conn *Conn
}

// NewEquityCurveStore creates a new EquityCurveStore.
func NewEquityCurveStore(conn *Conn) *EquityCurveStore {
	return &EquityCurveStore{conn: conn}
}

// Compile-time interface check.
var _ storage.EquityCurveStore = (*EquityCurveStore)(nil)

// InsertBulk stores one report's curve. Fails if the report already has points.
func (s *EquityCurveStore) InsertBulk(ctx context.Context, reportID string, points []domain.EquityPoint) (err error) {
	if reportID == "" {
		return storage.ErrInvalidInput
	}
	if len(points) == 0 {
		return nil
	}

	start := time.Now()
	defer func() {
		observability.RecordDBQuery("clickhouse", "equity_insert", time.Since(start).Seconds(), err)
	}()

	// MergeTree does not enforce uniqueness.
	exists, err := s.exists(ctx, reportID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO equity_curves (
			report_id, point_index, time_ms, equity, peak, drawdown_abs, drawdown_pct
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i, p := range points {
		err = batch.Append(
			reportID, uint32(i), p.Time.UnixMilli(),
			p.Equity, p.Peak, p.DrawdownAbs, p.DrawdownPct,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByReportID retrieves a curve ordered by point index.
func (s *EquityCurveStore) GetByReportID(ctx context.Context, reportID string) (points []domain.EquityPoint, err error) {
	start := time.Now()
	defer func() {
		observability.RecordDBQuery("clickhouse", "equity_get", time.Since(start).Seconds(), err)
	}()

	query := `
		SELECT time_ms, equity, peak, drawdown_abs, drawdown_pct
		FROM equity_curves
		WHERE report_id = ?
		ORDER BY point_index ASC
	`

	rows, err := s.conn.Query(ctx, query, reportID)
	if err != nil {
		return nil, fmt.Errorf("query by report id: %w", err)
	}
	defer rows.Close()

	return scanEquityPoints(rows)
}

// exists checks if any point is stored for the report.
func (s *EquityCurveStore) exists(ctx context.Context, reportID string) (bool, error) {
	query := `SELECT count(*) FROM equity_curves WHERE report_id = ?`

	var count uint64
	err := s.conn.QueryRow(ctx, query, reportID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func scanEquityPoints(rows chRows) ([]domain.EquityPoint, error) {
	points := []domain.EquityPoint{}

	for rows.Next() {
		var p domain.EquityPoint
		var timeMs int64

		err := rows.Scan(&timeMs, &p.Equity, &p.Peak, &p.DrawdownAbs, &p.DrawdownPct)
		if err != nil {
			return nil, fmt.Errorf("scan equity point: %w", err)
		}
		p.Time = time.UnixMilli(timeMs).UTC()
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate equity points: %w", err)
	}

	return points, nil
}
