package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	"trade-report-lab/internal/domain"
	"trade-report-lab/internal/reporting"
	"trade-report-lab/internal/storage"
	"trade-report-lab/internal/storage/memory"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func sampleReport() *reporting.Report {
	return &reporting.Report{
		ReportID:    "r1",
		GeneratedAt: t0,
		InputHash:   "abc",
		Platform:    domain.PlatformMT5,
		Equity: domain.EquityCurve{
			InitialBalance: 1000,
			FinalEquity:    1050,
			Points: []domain.EquityPoint{
				{Time: t0, Equity: 1000, Peak: 1000},
				{Time: t0.Add(time.Hour), Equity: 1050, Peak: 1050},
			},
		},
		Metrics: domain.MetricsResult{
			TotalTrades:    1,
			InitialEquity:  1000,
			FinalEquity:    1050,
			TotalNetProfit: 50,
			WinRate:        100,
		},
	}
}

func TestCompareSummaries_ExactMatch(t *testing.T) {
	s := sampleReport().Summary()
	if d := CompareSummaries(s, s); len(d) != 0 {
		t.Errorf("expected no divergences, got %v", d)
	}
}

func TestCompareSummaries_IgnoresIdentity(t *testing.T) {
	stored := sampleReport().Summary()
	replayed := stored
	replayed.ReportID = "other"
	replayed.CreatedAt = t0.Add(time.Hour)
	replayed.SourceName = "renamed.csv"

	if d := CompareSummaries(stored, replayed); len(d) != 0 {
		t.Errorf("identity fields should not diverge, got %v", d)
	}
}

func TestCompareSummaries_WithinTolerance(t *testing.T) {
	stored := sampleReport().Summary()
	replayed := stored
	replayed.FinalEquity += FloatTolerance / 2

	if d := CompareSummaries(stored, replayed); len(d) != 0 {
		t.Errorf("expected match within tolerance, got %v", d)
	}
}

func TestCompareSummaries_Divergence(t *testing.T) {
	stored := sampleReport().Summary()
	replayed := stored
	replayed.InputHash = "def"
	replayed.TotalNetProfit = 49

	d := CompareSummaries(stored, replayed)
	if len(d) != 2 {
		t.Fatalf("expected 2 divergences, got %v", d)
	}
	if d[0].Field != "InputHash" || d[1].Field != "TotalNetProfit" {
		t.Errorf("unexpected fields: %v", d)
	}
	if d[1].Expected != 50.0 || d[1].Actual != 49.0 {
		t.Errorf("unexpected values: %+v", d[1])
	}
}

func TestCompareCurves(t *testing.T) {
	points := sampleReport().Equity.Points

	if d := CompareCurves(points, points); len(d) != 0 {
		t.Errorf("expected match, got %v", d)
	}

	if d := CompareCurves(points, points[:1]); len(d) != 1 || d[0].Field != "EquityPoints" {
		t.Errorf("expected length divergence, got %v", d)
	}

	changed := append([]domain.EquityPoint(nil), points...)
	changed[1].Equity = 1051
	if d := CompareCurves(points, changed); len(d) != 1 || d[0].Field != "EquityPoints[1].Equity" {
		t.Errorf("expected equity divergence, got %v", d)
	}
}

func TestVerifier_Verify(t *testing.T) {
	ctx := context.Background()
	reports := memory.NewReportStore()
	curves := memory.NewEquityCurveStore()

	original := sampleReport()
	summary := original.Summary()
	if err := reports.Insert(ctx, &summary); err != nil {
		t.Fatal(err)
	}
	if err := curves.InsertBulk(ctx, "r1", original.Equity.Points); err != nil {
		t.Fatal(err)
	}

	v := NewVerifier(reports, curves)

	replayed := sampleReport()
	replayed.ReportID = "r2"
	result, err := v.Verify(ctx, "r1", replayed)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !result.Match || result.PointsFound != 2 {
		t.Errorf("expected match with 2 points, got %+v", result)
	}

	replayed.Equity.Points[1].Equity = 900
	result, err = v.Verify(ctx, "r1", replayed)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if result.Match {
		t.Error("expected curve divergence")
	}

	if _, err := v.Verify(ctx, "missing", replayed); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
