// Package verification checks that a stored report is reproduced by
// re-analyzing its source export.
package verification

import (
	"context"
	"fmt"
	"math"

	"trade-report-lab/internal/domain"
	"trade-report-lab/internal/reporting"
	"trade-report-lab/internal/storage"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-7

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string `json:"field"`
	Expected any    `json:"expected"` // stored value
	Actual   any    `json:"actual"`   // replayed value
}

// Result is the outcome of verifying one report.
type Result struct {
	ReportID    string            `json:"report_id"`
	Match       bool              `json:"match"`
	Divergences []FieldDivergence `json:"divergences"`
	PointsFound int               `json:"equity_points_stored"`
}

// Verifier compares stored reports with freshly generated ones.
type Verifier struct {
	reports storage.ReportStore
	curves  storage.EquityCurveStore // optional
}

// NewVerifier creates a verifier. curves may be nil to skip the curve check.
func NewVerifier(reports storage.ReportStore, curves storage.EquityCurveStore) *Verifier {
	return &Verifier{reports: reports, curves: curves}
}

// Verify loads reportID and compares it with replayed, which must come from
// the same export analyzed without persistence.
func (v *Verifier) Verify(ctx context.Context, reportID string, replayed *reporting.Report) (*Result, error) {
	stored, err := v.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("load report %s: %w", reportID, err)
	}

	result := &Result{ReportID: reportID}
	result.Divergences = CompareSummaries(*stored, replayed.Summary())

	if v.curves != nil {
		points, err := v.curves.GetByReportID(ctx, reportID)
		if err != nil {
			return nil, fmt.Errorf("load equity curve %s: %w", reportID, err)
		}
		result.PointsFound = len(points)
		result.Divergences = append(result.Divergences, CompareCurves(points, replayed.Equity.Points)...)
	}

	result.Match = len(result.Divergences) == 0
	return result, nil
}

// CompareSummaries compares the derived fields of two summaries. Identity
// fields (ID, creation time, source name) are not compared.
func CompareSummaries(stored, replayed domain.ReportSummary) []FieldDivergence {
	var divergences []FieldDivergence

	// InputHash must match exactly
	if stored.InputHash != replayed.InputHash {
		divergences = append(divergences, FieldDivergence{
			Field:    "InputHash",
			Expected: stored.InputHash,
			Actual:   replayed.InputHash,
		})
	}

	if stored.Platform != replayed.Platform {
		divergences = append(divergences, FieldDivergence{
			Field:    "Platform",
			Expected: stored.Platform,
			Actual:   replayed.Platform,
		})
	}

	if stored.TotalTrades != replayed.TotalTrades {
		divergences = append(divergences, FieldDivergence{
			Field:    "TotalTrades",
			Expected: stored.TotalTrades,
			Actual:   replayed.TotalTrades,
		})
	}

	floats := []struct {
		field            string
		stored, replayed float64
	}{
		{"InitialEquity", stored.InitialEquity, replayed.InitialEquity},
		{"FinalEquity", stored.FinalEquity, replayed.FinalEquity},
		{"TotalNetProfit", stored.TotalNetProfit, replayed.TotalNetProfit},
		{"ProfitFactor", stored.ProfitFactor, replayed.ProfitFactor},
		{"WinRate", stored.WinRate, replayed.WinRate},
		{"MaxDrawdownAbs", stored.MaxDrawdownAbs, replayed.MaxDrawdownAbs},
		{"MaxDrawdownPct", stored.MaxDrawdownPct, replayed.MaxDrawdownPct},
		{"Sharpe", stored.Sharpe, replayed.Sharpe},
		{"Sortino", stored.Sortino, replayed.Sortino},
		{"Calmar", stored.Calmar, replayed.Calmar},
	}
	for _, f := range floats {
		if !floatEquals(f.stored, f.replayed) {
			divergences = append(divergences, FieldDivergence{
				Field:    f.field,
				Expected: f.stored,
				Actual:   f.replayed,
			})
		}
	}

	return divergences
}

// CompareCurves reports a length mismatch, or the first point whose equity
// or drawdown differs.
func CompareCurves(stored, replayed []domain.EquityPoint) []FieldDivergence {
	if len(stored) != len(replayed) {
		return []FieldDivergence{{Field: "EquityPoints", Expected: len(stored), Actual: len(replayed)}}
	}
	for i := range stored {
		s, r := stored[i], replayed[i]
		if !s.Time.Equal(r.Time) {
			return []FieldDivergence{{Field: fmt.Sprintf("EquityPoints[%d].Time", i), Expected: s.Time, Actual: r.Time}}
		}
		if !floatEquals(s.Equity, r.Equity) {
			return []FieldDivergence{{Field: fmt.Sprintf("EquityPoints[%d].Equity", i), Expected: s.Equity, Actual: r.Equity}}
		}
		if !floatEquals(s.DrawdownPct, r.DrawdownPct) {
			return []FieldDivergence{{Field: fmt.Sprintf("EquityPoints[%d].DrawdownPct", i), Expected: s.DrawdownPct, Actual: r.DrawdownPct}}
		}
	}
	return nil
}

// floatEquals compares two float64 values within FloatTolerance.
// Equal infinities match.
func floatEquals(a, b float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= FloatTolerance
}
