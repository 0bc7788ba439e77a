package reporting

import (
	"time"

	"trade-report-lab/internal/domain"
)

// Report is the complete analysis of one trade log.
type Report struct {
	// Metadata
	ReportID    string
	GeneratedAt time.Time
	SourceName  string
	InputHash   string
	Platform    domain.Platform

	// Data Summary
	DataSummary DataSummary

	// Data Quality (sufficiency checks)
	DataQuality DataQualitySection

	// Parsed input, chronological
	Trades []domain.Trade

	// Analytics
	Equity        domain.EquityCurve
	Metrics       domain.MetricsResult
	Correlations  []domain.CorrelationPair
	Distributions map[domain.Dimension][]domain.DistributionBin
	Simulation    *domain.SimulationResult // nil when skipped (no returns)

	// Header key/value pairs found in the export ("Initial Deposit", "Account", ...)
	SourceSummary map[string]string
}

// DataQualitySection contains data sufficiency checks and integrity errors.
type DataQualitySection struct {
	SufficiencyChecks []SufficiencyCheckRow
	IntegrityErrors   []string
	AllChecksPassed   bool
}

// SufficiencyCheckRow represents one sufficiency criterion.
type SufficiencyCheckRow struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// DataSummary describes the parsed input.
type DataSummary struct {
	TotalRows      int // trades kept after parsing
	ClosedTrades   int
	OpeningLegs    int
	BalanceRows    int
	RowsSkipped    int
	Symbols        []string
	DateRangeStart time.Time
	DateRangeEnd   time.Time
}

// Summary is the archived view of the report.
func (r *Report) Summary() domain.ReportSummary {
	return domain.ReportSummary{
		ReportID:       r.ReportID,
		CreatedAt:      r.GeneratedAt,
		SourceName:     r.SourceName,
		InputHash:      r.InputHash,
		Platform:       r.Platform,
		TotalTrades:    r.Metrics.TotalTrades,
		InitialEquity:  r.Metrics.InitialEquity,
		FinalEquity:    r.Metrics.FinalEquity,
		TotalNetProfit: r.Metrics.TotalNetProfit,
		ProfitFactor:   r.Metrics.ProfitFactor,
		WinRate:        r.Metrics.WinRate,
		MaxDrawdownAbs: r.Metrics.MaxDrawdownAbs,
		MaxDrawdownPct: r.Metrics.MaxDrawdownPct,
		Sharpe:         r.Metrics.Sharpe,
		Sortino:        r.Metrics.Sortino,
		Calmar:         r.Metrics.Calmar,
	}
}
