package domain

import "time"

// ReportSummary is the archived, derived view of one analysis run.
// It never contains the parsed trade rows themselves.
type ReportSummary struct {
	ReportID    string
	CreatedAt   time.Time
	SourceName  string
	InputHash   string
	Platform    Platform
	TotalTrades int

	InitialEquity  float64
	FinalEquity    float64
	TotalNetProfit float64
	ProfitFactor   float64
	WinRate        float64
	MaxDrawdownAbs float64
	MaxDrawdownPct float64
	Sharpe         float64
	Sortino        float64
	Calmar         float64
}
