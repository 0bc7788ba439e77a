package domain

import "time"

// MetricsResult is the flat set of performance/risk statistics for one trade log.
// Percent fields are in 0..100 units.
type MetricsResult struct {
	// Counts
	TotalTrades        int // closed market trades
	Wins               int
	Losses             int
	Breakeven          int
	LongTrades         int
	ShortTrades        int
	BalanceAdjustments int
	UnparsedTimestamps int

	// Profit
	GrossProfit           float64
	GrossLoss             float64 // absolute value
	TotalNetProfit        float64
	ProfitFactor          float64
	Expectancy            float64
	AverageWin            float64
	AverageLoss           float64 // absolute value
	LargestWin            float64
	LargestLoss           float64 // absolute value
	PayoffRatio           float64 // AverageWin / AverageLoss
	TotalCommission       float64
	TotalSwap             float64
	NetBalanceAdjustments float64

	// Rates
	WinRate      float64
	LongWinRate  float64
	ShortWinRate float64

	// Equity
	InitialEquity  float64
	FinalEquity    float64
	ReturnPct      float64
	MaxDrawdownAbs float64
	MaxDrawdownPct float64
	RecoveryFactor float64

	// Streaks
	MaxConsecutiveWins         int
	MaxConsecutiveWinsAmount   float64
	MaxConsecutiveLosses       int
	MaxConsecutiveLossesAmount float64 // absolute value

	// Per-trade return distribution (equity-relative %)
	ReturnMean     float64
	ReturnMedian   float64
	ReturnStddev   float64
	ReturnSkewness float64
	ReturnKurtosis float64 // excess
	TailRatio      float64

	// Risk-adjusted
	Sharpe  float64
	Sortino float64
	Calmar  float64

	// Timing
	AverageHolding time.Duration
	FirstTrade     time.Time
	LastTrade      time.Time
}
