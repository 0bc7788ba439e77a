package domain

import "time"

// EquityPoint is the account state after one trade.
//
// DrawdownPct is a percentage in [0, 100], not the fraction DrawdownAbs/Peak:
// a 50 drop from a 10000 peak is 0.5, not 0.005. It is 0 when Peak <= 0.
type EquityPoint struct {
	Time        time.Time
	Equity      float64
	Peak        float64 // running maximum equity, never decreases
	DrawdownAbs float64 // Peak - Equity
	DrawdownPct float64 // DrawdownAbs / Peak * 100
}

// EquityCurve is the reconstructed running balance, one point per trade.
type EquityCurve struct {
	Points         []EquityPoint
	InitialBalance float64
	FinalEquity    float64

	MaxDrawdownAbs float64
	MaxDrawdownPct float64 // DrawdownPct (percent) at the max absolute drawdown point

	// Index range of the deepest drawdown episode: the last new peak before
	// the trough, and the trough itself. Both -1 when equity never fell.
	MaxDrawdownStart int
	MaxDrawdownEnd   int
}
