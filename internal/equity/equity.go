// Package equity reconstructs the account balance curve from a trade log.
package equity

import (
	"github.com/shopspring/decimal"

	"trade-report-lab/internal/domain"
)

// Options controls curve reconstruction.
type Options struct {
	// InitialBalance overrides inference from the first balance snapshot.
	InitialBalance decimal.NullDecimal
}

// Build walks trades in order and emits one point per trade.
// A reported Balance snapshot overrides the running sum; otherwise closed
// trades and balance adjustments add their profit. Opening legs repeat the
// previous equity. Trades must be sorted by OpenTime.
func Build(trades []domain.Trade, opts Options) domain.EquityCurve {
	initial := opts.InitialBalance
	if !initial.Valid {
		initial = InferInitialBalance(trades)
	}

	curve := domain.EquityCurve{
		InitialBalance:   initial.Decimal.InexactFloat64(),
		FinalEquity:      initial.Decimal.InexactFloat64(),
		MaxDrawdownStart: -1,
		MaxDrawdownEnd:   -1,
	}
	if len(trades) == 0 {
		return curve
	}

	curve.Points = make([]domain.EquityPoint, 0, len(trades))

	equity := initial.Decimal
	peak := equity
	// A drawdown from the initial balance starts at point 0.
	peakIdx := 0

	for i, t := range trades {
		switch {
		case t.Balance.Valid:
			equity = t.Balance.Decimal
		case (t.IsClosed() || t.IsBalanceAdjustment()) && t.Profit.Valid:
			equity = equity.Add(t.Profit.Decimal)
		}

		if equity.GreaterThan(peak) {
			peak = equity
			peakIdx = i
		}

		ddAbs := peak.Sub(equity)
		ddPct := 0.0
		if peak.IsPositive() {
			ddPct = ddAbs.Div(peak).InexactFloat64() * 100
		}

		p := domain.EquityPoint{
			Time:        t.OpenTime,
			Equity:      equity.InexactFloat64(),
			Peak:        peak.InexactFloat64(),
			DrawdownAbs: ddAbs.InexactFloat64(),
			DrawdownPct: ddPct,
		}
		curve.Points = append(curve.Points, p)

		if p.DrawdownAbs > curve.MaxDrawdownAbs {
			curve.MaxDrawdownAbs = p.DrawdownAbs
			curve.MaxDrawdownPct = p.DrawdownPct
			curve.MaxDrawdownStart = peakIdx
			curve.MaxDrawdownEnd = i
		}
	}

	curve.FinalEquity = equity.InexactFloat64()
	return curve
}

// InferInitialBalance derives the starting balance from the first trade that
// reports one. Balance rows and opening legs contribute their snapshot;
// closing trades the snapshot minus their profit.
// Returns a valid zero when no trade carries a balance.
func InferInitialBalance(trades []domain.Trade) decimal.NullDecimal {
	for _, t := range trades {
		if !t.Balance.Valid {
			continue
		}
		if t.IsClosed() {
			return decimal.NewNullDecimal(t.Balance.Decimal.Sub(t.Profit.Decimal))
		}
		return t.Balance
	}
	return decimal.NewNullDecimal(decimal.Zero)
}

// Returns computes per-closed-trade returns in percent of the equity before
// the trade. Trades taken while equity was not positive are skipped.
func Returns(trades []domain.Trade, curve domain.EquityCurve) []float64 {
	if len(trades) != len(curve.Points) {
		return nil
	}

	var returns []float64
	before := curve.InitialBalance
	for i, t := range trades {
		if t.IsClosed() && before > 0 {
			returns = append(returns, t.ProfitFloat()/before*100)
		}
		before = curve.Points[i].Equity
	}
	return returns
}
