// Package metrics computes performance and risk statistics for a trade log.
package metrics

import (
	"time"

	"trade-report-lab/internal/domain"
	"trade-report-lab/internal/equity"
)

// Compute derives the full statistics set from trades and their equity curve.
// Only closing trades count toward trade statistics; balance adjustments are
// tallied separately. Trades must be in chronological order and curve must
// have been built from the same slice.
func Compute(trades []domain.Trade, curve domain.EquityCurve) domain.MetricsResult {
	m := domain.MetricsResult{
		InitialEquity:  curve.InitialBalance,
		FinalEquity:    curve.FinalEquity,
		MaxDrawdownAbs: curve.MaxDrawdownAbs,
		MaxDrawdownPct: curve.MaxDrawdownPct,
		ReturnPct:      zeroGuardedRatio(curve.FinalEquity-curve.InitialBalance, curve.InitialBalance) * 100,
	}
	if curve.InitialBalance < 0 {
		m.ReturnPct = 0
	}

	for _, t := range trades {
		if t.TimeUnparsed {
			m.UnparsedTimestamps++
		}
		if t.IsBalanceAdjustment() {
			m.BalanceAdjustments++
			m.NetBalanceAdjustments += t.ProfitFloat()
		}
		if t.Kind == domain.KindTrade {
			m.TotalCommission += t.Commission.InexactFloat64()
			m.TotalSwap += t.Swap.InexactFloat64()
		}
	}

	closed := domain.ClosedTrades(trades)
	n := len(closed)
	m.TotalTrades = n
	if n == 0 {
		return m
	}

	var (
		longWins, shortWins int
		holding             time.Duration
	)
	for _, t := range closed {
		p := t.ProfitFloat()
		switch {
		case p > 0:
			m.Wins++
			m.GrossProfit += p
			if p > m.LargestWin {
				m.LargestWin = p
			}
		case p < 0:
			m.Losses++
			m.GrossLoss += -p
			if -p > m.LargestLoss {
				m.LargestLoss = -p
			}
		default:
			m.Breakeven++
		}

		switch t.PositionSide {
		case domain.SideLong:
			m.LongTrades++
			if p > 0 {
				longWins++
			}
		case domain.SideShort:
			m.ShortTrades++
			if p > 0 {
				shortWins++
			}
		}
		holding += t.Duration()
	}

	m.TotalNetProfit = m.GrossProfit - m.GrossLoss
	m.ProfitFactor = guardedRatio(m.GrossProfit, m.GrossLoss)
	m.WinRate = computeWinRate(m.Wins, n)
	m.LongWinRate = computeWinRate(longWins, m.LongTrades)
	m.ShortWinRate = computeWinRate(shortWins, m.ShortTrades)
	m.Expectancy = m.TotalNetProfit / float64(n)
	m.AverageWin = zeroGuardedRatio(m.GrossProfit, float64(m.Wins))
	m.AverageLoss = zeroGuardedRatio(m.GrossLoss, float64(m.Losses))
	m.PayoffRatio = guardedRatio(m.AverageWin, m.AverageLoss)
	m.RecoveryFactor = zeroGuardedRatio(m.TotalNetProfit, curve.MaxDrawdownAbs)
	m.Calmar = zeroGuardedRatio(m.TotalNetProfit, curve.MaxDrawdownAbs)
	m.AverageHolding = holding / time.Duration(n)
	m.FirstTrade = closed[0].CloseTime
	m.LastTrade = closed[n-1].CloseTime

	s := computeStreaks(closed)
	m.MaxConsecutiveWins = s.maxWins
	m.MaxConsecutiveWinsAmount = s.maxWinsAmount
	m.MaxConsecutiveLosses = s.maxLosses
	m.MaxConsecutiveLossesAmount = s.maxLossesAmount

	returns := equity.Returns(trades, curve)
	if len(returns) > 0 {
		sorted := sortedCopy(returns)
		mean := Mean(returns)
		stddev := Stddev(returns, mean)

		m.ReturnMean = mean
		m.ReturnMedian = Percentile(sorted, 0.50)
		m.ReturnStddev = stddev
		m.ReturnSkewness = computeSkewness(returns, mean)
		m.ReturnKurtosis = computeKurtosis(returns, mean)
		m.TailRatio = computeTailRatio(sorted)
		m.Sharpe = guardedRatio(mean, stddev)
		m.Sortino = guardedRatio(mean, computeDownsideDeviation(returns))
	} else {
		m.TailRatio = 1
	}

	return m
}
