package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"trade-report-lab/internal/domain"
)

// TradeTimeLayout is the MetaTrader timestamp format used in trade exports.
const TradeTimeLayout = "2006.01.02 15:04:05"

// tradeHeader follows the MetaTrader 5 "Deals" column order so exports
// re-parse with the MT5 layout. The close columns carry round-trip rows.
var tradeHeader = []string{
	"Time", "Deal", "Symbol", "Type", "Direction", "Volume", "Price",
	"Order", "Commission", "Swap", "Profit", "Balance", "Comment",
	"Close Time", "Close Price",
}

// WriteTradesCSV writes normalized trades in MT5 deal layout.
// Closing legs are written as the deal that closes their position, so a
// re-parse recovers the position side. Round-trip rows keep their entry
// time and price in Time/Price and their exit in the close columns.
func WriteTradesCSV(w io.Writer, trades []domain.Trade) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(tradeHeader); err != nil {
		return err
	}

	for _, t := range trades {
		if err := cw.Write(tradeRow(t)); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// isRoundTrip reports whether t closes a position opened on the same row.
// Such rows start at their own entry. Deal legs never carry a close time of
// their own and trade against their position, so their side differs from it.
func isRoundTrip(t domain.Trade) bool {
	if t.Kind != domain.KindTrade || t.State != domain.StateOut {
		return false
	}
	if t.PositionOpenTime.IsZero() || !t.PositionOpenTime.Equal(t.OpenTime) {
		return false
	}
	return t.Side == t.PositionSide || !t.CloseTime.Equal(t.OpenTime)
}

func tradeRow(t domain.Trade) []string {
	typ, direction, price := "balance", "", ""
	closeTime, closePrice := "", ""
	switch {
	case isRoundTrip(t):
		typ = sideLabel(t.Side)
		if t.Side != t.PositionSide {
			direction = string(domain.StateOut)
		}
		price = nullString(t.PriceOpen)
		closeTime = t.CloseTime.Format(TradeTimeLayout)
		closePrice = nullString(t.PriceClose)
	case t.Kind == domain.KindTrade:
		typ = sideLabel(t.Side)
		direction = string(t.State)
		if t.State == domain.StateOut && t.PositionSide != "" {
			typ = sideLabel(opposite(t.PositionSide))
		}
		switch {
		case t.State == domain.StateOut && t.PriceClose.Valid:
			price = t.PriceClose.Decimal.String()
		case t.PriceOpen.Valid:
			price = t.PriceOpen.Decimal.String()
		}
	}

	return []string{
		t.OpenTime.Format(TradeTimeLayout),
		t.DealID,
		t.Symbol,
		typ,
		direction,
		t.Volume.String(),
		price,
		t.OrderID,
		t.Commission.String(),
		t.Swap.String(),
		nullString(t.Profit),
		nullString(t.Balance),
		t.Comment,
		closeTime,
		closePrice,
	}
}

func nullString(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func sideLabel(s domain.Side) string {
	if s == domain.SideShort {
		return "sell"
	}
	return "buy"
}

func opposite(s domain.Side) domain.Side {
	if s == domain.SideLong {
		return domain.SideShort
	}
	return domain.SideLong
}

// WriteEquityCSV writes the equity curve, one row per point.
func WriteEquityCSV(w io.Writer, curve domain.EquityCurve) error {
	cw := csv.NewWriter(w)

	header := []string{"index", "time", "equity", "peak", "drawdown_abs", "drawdown_pct"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, p := range curve.Points {
		row := []string{
			strconv.Itoa(i),
			fmtTime(p.Time),
			fmtFloat(p.Equity),
			fmtFloat(p.Peak),
			fmtFloat(p.DrawdownAbs),
			fmtFloat(p.DrawdownPct),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// RenderMetricsCSV renders the metrics as metric,value rows.
func RenderMetricsCSV(m domain.MetricsResult) string {
	var sb strings.Builder

	sb.WriteString("metric,value\n")
	for _, row := range metricRows(m) {
		sb.WriteString(fmt.Sprintf("%s,%s\n", row.key, row.value))
	}

	return sb.String()
}

// MetricValues returns the formatted metrics keyed like metrics.csv.
func MetricValues(m domain.MetricsResult) map[string]string {
	rows := metricRows(m)
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.key] = row.value
	}
	return out
}

type metricRow struct {
	label string // human readable
	key   string // snake_case
	value string
}

func metricRows(m domain.MetricsResult) []metricRow {
	return []metricRow{
		{"Total Trades", "total_trades", strconv.Itoa(m.TotalTrades)},
		{"Wins", "wins", strconv.Itoa(m.Wins)},
		{"Losses", "losses", strconv.Itoa(m.Losses)},
		{"Breakeven", "breakeven", strconv.Itoa(m.Breakeven)},
		{"Win Rate %", "win_rate", fmtFloat(m.WinRate)},
		{"Long Trades", "long_trades", strconv.Itoa(m.LongTrades)},
		{"Long Win Rate %", "long_win_rate", fmtFloat(m.LongWinRate)},
		{"Short Trades", "short_trades", strconv.Itoa(m.ShortTrades)},
		{"Short Win Rate %", "short_win_rate", fmtFloat(m.ShortWinRate)},
		{"Gross Profit", "gross_profit", fmtFloat(m.GrossProfit)},
		{"Gross Loss", "gross_loss", fmtFloat(m.GrossLoss)},
		{"Total Net Profit", "total_net_profit", fmtFloat(m.TotalNetProfit)},
		{"Profit Factor", "profit_factor", fmtFloat(m.ProfitFactor)},
		{"Expectancy", "expectancy", fmtFloat(m.Expectancy)},
		{"Average Win", "average_win", fmtFloat(m.AverageWin)},
		{"Average Loss", "average_loss", fmtFloat(m.AverageLoss)},
		{"Largest Win", "largest_win", fmtFloat(m.LargestWin)},
		{"Largest Loss", "largest_loss", fmtFloat(m.LargestLoss)},
		{"Payoff Ratio", "payoff_ratio", fmtFloat(m.PayoffRatio)},
		{"Total Commission", "total_commission", fmtFloat(m.TotalCommission)},
		{"Total Swap", "total_swap", fmtFloat(m.TotalSwap)},
		{"Balance Adjustments", "balance_adjustments", strconv.Itoa(m.BalanceAdjustments)},
		{"Net Balance Adjustments", "net_balance_adjustments", fmtFloat(m.NetBalanceAdjustments)},
		{"Initial Equity", "initial_equity", fmtFloat(m.InitialEquity)},
		{"Final Equity", "final_equity", fmtFloat(m.FinalEquity)},
		{"Return %", "return_pct", fmtFloat(m.ReturnPct)},
		{"Max Drawdown", "max_drawdown_abs", fmtFloat(m.MaxDrawdownAbs)},
		{"Max Drawdown %", "max_drawdown_pct", fmtFloat(m.MaxDrawdownPct)},
		{"Recovery Factor", "recovery_factor", fmtFloat(m.RecoveryFactor)},
		{"Max Consecutive Wins", "max_consecutive_wins", strconv.Itoa(m.MaxConsecutiveWins)},
		{"Max Consecutive Wins Amount", "max_consecutive_wins_amount", fmtFloat(m.MaxConsecutiveWinsAmount)},
		{"Max Consecutive Losses", "max_consecutive_losses", strconv.Itoa(m.MaxConsecutiveLosses)},
		{"Max Consecutive Losses Amount", "max_consecutive_losses_amount", fmtFloat(m.MaxConsecutiveLossesAmount)},
		{"Mean Return %", "return_mean", fmtFloat(m.ReturnMean)},
		{"Median Return %", "return_median", fmtFloat(m.ReturnMedian)},
		{"Return Stddev %", "return_stddev", fmtFloat(m.ReturnStddev)},
		{"Return Skewness", "return_skewness", fmtFloat(m.ReturnSkewness)},
		{"Return Excess Kurtosis", "return_kurtosis", fmtFloat(m.ReturnKurtosis)},
		{"Tail Ratio", "tail_ratio", fmtFloat(m.TailRatio)},
		{"Sharpe", "sharpe", fmtFloat(m.Sharpe)},
		{"Sortino", "sortino", fmtFloat(m.Sortino)},
		{"Calmar", "calmar", fmtFloat(m.Calmar)},
		{"Average Holding", "average_holding_seconds", strconv.FormatFloat(m.AverageHolding.Seconds(), 'f', 0, 64)},
		{"First Trade", "first_trade", fmtTime(m.FirstTrade)},
		{"Last Trade", "last_trade", fmtTime(m.LastTrade)},
		{"Unparsed Timestamps", "unparsed_timestamps", strconv.Itoa(m.UnparsedTimestamps)},
	}
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
