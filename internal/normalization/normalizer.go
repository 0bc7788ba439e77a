package normalization

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"trade-report-lab/internal/domain"
)

// ErrUnmappableRow is returned when a row carries neither a recognizable
// trade type nor a balance movement.
var ErrUnmappableRow = errors.New("row cannot be mapped to a trade")

// RawTrade holds the cell strings of one source row, already located by
// column role. Empty strings mean the column is absent.
type RawTrade struct {
	Row        int
	Time       string
	CloseTime  string
	Deal       string
	Order      string
	Symbol     string
	Type       string
	Direction  string
	Volume     string
	Price      string
	ClosePrice string
	StopLoss   string
	TakeProfit string
	Commission string
	Swap       string
	Profit     string
	Balance    string
	Comment    string
}

var balanceTypes = map[string]bool{
	"balance":    true,
	"credit":     true,
	"deposit":    true,
	"withdrawal": true,
	"correction": true,
	"bonus":      true,
}

// Normalizer converts RawTrade rows into domain trades.
// It is stateful across the rows of one file: unparseable timestamps inherit
// the previous valid one and balance deltas need the previous snapshot.
// Not safe for concurrent use.
type Normalizer struct {
	lastTime    time.Time
	lastBalance decimal.NullDecimal
}

// NewNormalizer creates a normalizer for one file. Use a new one per file.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize maps one row. The returned warnings describe recoverable
// problems (bad timestamp, bad number); the error is set only when the row
// is not a trade at all.
func (n *Normalizer) Normalize(raw RawTrade) (domain.Trade, []string, error) {
	var warnings []string

	typ := strings.ToLower(strings.TrimSpace(raw.Type))
	symbol := strings.TrimSpace(raw.Symbol)

	t := domain.Trade{
		Row:     raw.Row,
		DealID:  strings.TrimSpace(raw.Deal),
		OrderID: strings.TrimSpace(raw.Order),
		Symbol:  symbol,
		Type:    strings.TrimSpace(raw.Type),
		Comment: strings.TrimSpace(raw.Comment),
	}

	// Timestamps
	if ts, ok := ParseTimestamp(raw.Time); ok {
		t.OpenTime = ts
		n.lastTime = ts
	} else {
		t.OpenTime = n.lastTime
		t.TimeUnparsed = true
		warnings = append(warnings, fmt.Sprintf("unparseable time %q", raw.Time))
	}
	t.CloseTime = t.OpenTime
	if strings.TrimSpace(raw.CloseTime) != "" {
		if ts, ok := ParseTimestamp(raw.CloseTime); ok {
			t.CloseTime = ts
			// Round-trip rows (open and close on one line) know their own entry.
			t.PositionOpenTime = t.OpenTime
		} else {
			warnings = append(warnings, fmt.Sprintf("unparseable close time %q", raw.CloseTime))
		}
	}

	// Money
	t.Volume = n.number(raw.Volume, "volume", &warnings).Decimal
	t.Commission = n.number(raw.Commission, "commission", &warnings).Decimal
	t.Swap = n.number(raw.Swap, "swap", &warnings).Decimal
	t.Balance = n.number(raw.Balance, "balance", &warnings)
	profit := n.number(raw.Profit, "profit", &warnings)

	if balanceTypes[typ] || (symbol == "" && sideOf(typ) == "") {
		if typ == "" && !profit.Valid && !t.Balance.Valid {
			return domain.Trade{}, warnings, ErrUnmappableRow
		}
		t.Kind = domain.KindBalance
		t.Profit = n.balanceAmount(profit, t.Balance)
		if !t.Profit.Valid {
			return domain.Trade{}, warnings, fmt.Errorf("%w: balance row without amount", ErrUnmappableRow)
		}
		if t.Balance.Valid {
			n.lastBalance = t.Balance
		}
		return t, warnings, nil
	}

	side := sideOf(typ)
	if side == "" && typ == "" && profit.Valid {
		// Untyped journal rows with a result are long round trips.
		side = domain.SideLong
	}
	if side == "" {
		return domain.Trade{}, warnings, fmt.Errorf("%w: unknown type %q", ErrUnmappableRow, raw.Type)
	}
	t.Kind = domain.KindTrade
	t.Side = side
	t.State = n.stateOf(typ, raw, profit)

	// Entry/exit verbs name the position side directly; deal directions
	// imply a closing leg trades against its position.
	switch {
	case strings.Contains(typ, "long"):
		t.PositionSide = domain.SideLong
	case strings.Contains(typ, "short"):
		t.PositionSide = domain.SideShort
	case t.State == domain.StateOut && strings.TrimSpace(raw.Direction) != "":
		t.PositionSide = opposite(side)
	default:
		t.PositionSide = side
	}

	price := n.number(raw.Price, "price", &warnings)
	closePrice := n.number(raw.ClosePrice, "close price", &warnings)
	switch {
	case closePrice.Valid:
		t.PriceOpen = price
		t.PriceClose = closePrice
	case t.State == domain.StateOut:
		t.PriceClose = price
	default:
		t.PriceOpen = price
	}

	if t.State == domain.StateOut {
		if profit.Valid {
			t.Profit = profit
		} else {
			t.Profit = decimal.NewNullDecimal(decimal.Zero)
			warnings = append(warnings, "closing trade without profit, assumed 0")
		}
	}

	t.StopLoss = ParseNullNumber(raw.StopLoss)
	t.TakeProfit = ParseNullNumber(raw.TakeProfit)
	if !t.StopLoss.Valid || !t.TakeProfit.Valid {
		sl, tp := ExtractStops(t.Comment)
		if !t.StopLoss.Valid {
			t.StopLoss = sl
		}
		if !t.TakeProfit.Valid {
			t.TakeProfit = tp
		}
	}
	// MT4 writes 0.00000 for "no stop".
	if t.StopLoss.Valid && t.StopLoss.Decimal.IsZero() {
		t.StopLoss = decimal.NullDecimal{}
	}
	if t.TakeProfit.Valid && t.TakeProfit.Decimal.IsZero() {
		t.TakeProfit = decimal.NullDecimal{}
	}

	if t.Balance.Valid {
		n.lastBalance = t.Balance
	}
	return t, warnings, nil
}

func (n *Normalizer) number(cell, name string, warnings *[]string) decimal.NullDecimal {
	if strings.TrimSpace(cell) == "" {
		return decimal.NullDecimal{}
	}
	v := ParseNullNumber(cell)
	if !v.Valid {
		*warnings = append(*warnings, fmt.Sprintf("unparseable %s %q", name, cell))
	}
	return v
}

// balanceAmount is the row's own amount, else the change against the
// previous balance snapshot, else the snapshot itself (opening deposit).
func (n *Normalizer) balanceAmount(profit, balance decimal.NullDecimal) decimal.NullDecimal {
	if profit.Valid {
		return profit
	}
	if !balance.Valid {
		return decimal.NullDecimal{}
	}
	if n.lastBalance.Valid {
		return decimal.NewNullDecimal(balance.Decimal.Sub(n.lastBalance.Decimal))
	}
	return balance
}

func (n *Normalizer) stateOf(typ string, raw RawTrade, profit decimal.NullDecimal) domain.State {
	if dir := strings.ToLower(strings.TrimSpace(raw.Direction)); dir != "" {
		// "in/out" (reversal) and "out by" both realize profit.
		if strings.Contains(dir, "out") {
			return domain.StateOut
		}
		return domain.StateIn
	}
	switch {
	case strings.HasPrefix(typ, "exit"), strings.HasPrefix(typ, "close"):
		return domain.StateOut
	case strings.HasPrefix(typ, "entry"), strings.HasPrefix(typ, "open"):
		return domain.StateIn
	}
	if profit.Valid || strings.TrimSpace(raw.CloseTime) != "" {
		return domain.StateOut
	}
	return domain.StateIn
}

// sideOf maps a type label to the side of the order itself.
// "Exit long" sells, so its side is short.
func sideOf(typ string) domain.Side {
	switch {
	case strings.HasPrefix(typ, "exit long"), strings.HasPrefix(typ, "close long"):
		return domain.SideShort
	case strings.HasPrefix(typ, "exit short"), strings.HasPrefix(typ, "close short"):
		return domain.SideLong
	case strings.Contains(typ, "buy"), strings.Contains(typ, "long"):
		return domain.SideLong
	case strings.Contains(typ, "sell"), strings.Contains(typ, "short"):
		return domain.SideShort
	}
	return ""
}

func opposite(s domain.Side) domain.Side {
	if s == domain.SideLong {
		return domain.SideShort
	}
	return domain.SideLong
}
