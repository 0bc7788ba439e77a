package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the market direction of a trade leg.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// State tells whether a leg opens (in) or closes (out) a position.
type State string

const (
	StateIn  State = "in"
	StateOut State = "out"
)

// TradeKind separates market trades from balance adjustments (deposits, withdrawals, credits).
type TradeKind string

const (
	KindTrade   TradeKind = "trade"
	KindBalance TradeKind = "balance"
)

// Trade is one normalized row of a broker trade log.
// Trades are immutable once parsed; every analytics package reads them by value.
type Trade struct {
	OpenTime         time.Time // row timestamp, ordering key
	CloseTime        time.Time // equals OpenTime for deal legs and atomic fills
	PositionOpenTime time.Time // entry time of the paired opening leg (zero if unknown)
	TimeUnparsed     bool      // timestamp cell could not be parsed

	DealID  string
	OrderID string
	Symbol  string // empty only for balance rows
	Type    string // raw platform label ("buy", "sell", "balance", "Exit long", ...)

	Kind         TradeKind
	Side         Side
	PositionSide Side // side of the position this leg belongs to
	State        State

	Volume     decimal.Decimal
	PriceOpen  decimal.NullDecimal
	PriceClose decimal.NullDecimal
	StopLoss   decimal.NullDecimal
	TakeProfit decimal.NullDecimal
	Comment    string

	Profit     decimal.NullDecimal // valid on closing legs and balance rows
	Commission decimal.Decimal
	Swap       decimal.Decimal
	Balance    decimal.NullDecimal // authoritative running balance, when reported

	Row int // 1-based source row
}

// IsBalanceAdjustment reports whether the row is a deposit/withdrawal/credit entry.
func (t Trade) IsBalanceAdjustment() bool {
	return t.Kind == KindBalance
}

// IsClosed reports whether the trade is a closing market leg with a realized profit.
func (t Trade) IsClosed() bool {
	return t.Kind == KindTrade && t.State == StateOut && t.Profit.Valid
}

// ProfitFloat returns the realized profit as float64 (0 when undefined).
func (t Trade) ProfitFloat() float64 {
	if !t.Profit.Valid {
		return 0
	}
	return t.Profit.Decimal.InexactFloat64()
}

// EntryTime returns the position entry time: the paired opening leg when known, else OpenTime.
func (t Trade) EntryTime() time.Time {
	if !t.PositionOpenTime.IsZero() {
		return t.PositionOpenTime
	}
	return t.OpenTime
}

// Duration returns the holding time from entry to close. Never negative.
func (t Trade) Duration() time.Duration {
	closeTime := t.CloseTime
	if closeTime.IsZero() {
		closeTime = t.OpenTime
	}
	d := closeTime.Sub(t.EntryTime())
	if d < 0 {
		return 0
	}
	return d
}

// ClosedTrades filters closing market legs, preserving order.
func ClosedTrades(trades []Trade) []Trade {
	var closed []Trade
	for _, t := range trades {
		if t.IsClosed() {
			closed = append(closed, t)
		}
	}
	return closed
}
