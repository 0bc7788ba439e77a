package pipeline

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"trade-report-lab/internal/domain"
	"trade-report-lab/internal/parser"
)

var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func closedTrade(row int, profit, balance int64) domain.Trade {
	return domain.Trade{
		OpenTime: baseTime.Add(time.Duration(row) * time.Hour),
		DealID:   string(rune('A' + row%26)),
		Symbol:   "EURUSD",
		Kind:     domain.KindTrade,
		State:    domain.StateOut,
		Volume:   decimal.NewFromInt(1),
		Profit:   decimal.NewNullDecimal(decimal.NewFromInt(profit)),
		Balance:  decimal.NewNullDecimal(decimal.NewFromInt(balance)),
		Row:      row,
	}
}

// consistentLog returns n closed trades of +10 each on a 1000 starting balance.
func consistentLog(n int) []domain.Trade {
	trades := make([]domain.Trade, n)
	for i := range trades {
		trades[i] = closedTrade(i+1, 10, 1000+int64(i+1)*10)
		trades[i].DealID = strings.Repeat("d", i+1)
	}
	return trades
}

func findCheck(t *testing.T, q *QualityResult, name string) QualityCheck {
	t.Helper()
	for _, c := range q.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("check %q not found", name)
	return QualityCheck{}
}

func TestCheckQuality_AllPass(t *testing.T) {
	q := CheckQuality(&parser.Result{Trades: consistentLog(MinClosedTrades)}, decimal.NullDecimal{})

	if !q.AllPass {
		for _, c := range q.Checks {
			t.Logf("%s: %s (threshold %s) pass=%v", c.Name, c.Actual, c.Threshold, c.Pass)
		}
		t.Fatal("expected all checks to pass")
	}
	if len(q.Checks) != 7 {
		t.Errorf("expected 7 checks, got %d", len(q.Checks))
	}
	if len(q.Errors) != 0 {
		t.Errorf("expected no integrity errors, got %v", q.Errors)
	}
	if got := findCheck(t, q, "Balance reconciliation").Actual; got != "0.00" {
		t.Errorf("drift = %s, want 0.00", got)
	}
}

func TestCheckQuality_InsufficientTrades(t *testing.T) {
	q := CheckQuality(&parser.Result{Trades: consistentLog(MinClosedTrades - 1)}, decimal.NullDecimal{})

	if q.AllPass {
		t.Error("expected failure with too few trades")
	}
	c := findCheck(t, q, "Closed trades")
	if c.Pass || c.Actual != "29" {
		t.Errorf("unexpected check: %+v", c)
	}
}

func TestCheckQuality_BalanceDrift(t *testing.T) {
	trades := consistentLog(MinClosedTrades)
	last := &trades[len(trades)-1]
	last.Balance = decimal.NewNullDecimal(last.Balance.Decimal.Add(decimal.RequireFromString("0.50")))

	q := CheckQuality(&parser.Result{Trades: trades}, decimal.NullDecimal{})

	c := findCheck(t, q, "Balance reconciliation")
	if c.Pass || c.Actual != "0.50" {
		t.Errorf("unexpected check: %+v", c)
	}
	if len(q.Errors) != 1 {
		t.Errorf("expected 1 integrity error, got %v", q.Errors)
	}
}

func TestCheckQuality_NoBalanceColumn(t *testing.T) {
	trades := consistentLog(3)
	for i := range trades {
		trades[i].Balance = decimal.NullDecimal{}
	}

	c := findCheck(t, CheckQuality(&parser.Result{Trades: trades}, decimal.NullDecimal{}), "Balance reconciliation")
	if !c.Pass || c.Actual != "n/a" {
		t.Errorf("unexpected check: %+v", c)
	}
}

func TestCheckQuality_DuplicateRows(t *testing.T) {
	trades := consistentLog(3)
	dup := trades[1]
	dup.Row = 4
	trades = append(trades, dup)
	trades[3].Balance = decimal.NullDecimal{}

	q := CheckQuality(&parser.Result{Trades: trades}, decimal.NullDecimal{})

	c := findCheck(t, q, "Duplicate rows")
	if c.Pass || c.Actual != "1" {
		t.Errorf("unexpected check: %+v", c)
	}
	found := false
	for _, e := range q.Errors {
		if e == "row 4: duplicate of row 2" {
			found = true
		}
	}
	if !found {
		t.Errorf("duplicate not reported: %v", q.Errors)
	}
}

func TestCheckQuality_SourceOrderAndTimestamps(t *testing.T) {
	trades := consistentLog(3)
	// Sorted by time, but the file listed them newest first.
	trades[0].Row, trades[2].Row = 3, 1
	trades[1].TimeUnparsed = true

	q := CheckQuality(&parser.Result{Trades: trades}, decimal.NullDecimal{})

	if c := findCheck(t, q, "Chronological input"); c.Pass {
		t.Errorf("expected order check to fail: %+v", c)
	}
	if c := findCheck(t, q, "Unparsed timestamps"); c.Pass || c.Actual != "1" {
		t.Errorf("unexpected check: %+v", c)
	}
}

func TestCheckQuality_IssuesAndSkippedRows(t *testing.T) {
	res := &parser.Result{
		Trades:      consistentLog(MinClosedTrades),
		Issues:      []parser.Issue{{Row: 7, Reason: "invalid volume"}},
		RowsSkipped: 1,
	}

	q := CheckQuality(res, decimal.NullDecimal{})

	if c := findCheck(t, q, "Skipped rows"); c.Pass || c.Actual != "1" {
		t.Errorf("unexpected check: %+v", c)
	}
	if len(q.Errors) == 0 || q.Errors[0] != "row 7: invalid volume" {
		t.Errorf("parser issue not listed: %v", q.Errors)
	}

	section := q.Section()
	if section.AllChecksPassed || len(section.SufficiencyChecks) != len(q.Checks) {
		t.Errorf("unexpected section: %+v", section)
	}
}

func TestCheckQuality_InitialBalance(t *testing.T) {
	noBalance := consistentLog(3)
	for i := range noBalance {
		noBalance[i].Balance = decimal.NullDecimal{}
	}
	deposit := append([]domain.Trade{{
		Kind:   domain.KindBalance,
		Profit: decimal.NewNullDecimal(decimal.NewFromInt(500)),
		Row:    0,
	}}, noBalance...)

	tests := []struct {
		name    string
		trades  []domain.Trade
		initial decimal.NullDecimal
		actual  string
		pass    bool
	}{
		{"balance column", consistentLog(3), decimal.NullDecimal{}, "1000.00", true},
		{"explicit", noBalance, decimal.NewNullDecimal(decimal.NewFromInt(2500)), "2500.00", true},
		{"deposit row", deposit, decimal.NullDecimal{}, "deposit row", true},
		{"missing", noBalance, decimal.NullDecimal{}, "none", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := CheckQuality(&parser.Result{Trades: tt.trades}, tt.initial)
			c := findCheck(t, q, "Initial balance")
			if c.Pass != tt.pass || c.Actual != tt.actual {
				t.Errorf("got %+v, want actual %q pass %v", c, tt.actual, tt.pass)
			}
			if !tt.pass && q.AllPass {
				t.Error("expected AllPass to be false")
			}
		})
	}
}
