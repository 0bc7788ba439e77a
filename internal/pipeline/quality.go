package pipeline

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"trade-report-lab/internal/domain"
	"trade-report-lab/internal/equity"
	"trade-report-lab/internal/idhash"
	"trade-report-lab/internal/parser"
	"trade-report-lab/internal/reporting"
)

// Quality thresholds.
const (
	MinClosedTrades    = 30
	MaxBalanceDriftAbs = 0.01
)

// QualityCheck represents one data quality criterion.
type QualityCheck struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// QualityResult contains all checks plus integrity errors.
type QualityResult struct {
	Checks  []QualityCheck
	AllPass bool
	Errors  []string // data integrity errors
}

// CheckQuality evaluates a parse result. Trades must be the parser output
// (sorted, with source row numbers intact); initial is the resolved starting
// balance, invalid when the curve falls back to the log.
func CheckQuality(res *parser.Result, initial decimal.NullDecimal) *QualityResult {
	result := &QualityResult{
		Checks:  make([]QualityCheck, 0, 7),
		AllPass: true,
		Errors:  []string{},
	}

	for _, issue := range res.Issues {
		result.Errors = append(result.Errors, issue.String())
	}

	add := func(c QualityCheck, errs []string) {
		result.Checks = append(result.Checks, c)
		if !c.Pass {
			result.AllPass = false
		}
		result.Errors = append(result.Errors, errs...)
	}

	add(checkClosedTrades(res.Trades), nil)
	add(checkUnparsedTimestamps(res.Trades))
	add(checkSkippedRows(res.RowsSkipped), nil)
	add(checkDuplicateRows(res.Trades))
	add(checkBalanceReconciliation(res.Trades))
	add(checkSourceOrder(res.Trades))
	add(checkInitialBalance(res.Trades, initial), nil)

	return result
}

// Section converts the result to its report form.
func (q *QualityResult) Section() reporting.DataQualitySection {
	section := reporting.DataQualitySection{
		SufficiencyChecks: make([]reporting.SufficiencyCheckRow, 0, len(q.Checks)),
		IntegrityErrors:   q.Errors,
		AllChecksPassed:   q.AllPass,
	}
	for _, c := range q.Checks {
		section.SufficiencyChecks = append(section.SufficiencyChecks, reporting.SufficiencyCheckRow{
			Name:      c.Name,
			Threshold: c.Threshold,
			Actual:    c.Actual,
			Pass:      c.Pass,
		})
	}
	return section
}

func checkClosedTrades(trades []domain.Trade) QualityCheck {
	n := len(domain.ClosedTrades(trades))
	return QualityCheck{
		Name:      "Closed trades",
		Threshold: fmt.Sprintf(">= %d", MinClosedTrades),
		Actual:    fmt.Sprintf("%d", n),
		Pass:      n >= MinClosedTrades,
	}
}

func checkUnparsedTimestamps(trades []domain.Trade) (QualityCheck, []string) {
	var errs []string
	for _, t := range trades {
		if t.TimeUnparsed {
			errs = append(errs, fmt.Sprintf("row %d: timestamp could not be parsed, ordered after its predecessor", t.Row))
		}
	}
	return QualityCheck{
		Name:      "Unparsed timestamps",
		Threshold: "= 0",
		Actual:    fmt.Sprintf("%d", len(errs)),
		Pass:      len(errs) == 0,
	}, errs
}

// checkInitialBalance fails when neither the caller, the export header nor
// the log itself gives a starting balance. The curve then starts at 0.
func checkInitialBalance(trades []domain.Trade, initial decimal.NullDecimal) QualityCheck {
	check := QualityCheck{
		Name:      "Initial balance",
		Threshold: "given, declared or in the log",
		Pass:      true,
	}
	switch {
	case initial.Valid:
		check.Actual = initial.Decimal.StringFixed(2)
	case len(trades) > 0 && trades[0].IsBalanceAdjustment():
		check.Actual = "deposit row"
	case slices.ContainsFunc(trades, func(t domain.Trade) bool { return t.Balance.Valid }):
		check.Actual = equity.InferInitialBalance(trades).Decimal.StringFixed(2)
	default:
		check.Actual = "none"
		check.Pass = false
	}
	return check
}

func checkSkippedRows(skipped int) QualityCheck {
	return QualityCheck{
		Name:      "Skipped rows",
		Threshold: "= 0",
		Actual:    fmt.Sprintf("%d", skipped),
		Pass:      skipped == 0,
	}
}

// checkDuplicateRows flags rows whose identity key repeats an earlier row.
func checkDuplicateRows(trades []domain.Trade) (QualityCheck, []string) {
	seen := make(map[string]int, len(trades))
	var errs []string
	for _, t := range trades {
		key := idhash.ComputeTradeKey(t)
		if first, ok := seen[key]; ok {
			errs = append(errs, fmt.Sprintf("row %d: duplicate of row %d", t.Row, first))
			continue
		}
		seen[key] = t.Row
	}
	return QualityCheck{
		Name:      "Duplicate rows",
		Threshold: "= 0",
		Actual:    fmt.Sprintf("%d", len(errs)),
		Pass:      len(errs) == 0,
	}, errs
}

// checkBalanceReconciliation replays every balance-affecting amount between
// the first and last reported balance and compares the result with the
// last reported balance. Exports without a balance column pass trivially.
func checkBalanceReconciliation(trades []domain.Trade) (QualityCheck, []string) {
	check := QualityCheck{
		Name:      "Balance reconciliation",
		Threshold: fmt.Sprintf("<= %.2f", MaxBalanceDriftAbs),
		Actual:    "n/a",
		Pass:      true,
	}

	first, last := -1, -1
	for i, t := range trades {
		if t.Balance.Valid {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return check, nil
	}

	expected := trades[first].Balance.Decimal.Sub(balanceDelta(trades[first]))
	for _, t := range trades[first : last+1] {
		expected = expected.Add(balanceDelta(t))
	}

	drift := trades[last].Balance.Decimal.Sub(expected).Abs()
	check.Actual = drift.StringFixed(2)
	if drift.GreaterThan(decimal.NewFromFloat(MaxBalanceDriftAbs)) {
		check.Pass = false
		return check, []string{fmt.Sprintf(
			"balance at row %d is %s, expected %s from row amounts",
			trades[last].Row, trades[last].Balance.Decimal.StringFixed(2), expected.StringFixed(2),
		)}
	}
	return check, nil
}

// balanceDelta is what one row adds to the account balance.
func balanceDelta(t domain.Trade) decimal.Decimal {
	d := t.Commission.Add(t.Swap)
	if t.Profit.Valid {
		d = d.Add(t.Profit.Decimal)
	}
	return d
}

// checkSourceOrder counts rows that appear in the file before an earlier-dated row.
func checkSourceOrder(trades []domain.Trade) (QualityCheck, []string) {
	var errs []string
	for i := 1; i < len(trades); i++ {
		if trades[i].Row < trades[i-1].Row {
			errs = append(errs, fmt.Sprintf("row %d: out of chronological order", trades[i].Row))
		}
	}
	return QualityCheck{
		Name:      "Chronological input",
		Threshold: "0 out-of-order rows",
		Actual:    fmt.Sprintf("%d out-of-order rows", len(errs)),
		Pass:      len(errs) == 0,
	}, errs
}
