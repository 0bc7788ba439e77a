// Package parser turns broker trade-log exports into normalized trades.
package parser

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"trade-report-lab/internal/domain"
	"trade-report-lab/internal/normalization"
)

// ErrUnparseableFile is returned when no layout recognizes any header in the input.
var ErrUnparseableFile = errors.New("unparseable trade report")

// FallbackSymbol names trades from exports that carry no symbol column
// when Options.DefaultSymbol is empty.
const FallbackSymbol = "UNKNOWN"

// Options controls parsing.
type Options struct {
	FilenameHint  string // file name, used for platform detection
	DefaultSymbol string // symbol for exports without a symbol column
}

// Issue describes a row that was skipped or only partially understood.
type Issue struct {
	Row    int
	Reason string
}

func (i Issue) String() string {
	return fmt.Sprintf("row %d: %s", i.Row, i.Reason)
}

// Result is the outcome of parsing one export.
type Result struct {
	Platform    domain.Platform
	Trades      []domain.Trade // sorted by OpenTime, closing legs paired
	Summary     map[string]string
	Issues      []Issue
	RowsSkipped int
}

// InitialDeposit returns the report's declared initial deposit, if any.
func (r *Result) InitialDeposit() decimal.NullDecimal {
	for k, v := range r.Summary {
		if strings.EqualFold(k, "Initial Deposit") {
			return normalization.ParseNullNumber(v)
		}
	}
	return decimal.NullDecimal{}
}

// ParseFile reads and parses an export; the file name doubles as the detection hint.
func ParseFile(name string, r io.Reader, opts Options) (*Result, error) {
	rows, err := ReadRows(name, r)
	if err != nil {
		return nil, err
	}
	if opts.FilenameHint == "" {
		opts.FilenameHint = name
	}
	return Parse(rows, opts)
}

// Parse locates the trade table in rows and normalizes it.
// Row-level problems become Issues; only a file without any recognizable
// header fails.
func Parse(rows [][]string, opts Options) (*Result, error) {
	detected := DetectPlatform(rows, opts.FilenameHint)

	var sec *Section
	for _, layout := range Layouts(detected) {
		if s, ok := layout.TryParse(rows); ok {
			sec = s
			break
		}
	}
	if sec == nil {
		return nil, ErrUnparseableFile
	}

	result := &Result{
		Platform: sec.Platform,
		Summary:  sec.Summary,
		Issues:   append([]Issue(nil), sec.Issues...),
	}

	defaultSymbol := opts.DefaultSymbol
	if defaultSymbol == "" {
		defaultSymbol = FallbackSymbol
	}

	n := normalization.NewNormalizer()
	trades := make([]domain.Trade, 0, len(sec.Raws))
	for _, raw := range sec.Raws {
		if !sec.HasSymbol && raw.Symbol == "" && !isBalanceLabel(raw.Type) {
			raw.Symbol = defaultSymbol
		}

		t, warnings, err := normalizeRow(n, raw)
		for _, w := range warnings {
			result.Issues = append(result.Issues, Issue{Row: raw.Row, Reason: w})
		}
		if err != nil {
			result.Issues = append(result.Issues, Issue{Row: raw.Row, Reason: err.Error()})
			result.RowsSkipped++
			continue
		}
		trades = append(trades, t)
	}

	normalization.SortTrades(trades)
	result.Trades = normalization.PairPositions(trades)
	return result, nil
}

// normalizeRow shields the caller from a malformed row taking down the whole file.
func normalizeRow(n *normalization.Normalizer, raw normalization.RawTrade) (t domain.Trade, warnings []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("row rejected: %v", r)
		}
	}()
	return n.Normalize(raw)
}

func isBalanceLabel(typ string) bool {
	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "balance", "credit", "deposit", "withdrawal":
		return true
	}
	return false
}
