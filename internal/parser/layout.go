package parser

import (
	"strings"

	"trade-report-lab/internal/domain"
	"trade-report-lab/internal/normalization"
)

// Layout recognizes one export format and locates its trade rows.
// TryParse returns false when the format's header is nowhere in rows.
type Layout interface {
	Platform() domain.Platform
	TryParse(rows [][]string) (*Section, bool)
}

// Section is the trade table a Layout located, before normalization.
type Section struct {
	Platform domain.Platform
	Raws     []normalization.RawTrade
	Summary  map[string]string
	Issues   []Issue

	// HasSymbol is false when the table has no symbol column; the caller
	// then fills Options.DefaultSymbol.
	HasSymbol bool
}

// registry lists layouts in fallback order.
var registry = []Layout{
	mt5Layout{},
	mt4Layout{},
	tradingViewLayout{},
	genericLayout{},
}

// Layouts returns the registry with the detected platform's layout first.
func Layouts(detected domain.Platform) []Layout {
	ordered := make([]Layout, 0, len(registry))
	for _, l := range registry {
		if l.Platform() == detected {
			ordered = append(ordered, l)
		}
	}
	for _, l := range registry {
		if l.Platform() != detected {
			ordered = append(ordered, l)
		}
	}
	return ordered
}

// header maps normalized column names to their indices.
type header struct {
	names []string
}

func newHeader(row []string) header {
	names := make([]string, len(row))
	for i, c := range row {
		names[i] = normalizeName(c)
	}
	return header{names: names}
}

// index returns the first column whose name equals one of candidates, or -1.
func (h header) index(candidates ...string) int {
	for _, c := range candidates {
		for i, n := range h.names {
			if n == c {
				return i
			}
		}
	}
	return -1
}

// nth returns the k-th (0-based) column named name, or -1.
func (h header) nth(name string, k int) int {
	seen := 0
	for i, n := range h.names {
		if n == name {
			if seen == k {
				return i
			}
			seen++
		}
	}
	return -1
}

// match returns the first column accepted by pred, skipping taken columns.
func (h header) match(taken map[int]bool, pred func(string) bool) int {
	for i, n := range h.names {
		if !taken[i] && pred(n) {
			return i
		}
	}
	return -1
}

func (h header) has(names ...string) bool {
	for _, n := range names {
		if h.index(n) < 0 {
			return false
		}
	}
	return true
}

// normalizeName lower-cases a header cell and collapses whitespace so that
// "S / L", "s/l" and "S /L" compare equal.
func normalizeName(cell string) string {
	s := strings.ToLower(strings.TrimSpace(cell))
	s = strings.ReplaceAll(s, " ", "")
	return strings.TrimSuffix(s, ":")
}

// cell returns row[i], or "" when i is out of range.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// collectSummary gathers "Label:" / value pairs from rows outside the trade table.
func collectSummary(rows [][]string, skipFrom, skipTo int, into map[string]string) {
	for i, row := range rows {
		if i >= skipFrom && i < skipTo {
			continue
		}
		for j := 0; j < len(row); j++ {
			label := strings.TrimSpace(row[j])
			if len(label) < 2 || !strings.HasSuffix(label, ":") {
				continue
			}
			for k := j + 1; k < len(row); k++ {
				if v := strings.TrimSpace(row[k]); v != "" {
					key := strings.TrimSuffix(label, ":")
					if _, exists := into[key]; !exists {
						into[key] = v
					}
					j = k
					break
				}
			}
		}
	}
}
