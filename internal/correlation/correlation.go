// Package correlation measures how instruments' daily results move together.
package correlation

import (
	"math"
	"sort"
	"time"

	"trade-report-lab/internal/domain"
)

// DefaultMinActiveDays is the number of trading days a symbol needs before
// it is paired with others.
const DefaultMinActiveDays = 4

// Options controls the analysis.
type Options struct {
	MinActiveDays int // <= 0 means DefaultMinActiveDays
}

// DailyProfit groups closed-trade profit by symbol and UTC close date.
func DailyProfit(trades []domain.Trade) map[string]map[time.Time]float64 {
	daily := make(map[string]map[time.Time]float64)
	for _, t := range trades {
		if !t.IsClosed() || t.Symbol == "" {
			continue
		}
		ct := t.CloseTime
		if ct.IsZero() {
			ct = t.OpenTime
		}
		ct = ct.UTC()
		day := time.Date(ct.Year(), ct.Month(), ct.Day(), 0, 0, 0, 0, time.UTC)

		bySymbol, ok := daily[t.Symbol]
		if !ok {
			bySymbol = make(map[time.Time]float64)
			daily[t.Symbol] = bySymbol
		}
		bySymbol[day] += t.ProfitFloat()
	}
	return daily
}

// Analyze returns the Pearson correlation of every pair of sufficiently
// active symbols, strongest first.
func Analyze(trades []domain.Trade, opts Options) []domain.CorrelationPair {
	minDays := opts.MinActiveDays
	if minDays <= 0 {
		minDays = DefaultMinActiveDays
	}

	daily := DailyProfit(trades)

	symbols := make([]string, 0, len(daily))
	for s, days := range daily {
		if len(days) >= minDays {
			symbols = append(symbols, s)
		}
	}
	sort.Strings(symbols)

	var pairs []domain.CorrelationPair
	for i := 0; i < len(symbols); i++ {
		for j := i + 1; j < len(symbols); j++ {
			a, b := daily[symbols[i]], daily[symbols[j]]
			x, y := Align(a, b)
			pairs = append(pairs, domain.CorrelationPair{
				SymbolA:     symbols[i],
				SymbolB:     symbols[j],
				Coefficient: Pearson(x, y),
				SampleSizeA: len(a),
				SampleSizeB: len(b),
			})
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].Coefficient), math.Abs(pairs[j].Coefficient)
		if ai != aj {
			return ai > aj
		}
		if pairs[i].SymbolA != pairs[j].SymbolA {
			return pairs[i].SymbolA < pairs[j].SymbolA
		}
		return pairs[i].SymbolB < pairs[j].SymbolB
	})
	return pairs
}

// Align builds two series over the union of dates, in date order.
// A date missing from one side contributes 0.
func Align(a, b map[time.Time]float64) ([]float64, []float64) {
	seen := make(map[time.Time]bool, len(a)+len(b))
	dates := make([]time.Time, 0, len(a)+len(b))
	for d := range a {
		if !seen[d] {
			seen[d] = true
			dates = append(dates, d)
		}
	}
	for d := range b {
		if !seen[d] {
			seen[d] = true
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	x := make([]float64, len(dates))
	y := make([]float64, len(dates))
	for i, d := range dates {
		x[i] = a[d]
		y[i] = b[d]
	}
	return x, y
}

// Pearson computes the correlation coefficient of two equal-length series.
// Returns 0 when the lengths differ, fewer than two samples exist or either
// series has zero variance.
func Pearson(x, y []float64) float64 {
	n := len(x)
	if n != len(y) || n < 2 {
		return 0
	}

	var meanX, meanY float64
	for i := 0; i < n; i++ {
		meanX += x[i]
		meanY += y[i]
	}
	meanX /= float64(n)
	meanY /= float64(n)

	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		dx := x[i] - meanX
		dy := y[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}

	r := cov / math.Sqrt(varX*varY)
	return math.Max(-1, math.Min(1, r))
}

// Strength names the magnitude band of a coefficient.
func Strength(r float64) string {
	a := math.Abs(r)
	switch {
	case a > 0.8:
		return "very strong"
	case a > 0.6:
		return "strong"
	case a > 0.4:
		return "moderate"
	case a > 0.2:
		return "weak"
	default:
		return "very weak"
	}
}

// Direction names the sign of a coefficient.
func Direction(r float64) string {
	switch {
	case r > 0:
		return "positive"
	case r < 0:
		return "negative"
	default:
		return "none"
	}
}

// Matrix is a symmetric correlation table for rendering.
type Matrix struct {
	Symbols []string
	Values  [][]float64 // Values[i][j] = r(Symbols[i], Symbols[j]); diagonal is 1
}

// NewMatrix arranges pairs into a square table.
func NewMatrix(pairs []domain.CorrelationPair) Matrix {
	set := make(map[string]bool)
	for _, p := range pairs {
		set[p.SymbolA] = true
		set[p.SymbolB] = true
	}
	symbols := make([]string, 0, len(set))
	for s := range set {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	index := make(map[string]int, len(symbols))
	for i, s := range symbols {
		index[s] = i
	}

	values := make([][]float64, len(symbols))
	for i := range values {
		values[i] = make([]float64, len(symbols))
		values[i][i] = 1
	}
	for _, p := range pairs {
		i, j := index[p.SymbolA], index[p.SymbolB]
		values[i][j] = p.Coefficient
		values[j][i] = p.Coefficient
	}
	return Matrix{Symbols: symbols, Values: values}
}
