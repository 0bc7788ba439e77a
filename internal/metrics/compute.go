package metrics

import (
	"math"
	"sort"

	"trade-report-lab/internal/domain"
)

// MaxRatio is the sentinel reported for a ratio whose denominator is zero
// while its numerator is positive (no losses, no variance).
const MaxRatio = 999.0

// tailRatioMinSamples is the sample size below which the tail ratio is
// reported as neutral (1).
const tailRatioMinSamples = 20

// Mean calculates the arithmetic mean.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Stddev calculates sample standard deviation (n-1 denominator).
func Stddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// Percentile uses linear interpolation.
// sorted must be pre-sorted ASC.
// p is percentile (0.10 = 10th percentile).
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// computeSkewness is the adjusted Fisher-Pearson coefficient G1.
// Needs at least 3 samples and non-zero variance, else 0.
func computeSkewness(values []float64, mean float64) float64 {
	n := float64(len(values))
	if n < 3 {
		return 0
	}
	var m2, m3 float64
	for _, v := range values {
		d := v - mean
		m2 += d * d
		m3 += d * d * d
	}
	m2 /= n
	m3 /= n
	if m2 == 0 {
		return 0
	}
	g1 := m3 / math.Pow(m2, 1.5)
	return math.Sqrt(n*(n-1)) / (n - 2) * g1
}

// computeKurtosis is the adjusted excess kurtosis G2.
// Needs at least 4 samples and non-zero variance, else 0.
func computeKurtosis(values []float64, mean float64) float64 {
	n := float64(len(values))
	if n < 4 {
		return 0
	}
	var m2, m4 float64
	for _, v := range values {
		d := v - mean
		d2 := d * d
		m2 += d2
		m4 += d2 * d2
	}
	m2 /= n
	m4 /= n
	if m2 == 0 {
		return 0
	}
	g2 := m4/(m2*m2) - 3
	return (n - 1) / ((n - 2) * (n - 3)) * ((n+1)*g2 + 6)
}

// computeTailRatio is |P95| / |P5| of the sorted returns.
// Neutral (1) for small samples, same-sign tails or a zero P5.
func computeTailRatio(sorted []float64) float64 {
	if len(sorted) < tailRatioMinSamples {
		return 1
	}
	p5 := Percentile(sorted, 0.05)
	p95 := Percentile(sorted, 0.95)
	if p5 == 0 || (p5 > 0) == (p95 > 0) {
		return 1
	}
	return math.Abs(p95) / math.Abs(p5)
}

// computeDownsideDeviation is the root mean square of the negative samples.
func computeDownsideDeviation(values []float64) float64 {
	sumSq := 0.0
	n := 0
	for _, v := range values {
		if v < 0 {
			sumSq += v * v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sumSq / float64(n))
}

// guardedRatio divides, returning MaxRatio for a positive numerator over a
// zero denominator and 0 for anything else undefined.
func guardedRatio(num, den float64) float64 {
	if den == 0 {
		if num > 0 {
			return MaxRatio
		}
		return 0
	}
	return num / den
}

// zeroGuardedRatio divides, returning 0 for a zero denominator.
func zeroGuardedRatio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// computeWinRate calculates win rate as wins / total * 100.
func computeWinRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total) * 100
}

type streaks struct {
	maxWins, maxLosses             int
	maxWinsAmount, maxLossesAmount float64
}

// computeStreaks finds the longest winning and losing runs in one pass.
// A breakeven trade ends both runs. Trades must be in chronological order.
func computeStreaks(trades []domain.Trade) streaks {
	var s streaks
	var curWins, curLosses int
	var curWinAmt, curLossAmt float64

	for _, t := range trades {
		p := t.ProfitFloat()
		switch {
		case p > 0:
			curWins++
			curWinAmt += p
			curLosses, curLossAmt = 0, 0
			if curWins > s.maxWins {
				s.maxWins = curWins
				s.maxWinsAmount = curWinAmt
			}
		case p < 0:
			curLosses++
			curLossAmt += -p
			curWins, curWinAmt = 0, 0
			if curLosses > s.maxLosses {
				s.maxLosses = curLosses
				s.maxLossesAmount = curLossAmt
			}
		default:
			curWins, curWinAmt = 0, 0
			curLosses, curLossAmt = 0, 0
		}
	}
	return s
}

func sortedCopy(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	sort.Float64s(out)
	return out
}
