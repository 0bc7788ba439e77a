// Package distribution histograms closed trades along profit, holding time
// and entry-time dimensions.
package distribution

import (
	"errors"
	"fmt"
	"math"
	"time"

	"trade-report-lab/internal/domain"
)

// DefaultProfitBins is the number of equal-width profit bins.
const DefaultProfitBins = 15

// ErrUnknownDimension is returned for an unsupported dimension.
var ErrUnknownDimension = errors.New("unknown distribution dimension")

// Options controls binning.
type Options struct {
	ProfitBins int // <= 0 means DefaultProfitBins
}

type durationBucket struct {
	label string
	lower float64 // hours, inclusive
	upper float64 // hours, exclusive
}

var durationBuckets = []durationBucket{
	{"<1h", 0, 1},
	{"1-6h", 1, 6},
	{"6-12h", 6, 12},
	{"12-24h", 12, 24},
	{"1-3d", 24, 72},
	{"3-7d", 72, 168},
	{">7d", 168, math.Inf(1)},
}

var weekdayLabels = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Bin histograms the closed trades along dim. Every category is present even
// when empty, and bin counts sum to the number of closed trades.
func Bin(trades []domain.Trade, dim domain.Dimension, opts Options) ([]domain.DistributionBin, error) {
	closed := domain.ClosedTrades(trades)

	var bins []domain.DistributionBin
	switch dim {
	case domain.DimensionProfit:
		bins = profitBins(closed, opts)
	case domain.DimensionDuration:
		bins = durationBins(closed)
	case domain.DimensionHourOfDay:
		bins = hourBins(closed)
	case domain.DimensionDayOfWeek:
		bins = weekdayBins(closed)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDimension, dim)
	}

	for i := range bins {
		if bins[i].Count > 0 {
			bins[i].WinRate = float64(bins[i].Wins) / float64(bins[i].Count) * 100
		}
	}
	return bins, nil
}

// All bins along every dimension.
func All(trades []domain.Trade, opts Options) map[domain.Dimension][]domain.DistributionBin {
	out := make(map[domain.Dimension][]domain.DistributionBin, len(domain.Dimensions))
	for _, dim := range domain.Dimensions {
		bins, _ := Bin(trades, dim, opts)
		out[dim] = bins
	}
	return out
}

func add(b *domain.DistributionBin, t domain.Trade) {
	p := t.ProfitFloat()
	b.Count++
	b.TotalProfit += p
	if p > 0 {
		b.Wins++
	}
}

func profitBins(closed []domain.Trade, opts Options) []domain.DistributionBin {
	n := opts.ProfitBins
	if n <= 0 {
		n = DefaultProfitBins
	}

	lo, hi := 0.0, 0.0
	for i, t := range closed {
		p := t.ProfitFloat()
		if i == 0 || p < lo {
			lo = p
		}
		if i == 0 || p > hi {
			hi = p
		}
	}
	width := (hi - lo) / float64(n)

	bins := make([]domain.DistributionBin, n)
	for i := range bins {
		lower := lo + float64(i)*width
		upper := lo + float64(i+1)*width
		if i == n-1 {
			upper = hi
		}
		bins[i] = domain.DistributionBin{
			Label: fmt.Sprintf("%.2f..%.2f", lower, upper),
			Lower: lower,
			Upper: upper,
		}
	}

	for _, t := range closed {
		idx := 0
		if width > 0 {
			idx = int((t.ProfitFloat() - lo) / width)
			if idx >= n {
				idx = n - 1
			}
			if idx < 0 {
				idx = 0
			}
		}
		add(&bins[idx], t)
	}
	return bins
}

func durationBins(closed []domain.Trade) []domain.DistributionBin {
	bins := make([]domain.DistributionBin, len(durationBuckets))
	for i, b := range durationBuckets {
		bins[i] = domain.DistributionBin{Label: b.label, Lower: b.lower, Upper: b.upper}
	}
	for _, t := range closed {
		hours := t.Duration().Hours()
		for i, b := range durationBuckets {
			if hours >= b.lower && hours < b.upper {
				add(&bins[i], t)
				break
			}
		}
	}
	return bins
}

func hourBins(closed []domain.Trade) []domain.DistributionBin {
	bins := make([]domain.DistributionBin, 24)
	for h := range bins {
		bins[h] = domain.DistributionBin{
			Label: fmt.Sprintf("%02d:00", h),
			Lower: float64(h),
			Upper: float64(h + 1),
		}
	}
	for _, t := range closed {
		add(&bins[t.EntryTime().Hour()], t)
	}
	return bins
}

func weekdayBins(closed []domain.Trade) []domain.DistributionBin {
	bins := make([]domain.DistributionBin, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		bins[d] = domain.DistributionBin{
			Label: weekdayLabels[d],
			Lower: float64(d),
			Upper: float64(d + 1),
		}
	}
	for _, t := range closed {
		add(&bins[t.EntryTime().Weekday()], t)
	}
	return bins
}
