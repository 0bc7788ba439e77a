package normalization

import (
	"sort"

	"trade-report-lab/internal/domain"
)

// SortTrades orders trades by OpenTime ASC. Equal timestamps keep their
// source order, so a deal's in/out legs printed on the same second stay put.
func SortTrades(trades []domain.Trade) {
	sort.SliceStable(trades, func(i, j int) bool {
		return compareTrades(trades[i], trades[j]) < 0
	})
}

// IsChronological reports whether trades are already in OpenTime order.
func IsChronological(trades []domain.Trade) bool {
	for i := 1; i < len(trades); i++ {
		if compareTrades(trades[i-1], trades[i]) > 0 {
			return false
		}
	}
	return true
}

// compareTrades returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
func compareTrades(a, b domain.Trade) int {
	return a.OpenTime.Compare(b.OpenTime)
}
