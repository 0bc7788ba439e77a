package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"trade-report-lab/internal/domain"
)

// ComputeTradeKey computes a deterministic key for one trade row.
// Formula: SHA256(symbol|open_time_ms|deal_id|order_id|state|volume|profit)
// Returns hex-encoded hash (64 characters).
//
// Two rows with the same key are the same fill exported twice.
func ComputeTradeKey(t domain.Trade) string {
	profit := ""
	if t.Profit.Valid {
		profit = t.Profit.Decimal.String()
	}

	data := fmt.Sprintf("%s|%d|%s|%s|%s|%s|%s",
		t.Symbol,
		t.OpenTime.UnixMilli(),
		t.DealID,
		t.OrderID,
		string(t.State),
		t.Volume.String(),
		profit,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
