package normalization

import (
	"time"

	"github.com/shopspring/decimal"

	"trade-report-lab/internal/domain"
)

type openLot struct {
	time      time.Time
	side      domain.Side
	price     decimal.NullDecimal
	remaining decimal.Decimal
}

// PairPositions links closing deal legs to the opening legs they close,
// FIFO per symbol and volume aware. Matched closing legs get the entry time,
// position side and volume-weighted entry price of the lots they consume.
// Rows that already know their entry (round-trip rows) are left alone.
// The input is not modified; trades must be in chronological order.
func PairPositions(trades []domain.Trade) []domain.Trade {
	out := make([]domain.Trade, len(trades))
	copy(out, trades)

	lots := make(map[string][]*openLot)

	for i := range out {
		t := &out[i]
		if t.Kind != domain.KindTrade || !t.PositionOpenTime.IsZero() {
			continue
		}

		if t.State == domain.StateIn {
			lots[t.Symbol] = append(lots[t.Symbol], &openLot{
				time:      t.OpenTime,
				side:      t.Side,
				price:     t.PriceOpen,
				remaining: t.Volume,
			})
			continue
		}

		queue := lots[t.Symbol]
		var (
			matched  bool
			weighted decimal.Decimal
			volume   decimal.Decimal
			pricesOK = true
		)
		need := t.Volume
		for len(queue) > 0 {
			lot := queue[0]
			// A closing leg trades against the opposite side.
			if lot.side == t.Side {
				break
			}
			if !matched {
				t.PositionOpenTime = lot.time
				t.PositionSide = lot.side
				matched = true
			}
			take := decimal.Min(lot.remaining, need)
			if need.IsZero() {
				take = lot.remaining
			}
			if lot.price.Valid {
				weighted = weighted.Add(lot.price.Decimal.Mul(take))
			} else {
				pricesOK = false
			}
			volume = volume.Add(take)
			lot.remaining = lot.remaining.Sub(take)
			need = need.Sub(take)
			if lot.remaining.Sign() <= 0 {
				queue = queue[1:]
			}
			if need.Sign() <= 0 {
				break
			}
		}

		if matched && pricesOK && volume.Sign() > 0 && !t.PriceOpen.Valid {
			t.PriceOpen = decimal.NewNullDecimal(weighted.Div(volume))
		}
		// Reversal: the excess volume opens a position on the leg's side.
		if matched && need.Sign() > 0 && len(queue) == 0 {
			queue = append(queue, &openLot{
				time:      t.OpenTime,
				side:      t.Side,
				price:     t.PriceClose,
				remaining: need,
			})
		}
		lots[t.Symbol] = queue
	}

	return out
}
