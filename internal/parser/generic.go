package parser

import (
	"strings"

	"trade-report-lab/internal/domain"
	"trade-report-lab/internal/normalization"
)

// genericLayout maps arbitrary trade journals by fuzzy header names.
type genericLayout struct{}

func (genericLayout) Platform() domain.Platform { return domain.PlatformGeneric }

type genericColumns struct {
	time, closeTime, deal, order, symbol, typ, direction int
	volume, price, closePrice, sl, tp                    int
	commission, swap, profit, balance, comment           int
}

func containsAny(n string, subs ...string) bool {
	for _, s := range subs {
		if strings.Contains(n, s) {
			return true
		}
	}
	return false
}

func mapGeneric(h header) (genericColumns, bool) {
	taken := make(map[int]bool)
	pick := func(pred func(string) bool) int {
		i := h.match(taken, pred)
		if i >= 0 {
			taken[i] = true
		}
		return i
	}

	var c genericColumns
	// Close-side columns first so "close time" is not taken as the open time.
	c.closeTime = pick(func(n string) bool {
		return containsAny(n, "close", "exit") && containsAny(n, "time", "date")
	})
	c.closePrice = pick(func(n string) bool {
		return containsAny(n, "close", "exit") && strings.Contains(n, "price")
	})
	c.time = pick(func(n string) bool {
		return containsAny(n, "time", "date", "opened")
	})
	c.profit = pick(func(n string) bool {
		return containsAny(n, "profit", "pnl", "p&l", "net", "result") && !strings.Contains(n, "%")
	})
	c.commission = pick(func(n string) bool { return containsAny(n, "commission", "fee") })
	c.swap = pick(func(n string) bool { return containsAny(n, "swap", "rollover") })
	c.balance = pick(func(n string) bool { return strings.Contains(n, "balance") })
	c.symbol = pick(func(n string) bool {
		return containsAny(n, "symbol", "instrument", "ticker", "item", "market", "pair", "asset")
	})
	c.direction = pick(func(n string) bool { return n == "direction" || n == "entry" })
	c.typ = pick(func(n string) bool { return containsAny(n, "type", "side", "action") })
	c.volume = pick(func(n string) bool {
		return containsAny(n, "volume", "size", "qty", "quantity", "lots", "contracts")
	})
	c.sl = pick(func(n string) bool { return n == "s/l" || n == "sl" || n == "stoploss" })
	c.tp = pick(func(n string) bool { return n == "t/p" || n == "tp" || n == "takeprofit" })
	c.price = pick(func(n string) bool { return strings.Contains(n, "price") })
	c.order = pick(func(n string) bool { return strings.Contains(n, "order") })
	c.deal = pick(func(n string) bool {
		return containsAny(n, "deal", "ticket", "trade#", "position") || n == "id"
	})
	c.comment = pick(func(n string) bool { return containsAny(n, "comment", "note") })

	if c.time < 0 || (c.profit < 0 && c.typ < 0) {
		return c, false
	}
	return c, true
}

func (genericLayout) TryParse(rows [][]string) (*Section, bool) {
	headerRow := -1
	var cols genericColumns
	for i, row := range rows {
		c, ok := mapGeneric(newHeader(row))
		if ok {
			headerRow = i
			cols = c
			break
		}
	}
	if headerRow < 0 {
		return nil, false
	}

	sec := &Section{
		Platform:  domain.PlatformGeneric,
		Summary:   make(map[string]string),
		HasSymbol: cols.symbol >= 0,
	}

	for i := headerRow + 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}
		sec.Raws = append(sec.Raws, normalization.RawTrade{
			Row:        i + 1,
			Time:       cell(row, cols.time),
			CloseTime:  cell(row, cols.closeTime),
			Deal:       cell(row, cols.deal),
			Order:      cell(row, cols.order),
			Symbol:     cell(row, cols.symbol),
			Type:       cell(row, cols.typ),
			Direction:  cell(row, cols.direction),
			Volume:     cell(row, cols.volume),
			Price:      cell(row, cols.price),
			ClosePrice: cell(row, cols.closePrice),
			StopLoss:   cell(row, cols.sl),
			TakeProfit: cell(row, cols.tp),
			Commission: cell(row, cols.commission),
			Swap:       cell(row, cols.swap),
			Profit:     cell(row, cols.profit),
			Balance:    cell(row, cols.balance),
			Comment:    cell(row, cols.comment),
		})
	}

	collectSummary(rows, headerRow, len(rows), sec.Summary)
	return sec, true
}
