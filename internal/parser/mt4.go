package parser

import (
	"strings"

	"trade-report-lab/internal/domain"
	"trade-report-lab/internal/normalization"
)

// mt4Layout reads the "Closed Transactions" table of MetaTrader 4 statements.
// Each row is a full round trip: open time/price, then close time/price.
type mt4Layout struct{}

func (mt4Layout) Platform() domain.Platform { return domain.PlatformMT4 }

var pendingMarkers = []string{"limit", "stop", "cancelled", "canceled", "deleted", "expired"}

func (mt4Layout) TryParse(rows [][]string) (*Section, bool) {
	headerRow := -1
	var h header
	for i, row := range rows {
		h = newHeader(row)
		if h.has("ticket", "profit") {
			headerRow = i
			break
		}
	}
	if headerRow < 0 {
		return nil, false
	}

	openTime := h.index("opentime", "time")
	closeTime := h.index("closetime")
	if closeTime < 0 {
		// Older statements print "Time" twice.
		closeTime = h.nth("time", 1)
	}
	price := h.index("openprice")
	closePrice := h.index("closeprice")
	if price < 0 {
		price = h.nth("price", 0)
		closePrice = h.nth("price", 1)
	}
	ticket := h.index("ticket")
	typ := h.index("type")
	volume := h.index("size", "volume", "lots")
	symbol := h.index("item", "symbol")
	sl := h.index("s/l", "sl")
	tp := h.index("t/p", "tp")
	commission := h.index("commission")
	taxes := h.index("taxes")
	swap := h.index("swap")
	profit := h.index("profit")
	comment := h.index("comment")

	sec := &Section{
		Platform:  domain.PlatformMT4,
		Summary:   make(map[string]string),
		HasSymbol: symbol >= 0,
	}

	end := len(rows)
	for i := headerRow + 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}
		if !normalization.IsNumeric(cell(row, ticket)) {
			end = i
			break
		}

		t := strings.ToLower(cell(row, typ))
		if isPending(t, row) {
			continue
		}

		raw := normalization.RawTrade{
			Row:   i + 1,
			Deal:  cell(row, ticket),
			Time:  cell(row, openTime),
			Type:  cell(row, typ),
			Order: cell(row, ticket),
		}

		if t == "balance" || t == "credit" {
			// Balance lines span the table: comment after the type, amount last.
			raw.Comment = cell(row, typ+1)
			raw.Profit = lastValue(row)
			sec.Raws = append(sec.Raws, raw)
			continue
		}

		raw.CloseTime = cell(row, closeTime)
		raw.Symbol = cell(row, symbol)
		raw.Volume = cell(row, volume)
		raw.Price = cell(row, price)
		raw.ClosePrice = cell(row, closePrice)
		raw.StopLoss = cell(row, sl)
		raw.TakeProfit = cell(row, tp)
		raw.Commission = cell(row, commission)
		if tx := cell(row, taxes); tx != "" {
			raw.Commission = sumCells(raw.Commission, tx)
		}
		raw.Swap = cell(row, swap)
		raw.Profit = cell(row, profit)
		raw.Comment = cell(row, comment)
		sec.Raws = append(sec.Raws, raw)
	}

	collectSummary(rows, headerRow, end, sec.Summary)
	return sec, true
}

func isPending(typ string, row []string) bool {
	for _, m := range pendingMarkers {
		if strings.Contains(typ, m) {
			return true
		}
	}
	for _, c := range row {
		lc := strings.ToLower(c)
		if lc == "cancelled" || lc == "canceled" || lc == "deleted" {
			return true
		}
	}
	return false
}

func lastValue(row []string) string {
	for i := len(row) - 1; i >= 0; i-- {
		if strings.TrimSpace(row[i]) != "" {
			return row[i]
		}
	}
	return ""
}
