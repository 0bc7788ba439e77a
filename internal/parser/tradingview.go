package parser

import (
	"strings"

	"trade-report-lab/internal/domain"
	"trade-report-lab/internal/normalization"
)

// tradingViewLayout reads the Strategy Tester "List of trades" export.
// Every trade is two rows, an Entry and an Exit, both carrying the trade's profit.
type tradingViewLayout struct{}

func (tradingViewLayout) Platform() domain.Platform { return domain.PlatformTradingView }

func (tradingViewLayout) TryParse(rows [][]string) (*Section, bool) {
	headerRow := -1
	var h header
	for i, row := range rows {
		h = newHeader(row)
		if h.has("trade#", "type") && h.match(nil, isDateColumn) >= 0 {
			headerRow = i
			break
		}
	}
	if headerRow < 0 {
		return nil, false
	}

	tradeNo := h.index("trade#")
	typ := h.index("type")
	signal := h.index("signal")
	when := h.match(nil, isDateColumn)
	price := h.match(nil, func(n string) bool { return strings.HasPrefix(n, "price") })
	contracts := h.match(nil, func(n string) bool {
		return strings.HasPrefix(n, "contracts") || strings.HasPrefix(n, "quantity") || n == "qty"
	})
	profit := h.match(nil, func(n string) bool {
		return (strings.HasPrefix(n, "profit") || strings.HasPrefix(n, "netp&l")) && !strings.Contains(n, "%")
	})
	symbol := h.index("symbol")

	sec := &Section{
		Platform:  domain.PlatformTradingView,
		Summary:   make(map[string]string),
		HasSymbol: symbol >= 0,
	}

	for i := headerRow + 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}
		sec.Raws = append(sec.Raws, normalization.RawTrade{
			Row:     i + 1,
			Deal:    cell(row, tradeNo),
			Order:   cell(row, tradeNo),
			Type:    cell(row, typ),
			Time:    cell(row, when),
			Price:   cell(row, price),
			Volume:  cell(row, contracts),
			Profit:  cell(row, profit),
			Symbol:  cell(row, symbol),
			Comment: cell(row, signal),
		})
	}
	return sec, true
}

func isDateColumn(n string) bool {
	return n == "date/time" || n == "datetime" || n == "dateandtime" || n == "date" || n == "time"
}
