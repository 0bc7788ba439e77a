package parser

import (
	"strings"

	"trade-report-lab/internal/domain"
	"trade-report-lab/internal/normalization"
)

// mt5Layout reads the "Deals" table of MetaTrader 5 tester and history reports.
type mt5Layout struct{}

func (mt5Layout) Platform() domain.Platform { return domain.PlatformMT5 }

type mt5Columns struct {
	time, deal, symbol, typ, direction, volume, price, order int
	commission, fee, swap, profit, balance, comment          int
	closeTime, closePrice                                    int
}

func (mt5Layout) TryParse(rows [][]string) (*Section, bool) {
	start := 0
	for i, row := range rows {
		if len(row) > 0 && normalizeName(row[0]) == "deals" {
			start = i + 1
			break
		}
	}

	headerRow := -1
	var cols mt5Columns
	for i := start; i < len(rows); i++ {
		h := newHeader(rows[i])
		if !h.has("time", "deal", "symbol", "type") {
			continue
		}
		if h.index("profit") < 0 && h.index("balance") < 0 {
			continue
		}
		headerRow = i
		cols = mt5Columns{
			time:       h.index("time"),
			deal:       h.index("deal"),
			symbol:     h.index("symbol"),
			typ:        h.index("type"),
			direction:  h.index("direction"),
			volume:     h.index("volume"),
			price:      h.index("price"),
			order:      h.index("order"),
			commission: h.index("commission"),
			fee:        h.index("fee"),
			swap:       h.index("swap"),
			profit:     h.index("profit"),
			balance:    h.index("balance"),
			comment:    h.index("comment"),
			closeTime:  h.index("closetime"),
			closePrice: h.index("closeprice"),
		}
		break
	}
	if headerRow < 0 {
		return nil, false
	}

	sec := &Section{
		Platform:  domain.PlatformMT5,
		Summary:   make(map[string]string),
		HasSymbol: true,
	}

	end := len(rows)
	for i := headerRow + 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			end = i
			break
		}
		raw, ok := mt5Row(row, cols)
		if !ok {
			// Totals row closes the table.
			end = i
			break
		}
		raw.Row = i + 1
		sec.Raws = append(sec.Raws, raw)
	}

	collectSummary(rows, headerRow, end, sec.Summary)
	return sec, true
}

// mt5Row resolves the leading cells of a row by shape. Exports disagree on
// whether date and time share a cell, so the deal cell found here fixes the
// shift applied to every column after it.
func mt5Row(row []string, c mt5Columns) (normalization.RawTrade, bool) {
	first := -1
	for i, v := range row {
		if v != "" {
			first = i
			break
		}
	}
	if first < 0 {
		return normalization.RawTrade{}, false
	}

	var timeCell string
	next := first
	switch v := row[first]; {
	case normalization.IsDateTime(v):
		timeCell = v
		next = first + 1
	case normalization.IsDate(v) && normalization.IsTime(cell(row, first+1)):
		timeCell = v + " " + cell(row, first+1)
		next = first + 2
	case normalization.IsDate(v):
		timeCell = v
		next = first + 1
	default:
		// Totals rows start with the commission column.
		if first > c.time && first >= c.commission && c.commission >= 0 {
			return normalization.RawTrade{}, false
		}
		next = -1
	}

	shift := 0
	if next >= 0 && c.time >= 0 {
		shift = next - (c.time + 1)
	}
	if next < 0 {
		timeCell = cell(row, c.time)
	}

	at := func(col int) string {
		if col < 0 {
			return ""
		}
		return cell(row, col+shift)
	}

	raw := normalization.RawTrade{
		Time:       timeCell,
		Deal:       at(c.deal),
		Symbol:     at(c.symbol),
		Type:       at(c.typ),
		Direction:  at(c.direction),
		Volume:     at(c.volume),
		Price:      at(c.price),
		Order:      at(c.order),
		Commission: at(c.commission),
		Swap:       at(c.swap),
		Profit:     at(c.profit),
		Balance:    at(c.balance),
		Comment:    at(c.comment),
		CloseTime:  at(c.closeTime),
		ClosePrice: at(c.closePrice),
	}
	if fee := at(c.fee); fee != "" && raw.Commission != "" {
		raw.Commission = sumCells(raw.Commission, fee)
	} else if fee != "" {
		raw.Commission = fee
	}
	if strings.TrimSpace(raw.Type) == "" && strings.TrimSpace(raw.Deal) == "" {
		return normalization.RawTrade{}, false
	}
	return raw, true
}

func sumCells(a, b string) string {
	x := normalization.ParseNumberOrZero(a)
	y := normalization.ParseNumberOrZero(b)
	return x.Add(y).String()
}
