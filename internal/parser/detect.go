package parser

import (
	"path/filepath"
	"strings"

	"trade-report-lab/internal/domain"
)

// DetectPlatform guesses the exporting platform. The filename hint is
// consulted first, then header signatures: "Deal" with "Balance" or
// "Profit" is MT5, "Ticket" with "Profit" is MT4, any mention of
// TradingView wins next. MT5 is the fallback.
func DetectPlatform(rows [][]string, filenameHint string) domain.Platform {
	if p, ok := platformFromName(filenameHint); ok {
		return p
	}

	var hasDeal, hasBalance, hasProfit, hasTicket, hasTradingView, hasTradeNo bool
	for _, row := range rows {
		for _, cell := range row {
			c := strings.ToLower(cell)
			switch c {
			case "deal":
				hasDeal = true
			case "balance":
				hasBalance = true
			case "profit":
				hasProfit = true
			case "ticket":
				hasTicket = true
			case "trade #":
				hasTradeNo = true
			}
			if strings.HasPrefix(c, "profit ") {
				hasProfit = true
			}
			if strings.Contains(c, "tradingview") {
				hasTradingView = true
			}
		}
	}

	switch {
	case hasDeal && (hasBalance || hasProfit):
		return domain.PlatformMT5
	case hasTicket && hasProfit:
		return domain.PlatformMT4
	case hasTradingView || hasTradeNo:
		return domain.PlatformTradingView
	default:
		return domain.PlatformMT5
	}
}

func platformFromName(name string) (domain.Platform, bool) {
	base := strings.ToLower(filepath.Base(name))
	switch {
	case base == "" || base == ".":
		return "", false
	case strings.Contains(base, "tradingview"):
		return domain.PlatformTradingView, true
	case strings.Contains(base, "mt5"), strings.Contains(base, "reporttester"):
		return domain.PlatformMT5, true
	case strings.Contains(base, "mt4"), strings.Contains(base, "statement"):
		return domain.PlatformMT4, true
	}
	return "", false
}
