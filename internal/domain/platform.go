package domain

// Platform identifies the broker/charting platform a trade log was exported from.
type Platform string

const (
	PlatformMT5         Platform = "MT5"
	PlatformMT4         Platform = "MT4"
	PlatformTradingView Platform = "TRADINGVIEW"
	PlatformGeneric     Platform = "GENERIC"
)

// String returns the string representation of Platform.
func (p Platform) String() string {
	return string(p)
}

// IsValid checks if the platform is a known value.
func (p Platform) IsValid() bool {
	switch p {
	case PlatformMT5, PlatformMT4, PlatformTradingView, PlatformGeneric:
		return true
	default:
		return false
	}
}
