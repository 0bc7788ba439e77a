package domain

// Dimension selects how trades are histogrammed.
type Dimension string

const (
	DimensionProfit    Dimension = "profit"
	DimensionDuration  Dimension = "duration"
	DimensionHourOfDay Dimension = "hourOfDay"
	DimensionDayOfWeek Dimension = "dayOfWeek"
)

// Dimensions lists every supported dimension in report order.
var Dimensions = []Dimension{
	DimensionProfit,
	DimensionDuration,
	DimensionHourOfDay,
	DimensionDayOfWeek,
}

// DistributionBin is one histogram bucket.
type DistributionBin struct {
	Label       string
	Lower       float64 // inclusive lower edge (profit, hours, hour or weekday index)
	Upper       float64 // exclusive upper edge
	Count       int
	Wins        int
	TotalProfit float64
	WinRate     float64 // 0..100, 0 for empty bins
}
