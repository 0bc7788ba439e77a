package domain

// SimulationParams configures a Monte Carlo projection.
type SimulationParams struct {
	Runs           int     // number of independent paths (N)
	Horizon        int     // periods per path (H); paths hold H+1 points
	StartingEquity float64 // equity at period 0
	Seed           uint64  // base seed; run i uses (Seed, i)
	Workers        int     // parallel runs; <= 0 means GOMAXPROCS
}

// DefaultSimulationParams mirrors the report defaults.
var DefaultSimulationParams = SimulationParams{
	Runs:           1000,
	Horizon:        100,
	StartingEquity: 10000,
	Seed:           1,
}

// PercentileBand holds cross-run percentiles at one period index.
type PercentileBand struct {
	Period int
	P5     float64
	Median float64
	P95    float64
}

// TerminalSummary aggregates the final period across runs.
type TerminalSummary struct {
	ProbabilityOfProfit float64 // % of runs ending above starting equity
	MedianReturnPct     float64
	BestCaseReturnPct   float64 // 95th percentile
	WorstCaseReturnPct  float64 // 5th percentile
	MaxDrawdownP95      float64 // 95th percentile of per-run max drawdown %
	MaxDrawdownMedian   float64
}

// SimulationResult is the outcome of a Monte Carlo projection.
type SimulationResult struct {
	Params        SimulationParams
	SampleSize    int         // historical returns resampled
	Paths         [][]float64 // Runs x (Horizon+1) equity values
	EquityBands   []PercentileBand
	DrawdownBands []PercentileBand // drawdown % per period
	Terminal      TerminalSummary
}
