package reporting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"trade-report-lab/internal/correlation"
	"trade-report-lab/internal/domain"
)

// maxBandRows limits the Monte Carlo band table to roughly this many periods.
const maxBandRows = 10

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Trade Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Source: %s | Platform: %s | Report ID: %s\n\n", r.SourceName, r.Platform, r.ReportID))
	if r.InputHash != "" {
		sb.WriteString(fmt.Sprintf("Input hash: `%s`\n\n", r.InputHash))
	}

	// Data Summary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Parsed Rows | %d |\n", r.DataSummary.TotalRows))
	sb.WriteString(fmt.Sprintf("| Closed Trades | %d |\n", r.DataSummary.ClosedTrades))
	sb.WriteString(fmt.Sprintf("| Opening Legs | %d |\n", r.DataSummary.OpeningLegs))
	sb.WriteString(fmt.Sprintf("| Balance Rows | %d |\n", r.DataSummary.BalanceRows))
	sb.WriteString(fmt.Sprintf("| Rows Skipped | %d |\n", r.DataSummary.RowsSkipped))
	sb.WriteString(fmt.Sprintf("| Symbols | %s |\n", strings.Join(r.DataSummary.Symbols, ", ")))
	sb.WriteString(fmt.Sprintf("| Date Range Start | %s |\n", fmtTime(r.DataSummary.DateRangeStart)))
	sb.WriteString(fmt.Sprintf("| Date Range End | %s |\n", fmtTime(r.DataSummary.DateRangeEnd)))
	sb.WriteString("\n")

	if len(r.SourceSummary) > 0 {
		keys := make([]string, 0, len(r.SourceSummary))
		for k := range r.SourceSummary {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString("### Source Header\n\n")
		sb.WriteString("| Field | Value |\n")
		sb.WriteString("|-------|-------|\n")
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("| %s | %s |\n", k, r.SourceSummary[k]))
		}
		sb.WriteString("\n")
	}

	// Data Quality
	sb.WriteString("## Data Quality\n\n")
	if len(r.DataQuality.SufficiencyChecks) > 0 {
		sb.WriteString("### Sufficiency Checks\n\n")
		sb.WriteString("| Check | Threshold | Actual | Status |\n")
		sb.WriteString("|-------|-----------|--------|--------|\n")
		for _, check := range r.DataQuality.SufficiencyChecks {
			status := "FAIL"
			if check.Pass {
				status = "PASS"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				check.Name, check.Threshold, check.Actual, status))
		}
		sb.WriteString("\n")

		if r.DataQuality.AllChecksPassed {
			sb.WriteString("**All checks passed.**\n\n")
		} else {
			sb.WriteString("**Some checks failed.** Treat the statistics below with caution.\n\n")
		}
	} else if len(r.DataQuality.IntegrityErrors) == 0 {
		sb.WriteString("No data quality checks performed.\n\n")
	}

	// Integrity errors (always shown if present, even without sufficiency checks)
	if len(r.DataQuality.IntegrityErrors) > 0 {
		sb.WriteString("### Integrity Errors\n\n")
		for _, err := range r.DataQuality.IntegrityErrors {
			sb.WriteString(fmt.Sprintf("- %s\n", err))
		}
		sb.WriteString("\n")
	}

	// Performance
	sb.WriteString("## Performance Metrics\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	for _, row := range metricRows(r.Metrics) {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", row.label, row.value))
	}
	sb.WriteString("\n")

	// Equity
	sb.WriteString("## Equity Curve\n\n")
	if len(r.Equity.Points) > 0 {
		sb.WriteString(fmt.Sprintf("Initial balance %.2f, final equity %.2f over %d points.\n\n",
			r.Equity.InitialBalance, r.Equity.FinalEquity, len(r.Equity.Points)))
		if r.Equity.MaxDrawdownStart >= 0 && r.Equity.MaxDrawdownEnd >= 0 {
			start := r.Equity.Points[r.Equity.MaxDrawdownStart]
			end := r.Equity.Points[r.Equity.MaxDrawdownEnd]
			sb.WriteString(fmt.Sprintf("Max drawdown %.2f (%.2f%%) from %s (peak %.2f) to %s (equity %.2f).\n",
				r.Equity.MaxDrawdownAbs, r.Equity.MaxDrawdownPct,
				fmtTime(start.Time), start.Peak, fmtTime(end.Time), end.Equity))
		} else {
			sb.WriteString("No drawdown.\n")
		}
	} else {
		sb.WriteString("No equity data available.\n")
	}
	sb.WriteString("\n")

	// Correlation
	sb.WriteString("## Symbol Correlation\n\n")
	if len(r.Correlations) > 0 {
		sb.WriteString("| Symbol A | Symbol B | r | Strength | Direction | Days A | Days B |\n")
		sb.WriteString("|----------|----------|---|----------|-----------|--------|--------|\n")
		for _, p := range r.Correlations {
			sb.WriteString(fmt.Sprintf("| %s | %s | %.4f | %s | %s | %d | %d |\n",
				p.SymbolA, p.SymbolB, p.Coefficient,
				correlation.Strength(p.Coefficient), correlation.Direction(p.Coefficient),
				p.SampleSizeA, p.SampleSizeB))
		}
	} else {
		sb.WriteString("No symbol pairs with enough active days.\n")
	}
	sb.WriteString("\n")

	// Distributions
	sb.WriteString("## Distributions\n\n")
	if len(r.Distributions) > 0 {
		for _, dim := range domain.Dimensions {
			bins, ok := r.Distributions[dim]
			if !ok {
				continue
			}
			sb.WriteString(fmt.Sprintf("### %s\n\n", dim))
			sb.WriteString("| Bin | Trades | Wins | WinRate | Profit |\n")
			sb.WriteString("|-----|--------|------|---------|--------|\n")
			for _, b := range bins {
				sb.WriteString(fmt.Sprintf("| %s | %d | %d | %.2f | %.2f |\n",
					b.Label, b.Count, b.Wins, b.WinRate, b.TotalProfit))
			}
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString("No distribution data available.\n\n")
	}

	// Monte Carlo
	sb.WriteString("## Monte Carlo Projection\n\n")
	if r.Simulation != nil {
		s := r.Simulation
		sb.WriteString(fmt.Sprintf("Runs: %d | Horizon: %d | Starting equity: %.2f | Seed: %d | Sample: %d returns\n\n",
			s.Params.Runs, s.Params.Horizon, s.Params.StartingEquity, s.Params.Seed, s.SampleSize))

		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Probability of Profit %% | %.2f |\n", s.Terminal.ProbabilityOfProfit))
		sb.WriteString(fmt.Sprintf("| Median Return %% | %.2f |\n", s.Terminal.MedianReturnPct))
		sb.WriteString(fmt.Sprintf("| Best Case (P95) Return %% | %.2f |\n", s.Terminal.BestCaseReturnPct))
		sb.WriteString(fmt.Sprintf("| Worst Case (P5) Return %% | %.2f |\n", s.Terminal.WorstCaseReturnPct))
		sb.WriteString(fmt.Sprintf("| Median Max Drawdown %% | %.2f |\n", s.Terminal.MaxDrawdownMedian))
		sb.WriteString(fmt.Sprintf("| P95 Max Drawdown %% | %.2f |\n", s.Terminal.MaxDrawdownP95))
		sb.WriteString("\n")

		if len(s.EquityBands) > 0 {
			step := len(s.EquityBands) / maxBandRows
			if step < 1 {
				step = 1
			}
			sb.WriteString("| Period | P5 | Median | P95 |\n")
			sb.WriteString("|--------|----|--------|-----|\n")
			for i := 0; i < len(s.EquityBands); i += step {
				b := s.EquityBands[i]
				sb.WriteString(fmt.Sprintf("| %d | %.2f | %.2f | %.2f |\n", b.Period, b.P5, b.Median, b.P95))
			}
			if last := s.EquityBands[len(s.EquityBands)-1]; (len(s.EquityBands)-1)%step != 0 {
				sb.WriteString(fmt.Sprintf("| %d | %.2f | %.2f | %.2f |\n", last.Period, last.P5, last.Median, last.P95))
			}
		}
	} else {
		sb.WriteString("No simulation performed.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
