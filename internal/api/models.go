package api

import (
	"time"

	"trade-report-lab/internal/correlation"
	"trade-report-lab/internal/domain"
	"trade-report-lab/internal/reporting"
)

// ErrorResponse is the envelope of every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ReportSummary is the archived view of a report.
type ReportSummary struct {
	ReportID       string    `json:"report_id"`
	CreatedAt      time.Time `json:"created_at"`
	SourceName     string    `json:"source_name"`
	InputHash      string    `json:"input_hash"`
	Platform       string    `json:"platform"`
	TotalTrades    int       `json:"total_trades"`
	InitialEquity  float64   `json:"initial_equity"`
	FinalEquity    float64   `json:"final_equity"`
	TotalNetProfit float64   `json:"total_net_profit"`
	ProfitFactor   float64   `json:"profit_factor"`
	WinRate        float64   `json:"win_rate"`
	MaxDrawdownAbs float64   `json:"max_drawdown_abs"`
	MaxDrawdownPct float64   `json:"max_drawdown_pct"`
	Sharpe         float64   `json:"sharpe"`
	Sortino        float64   `json:"sortino"`
	Calmar         float64   `json:"calmar"`
}

// ReportDetail is a full report. Sections other than Summary are present
// only while the report is still cached.
type ReportDetail struct {
	Summary       ReportSummary     `json:"summary"`
	DataQuality   *DataQuality      `json:"data_quality,omitempty"`
	Metrics       map[string]string `json:"metrics,omitempty"`
	Correlations  []Correlation     `json:"correlations,omitempty"`
	Distributions map[string][]Bin  `json:"distributions,omitempty"`
	Simulation    *Simulation       `json:"simulation,omitempty"`
	SourceSummary map[string]string `json:"source_summary,omitempty"`
}

type DataQuality struct {
	AllChecksPassed bool           `json:"all_checks_passed"`
	Checks          []QualityCheck `json:"checks"`
	IntegrityErrors []string       `json:"integrity_errors"`
}

type QualityCheck struct {
	Name      string `json:"name"`
	Threshold string `json:"threshold"`
	Actual    string `json:"actual"`
	Pass      bool   `json:"pass"`
}

type Correlation struct {
	SymbolA     string  `json:"symbol_a"`
	SymbolB     string  `json:"symbol_b"`
	Coefficient float64 `json:"coefficient"`
	Strength    string  `json:"strength"`
	Direction   string  `json:"direction"`
	DaysA       int     `json:"days_a"`
	DaysB       int     `json:"days_b"`
}

type Bin struct {
	Label       string  `json:"label"`
	Lower       float64 `json:"lower"`
	Upper       float64 `json:"upper"`
	Count       int     `json:"count"`
	Wins        int     `json:"wins"`
	TotalProfit float64 `json:"total_profit"`
	WinRate     float64 `json:"win_rate"`
}

type Simulation struct {
	Runs                int     `json:"runs"`
	Horizon             int     `json:"horizon"`
	StartingEquity      float64 `json:"starting_equity"`
	Seed                uint64  `json:"seed"`
	SampleSize          int     `json:"sample_size"`
	ProbabilityOfProfit float64 `json:"probability_of_profit"`
	MedianReturnPct     float64 `json:"median_return_pct"`
	BestCaseReturnPct   float64 `json:"best_case_return_pct"`
	WorstCaseReturnPct  float64 `json:"worst_case_return_pct"`
	MaxDrawdownP95      float64 `json:"max_drawdown_p95"`
	MaxDrawdownMedian   float64 `json:"max_drawdown_median"`
	EquityBands         []Band  `json:"equity_bands"`
}

type Band struct {
	Period int     `json:"period"`
	P5     float64 `json:"p5"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
}

type EquityPoint struct {
	Index       int       `json:"index"`
	Time        time.Time `json:"time"`
	Equity      float64   `json:"equity"`
	Peak        float64   `json:"peak"`
	DrawdownAbs float64   `json:"drawdown_abs"`
	DrawdownPct float64   `json:"drawdown_pct"`
}

func toSummary(s domain.ReportSummary) ReportSummary {
	return ReportSummary{
		ReportID:       s.ReportID,
		CreatedAt:      s.CreatedAt,
		SourceName:     s.SourceName,
		InputHash:      s.InputHash,
		Platform:       string(s.Platform),
		TotalTrades:    s.TotalTrades,
		InitialEquity:  s.InitialEquity,
		FinalEquity:    s.FinalEquity,
		TotalNetProfit: s.TotalNetProfit,
		ProfitFactor:   s.ProfitFactor,
		WinRate:        s.WinRate,
		MaxDrawdownAbs: s.MaxDrawdownAbs,
		MaxDrawdownPct: s.MaxDrawdownPct,
		Sharpe:         s.Sharpe,
		Sortino:        s.Sortino,
		Calmar:         s.Calmar,
	}
}

func toDetail(r *reporting.Report) ReportDetail {
	d := ReportDetail{
		Summary: toSummary(r.Summary()),
		DataQuality: &DataQuality{
			AllChecksPassed: r.DataQuality.AllChecksPassed,
			Checks:          make([]QualityCheck, 0, len(r.DataQuality.SufficiencyChecks)),
			IntegrityErrors: r.DataQuality.IntegrityErrors,
		},
		Metrics:       reporting.MetricValues(r.Metrics),
		Correlations:  make([]Correlation, 0, len(r.Correlations)),
		Distributions: make(map[string][]Bin, len(r.Distributions)),
		SourceSummary: r.SourceSummary,
	}

	for _, c := range r.DataQuality.SufficiencyChecks {
		d.DataQuality.Checks = append(d.DataQuality.Checks, QualityCheck(c))
	}
	for _, p := range r.Correlations {
		d.Correlations = append(d.Correlations, Correlation{
			SymbolA:     p.SymbolA,
			SymbolB:     p.SymbolB,
			Coefficient: p.Coefficient,
			Strength:    correlation.Strength(p.Coefficient),
			Direction:   correlation.Direction(p.Coefficient),
			DaysA:       p.SampleSizeA,
			DaysB:       p.SampleSizeB,
		})
	}
	for dim, bins := range r.Distributions {
		out := make([]Bin, 0, len(bins))
		for _, b := range bins {
			out = append(out, Bin(b))
		}
		d.Distributions[string(dim)] = out
	}

	if sim := r.Simulation; sim != nil {
		d.Simulation = &Simulation{
			Runs:                sim.Params.Runs,
			Horizon:             sim.Params.Horizon,
			StartingEquity:      sim.Params.StartingEquity,
			Seed:                sim.Params.Seed,
			SampleSize:          sim.SampleSize,
			ProbabilityOfProfit: sim.Terminal.ProbabilityOfProfit,
			MedianReturnPct:     sim.Terminal.MedianReturnPct,
			BestCaseReturnPct:   sim.Terminal.BestCaseReturnPct,
			WorstCaseReturnPct:  sim.Terminal.WorstCaseReturnPct,
			MaxDrawdownP95:      sim.Terminal.MaxDrawdownP95,
			MaxDrawdownMedian:   sim.Terminal.MaxDrawdownMedian,
			EquityBands:         make([]Band, 0, len(sim.EquityBands)),
		}
		for _, b := range sim.EquityBands {
			d.Simulation.EquityBands = append(d.Simulation.EquityBands, Band(b))
		}
	}
	return d
}

func toEquityPoints(points []domain.EquityPoint) []EquityPoint {
	out := make([]EquityPoint, 0, len(points))
	for i, p := range points {
		out = append(out, EquityPoint{
			Index:       i,
			Time:        p.Time,
			Equity:      p.Equity,
			Peak:        p.Peak,
			DrawdownAbs: p.DrawdownAbs,
			DrawdownPct: p.DrawdownPct,
		})
	}
	return out
}
