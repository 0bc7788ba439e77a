// Package pipeline runs a trade export through parsing, analytics, quality
// checks and persistence, producing a reporting.Report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"trade-report-lab/internal/config"
	"trade-report-lab/internal/correlation"
	"trade-report-lab/internal/distribution"
	"trade-report-lab/internal/domain"
	"trade-report-lab/internal/equity"
	"trade-report-lab/internal/idhash"
	"trade-report-lab/internal/metrics"
	"trade-report-lab/internal/observability"
	"trade-report-lab/internal/parser"
	"trade-report-lab/internal/reporting"
	"trade-report-lab/internal/simulation"
	"trade-report-lab/internal/storage"
)

// Input is one export to analyze.
type Input struct {
	Name           string     // file name; doubles as the platform hint
	Rows           [][]string // raw cells, see parser.ReadRows
	InitialBalance decimal.NullDecimal
	Symbol         string // default symbol for exports without one

	// Simulation overrides the configured simulation parameters when set.
	Simulation *domain.SimulationParams
}

// Analyzer produces reports from trade exports.
type Analyzer struct {
	analysis config.Analysis
	reports  storage.ReportStore
	curves   storage.EquityCurveStore
	logger   *zap.Logger
	metrics  *observability.Metrics
	clock    func() time.Time
	newID    func() string
}

// NewAnalyzer creates an analyzer without persistence.
func NewAnalyzer(analysis config.Analysis) *Analyzer {
	return &Analyzer{
		analysis: analysis,
		logger:   zap.NewNop(),
		metrics:  observability.DefaultMetrics,
		clock:    func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// WithClock sets the clock used for GeneratedAt.
func (a *Analyzer) WithClock(clock func() time.Time) *Analyzer {
	a.clock = clock
	return a
}

// WithIDGenerator sets the report ID source.
func (a *Analyzer) WithIDGenerator(newID func() string) *Analyzer {
	a.newID = newID
	return a
}

// WithStores enables persistence. Either store may be nil.
func (a *Analyzer) WithStores(reports storage.ReportStore, curves storage.EquityCurveStore) *Analyzer {
	a.reports = reports
	a.curves = curves
	return a
}

// Detached returns a copy that does not persist its reports.
func (a *Analyzer) Detached() *Analyzer {
	c := *a
	c.reports, c.curves = nil, nil
	return &c
}

// WithLogger sets the logger.
func (a *Analyzer) WithLogger(logger *zap.Logger) *Analyzer {
	a.logger = logger
	return a
}

// WithMetrics sets the metrics sink.
func (a *Analyzer) WithMetrics(m *observability.Metrics) *Analyzer {
	a.metrics = m
	return a
}

// Analyze runs every stage over in. Only an unrecognizable file, invalid
// simulation parameters, cancellation or a store failure return an error;
// row-level problems end up in the report's data quality section.
func (a *Analyzer) Analyze(ctx context.Context, in Input) (*reporting.Report, error) {
	ctx, span := observability.StartSpan(ctx, "pipeline.Analyze", attribute.String("source", in.Name))
	defer span.End()

	report, err := a.analyze(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.logger.Warn("analysis failed", zap.String("source", in.Name), zap.Error(err))
		return nil, err
	}

	a.metrics.RecordReport(report.GeneratedAt.Unix())
	a.logger.Info("report generated",
		zap.String("report_id", report.ReportID),
		zap.String("source", in.Name),
		zap.String("platform", string(report.Platform)),
		zap.Int("trades", len(report.Trades)),
		zap.Bool("quality_passed", report.DataQuality.AllChecksPassed),
	)
	return report, nil
}

func (a *Analyzer) analyze(ctx context.Context, in Input) (*reporting.Report, error) {
	var res *parser.Result
	err := a.stage(ctx, "parse", func(context.Context) error {
		var err error
		res, err = parser.Parse(in.Rows, parser.Options{FilenameHint: in.Name, DefaultSymbol: in.Symbol})
		return err
	})
	if err != nil {
		a.metrics.RecordParseFailure()
		return nil, fmt.Errorf("parse %s: %w", in.Name, err)
	}

	platform := string(res.Platform)
	a.metrics.RecordParse(platform, len(res.Trades), res.RowsSkipped)
	for _, t := range res.Trades {
		a.metrics.RecordTrade(platform, string(t.Kind))
	}
	for _, issue := range res.Issues {
		a.logger.Debug("row issue", zap.String("source", in.Name), zap.Int("row", issue.Row), zap.String("reason", issue.Reason))
	}

	report := &reporting.Report{
		ReportID:      a.newID(),
		GeneratedAt:   a.clock(),
		SourceName:    in.Name,
		InputHash:     idhash.ComputeInputHash(in.Rows),
		Platform:      res.Platform,
		DataSummary:   summarize(res),
		Trades:        res.Trades,
		SourceSummary: res.Summary,
	}

	balance := initialBalance(in, res)
	if c := checkInitialBalance(res.Trades, balance); !c.Pass {
		a.logger.Warn("no initial balance, equity starts at 0", zap.String("source", in.Name))
	}

	a.step(ctx, "equity", func() {
		report.Equity = equity.Build(res.Trades, equity.Options{InitialBalance: balance})
	})
	a.step(ctx, "metrics", func() {
		report.Metrics = metrics.Compute(res.Trades, report.Equity)
	})
	a.step(ctx, "correlation", func() {
		report.Correlations = correlation.Analyze(res.Trades, correlation.Options{MinActiveDays: a.analysis.MinCorrelationDays})
	})
	a.step(ctx, "distribution", func() {
		report.Distributions = distribution.All(res.Trades, distribution.Options{ProfitBins: a.analysis.ProfitBins})
	})

	err = a.stage(ctx, "simulation", func(ctx context.Context) error {
		params := a.simulationParams(in, report.Equity)
		sim, err := simulation.RunReturns(ctx, equity.Returns(res.Trades, report.Equity), params)
		if errors.Is(err, simulation.ErrNoReturns) {
			a.logger.Info("simulation skipped", zap.String("source", in.Name), zap.Error(err))
			return nil
		}
		if err != nil {
			return err
		}
		a.metrics.RecordSimulation(params.Runs)
		report.Simulation = sim
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}

	report.DataQuality = CheckQuality(res, balance).Section()

	if err := a.persist(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// stage times fn under a child span and the stage histogram.
func (a *Analyzer) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := observability.StartSpan(ctx, "pipeline."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	a.metrics.RecordStage(name, time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// step is stage for computations that cannot fail.
func (a *Analyzer) step(ctx context.Context, name string, fn func()) {
	_, span := observability.StartSpan(ctx, "pipeline."+name)
	defer span.End()

	start := time.Now()
	fn()
	a.metrics.RecordStage(name, time.Since(start).Seconds())
}

func (a *Analyzer) persist(ctx context.Context, report *reporting.Report) error {
	if a.reports == nil && a.curves == nil {
		return nil
	}
	return a.stage(ctx, "persist", func(ctx context.Context) error {
		if a.reports != nil {
			summary := report.Summary()
			if err := a.reports.Insert(ctx, &summary); err != nil {
				return fmt.Errorf("store report %s: %w", report.ReportID, err)
			}
			a.metrics.RecordStored("reports")
		}
		if a.curves != nil {
			if err := a.curves.InsertBulk(ctx, report.ReportID, report.Equity.Points); err != nil {
				return fmt.Errorf("store equity curve %s: %w", report.ReportID, err)
			}
			a.metrics.RecordStored("equity_curves")
		}
		return nil
	})
}

// simulationParams starts the projection from the final equity unless the
// parameters name a starting equity.
func (a *Analyzer) simulationParams(in Input, curve domain.EquityCurve) domain.SimulationParams {
	start := curve.FinalEquity
	if start <= 0 {
		start = domain.DefaultSimulationParams.StartingEquity
	}
	if in.Simulation != nil {
		p := *in.Simulation
		if p.StartingEquity <= 0 {
			p.StartingEquity = start
		}
		return p
	}
	return a.analysis.SimulationParams(start)
}

// initialBalance resolves the starting balance: an explicit value, then the
// export's declared deposit, then inference from the rows. The declared
// deposit is ignored when the log opens with its own deposit row.
func initialBalance(in Input, res *parser.Result) decimal.NullDecimal {
	if in.InitialBalance.Valid {
		return in.InitialBalance
	}
	if len(res.Trades) > 0 && res.Trades[0].IsBalanceAdjustment() {
		return decimal.NullDecimal{}
	}
	return res.InitialDeposit()
}

func summarize(res *parser.Result) reporting.DataSummary {
	s := reporting.DataSummary{
		TotalRows:   len(res.Trades),
		RowsSkipped: res.RowsSkipped,
	}

	symbols := make(map[string]struct{})
	for _, t := range res.Trades {
		switch {
		case t.IsBalanceAdjustment():
			s.BalanceRows++
		case t.IsClosed():
			s.ClosedTrades++
		default:
			s.OpeningLegs++
		}
		if t.Symbol != "" {
			symbols[t.Symbol] = struct{}{}
		}
		if t.TimeUnparsed || t.OpenTime.IsZero() {
			continue
		}
		if s.DateRangeStart.IsZero() || t.OpenTime.Before(s.DateRangeStart) {
			s.DateRangeStart = t.OpenTime
		}
		if t.OpenTime.After(s.DateRangeEnd) {
			s.DateRangeEnd = t.OpenTime
		}
	}

	s.Symbols = make([]string, 0, len(symbols))
	for sym := range symbols {
		s.Symbols = append(s.Symbols, sym)
	}
	sort.Strings(s.Symbols)
	return s
}
