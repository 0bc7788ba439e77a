// Package main analyzes one trade export and writes the report files.
//
// Usage:
//
//	analyze -input ReportHistory.xlsx [-initial-balance 10000] [-symbol EURUSD]
//	        [-runs 1000] [-horizon 100] [-seed 1] [-output-dir output]
//	        [-postgres-dsn ... -clickhouse-dsn ...] [-verify REPORT_ID]
//
// With -verify the export is re-analyzed without persistence and compared
// against the stored report; the process exits 2 on divergence.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"trade-report-lab/internal/config"
	"trade-report-lab/internal/domain"
	"trade-report-lab/internal/logging"
	"trade-report-lab/internal/observability"
	"trade-report-lab/internal/parser"
	"trade-report-lab/internal/pipeline"
	"trade-report-lab/internal/storage/backend"
	"trade-report-lab/internal/verification"
)

// errDiverged reports a stored report that its replay does not reproduce.
var errDiverged = errors.New("stored report diverges from replay")

// options are the parsed command-line flags.
type options struct {
	input          string
	initialBalance string
	symbol         string
	runs           int
	horizon        int
	seed           uint64
	outputDir      string
	postgresDSN    string
	clickhouseDSN  string
	verifyID       string
}

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	sim := cfg.Analysis.Simulation

	var opts options
	flag.StringVar(&opts.input, "input", "", "Trade export to analyze (.csv, .tsv, .txt, .xlsx)")
	flag.StringVar(&opts.initialBalance, "initial-balance", "", "Starting balance (default: declared deposit or inferred)")
	flag.StringVar(&opts.symbol, "symbol", "", "Symbol for exports without a symbol column")
	flag.IntVar(&opts.runs, "runs", sim.Runs, "Monte Carlo runs")
	flag.IntVar(&opts.horizon, "horizon", sim.Horizon, "Monte Carlo periods per run")
	flag.Uint64Var(&opts.seed, "seed", sim.Seed, "Monte Carlo base seed")
	flag.StringVar(&opts.outputDir, "output-dir", "output", "Output directory for generated files")
	flag.StringVar(&opts.postgresDSN, "postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string (optional)")
	flag.StringVar(&opts.clickhouseDSN, "clickhouse-dsn", cfg.ClickhouseDSN, "ClickHouse connection string (optional)")
	flag.StringVar(&opts.verifyID, "verify", "", "Verify a stored report against this export instead of writing outputs")
	flag.Parse()

	if opts.input == "" {
		fmt.Fprintln(os.Stderr, "Error: --input is required")
		flag.Usage()
		os.Exit(1)
	}

	logger := logging.Must(cfg.LogLevel, "console")
	err = execute(context.Background(), logger, cfg, opts)
	if err != nil && !errors.Is(err, errDiverged) {
		logger.Error("analysis failed", zap.Error(err))
	}
	_ = logger.Sync()
	os.Exit(exitCode(err))
}

// exitCode maps the outcome to the process status: 2 for a diverged
// verification, 1 for any other failure.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errDiverged):
		return 2
	default:
		return 1
	}
}

func execute(ctx context.Context, logger *zap.Logger, cfg config.Config, opts options) error {
	sim := cfg.Analysis.Simulation
	in := pipeline.Input{Name: filepath.Base(opts.input), Symbol: opts.symbol}
	if opts.initialBalance != "" {
		d, err := decimal.NewFromString(opts.initialBalance)
		if err != nil {
			return fmt.Errorf("invalid --initial-balance %q: %w", opts.initialBalance, err)
		}
		in.InitialBalance = decimal.NewNullDecimal(d)
	}
	in.Simulation = &domain.SimulationParams{
		Runs:           opts.runs,
		Horizon:        opts.horizon,
		StartingEquity: sim.StartingEquity,
		Seed:           opts.seed,
		Workers:        sim.Workers,
	}

	shutdownTracing, err := observability.InitTracing(ctx, cfg.TracingEnabled, "trade-report-lab", os.Stderr)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer shutdownTracing(ctx)

	rows, err := readRows(opts.input, in.Name)
	if err != nil {
		return err
	}
	in.Rows = rows

	if opts.verifyID != "" {
		match, err := verify(ctx, logger, cfg.Analysis, in, opts.verifyID, opts.postgresDSN, opts.clickhouseDSN)
		if err != nil {
			return fmt.Errorf("verify %s: %w", opts.verifyID, err)
		}
		if !match {
			return errDiverged
		}
		return nil
	}

	return run(ctx, logger, cfg.Analysis, in, opts.outputDir, opts.postgresDSN, opts.clickhouseDSN)
}

func readRows(path, name string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := parser.ReadRows(name, f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

func verify(ctx context.Context, logger *zap.Logger, analysis config.Analysis, in pipeline.Input, reportID, postgresDSN, clickhouseDSN string) (bool, error) {
	stores, err := backend.Open(ctx, postgresDSN, clickhouseDSN, logger)
	if err != nil {
		return false, err
	}
	defer stores.Close()

	replayed, err := pipeline.NewAnalyzer(analysis).WithLogger(logger).Analyze(ctx, in)
	if err != nil {
		return false, err
	}

	result, err := verification.NewVerifier(stores.Reports, stores.Curves).Verify(ctx, reportID, replayed)
	if err != nil {
		return false, err
	}
	for _, d := range result.Divergences {
		logger.Warn("divergence",
			zap.String("field", d.Field),
			zap.Any("stored", d.Expected),
			zap.Any("replayed", d.Actual),
		)
	}
	logger.Info("verification complete",
		zap.String("report_id", reportID),
		zap.Bool("match", result.Match),
		zap.Int("divergences", len(result.Divergences)),
	)
	return result.Match, nil
}

func run(ctx context.Context, logger *zap.Logger, analysis config.Analysis, in pipeline.Input, outputDir, postgresDSN, clickhouseDSN string) error {
	analyzer := pipeline.NewAnalyzer(analysis).WithLogger(logger)

	if postgresDSN != "" || clickhouseDSN != "" {
		stores, err := backend.Open(ctx, postgresDSN, clickhouseDSN, logger)
		if err != nil {
			return err
		}
		defer stores.Close()
		analyzer.WithStores(stores.Reports, stores.Curves)
	}

	report, err := analyzer.Analyze(ctx, in)
	if err != nil {
		return err
	}

	if err := pipeline.WriteOutputs(report, outputDir); err != nil {
		return fmt.Errorf("write outputs: %w", err)
	}

	logger.Info("report written",
		zap.String("report_id", report.ReportID),
		zap.String("platform", string(report.Platform)),
		zap.Int("closed_trades", report.DataSummary.ClosedTrades),
		zap.Float64("net_profit", report.Metrics.TotalNetProfit),
		zap.Bool("quality_passed", report.DataQuality.AllChecksPassed),
		zap.String("output_dir", outputDir),
	)
	if !report.DataQuality.AllChecksPassed {
		logger.Warn("data quality checks failed, see REPORT.md",
			zap.Int("integrity_errors", len(report.DataQuality.IntegrityErrors)))
	}
	return nil
}
