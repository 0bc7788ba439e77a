// Package simulation projects future equity by bootstrap resampling of
// historical per-trade returns.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"trade-report-lab/internal/domain"
	"trade-report-lab/internal/equity"
	"trade-report-lab/internal/metrics"
)

// Simulation errors
var (
	ErrInvalidParams = errors.New("invalid simulation parameters")
	ErrNoReturns     = errors.New("no historical returns to resample")
)

// Validate checks params for use.
func Validate(p domain.SimulationParams) error {
	switch {
	case p.Runs <= 0:
		return fmt.Errorf("%w: runs must be positive, got %d", ErrInvalidParams, p.Runs)
	case p.Horizon <= 0:
		return fmt.Errorf("%w: horizon must be positive, got %d", ErrInvalidParams, p.Horizon)
	case p.StartingEquity <= 0:
		return fmt.Errorf("%w: starting equity must be positive, got %v", ErrInvalidParams, p.StartingEquity)
	}
	return nil
}

// Run resamples the equity-relative returns of trades. The equity curve is
// rebuilt from trades with the inferred initial balance.
func Run(ctx context.Context, trades []domain.Trade, params domain.SimulationParams) (*domain.SimulationResult, error) {
	curve := equity.Build(trades, equity.Options{})
	return RunReturns(ctx, equity.Returns(trades, curve), params)
}

// RunReturns simulates params.Runs independent paths of params.Horizon
// periods. Each period draws one return (percent) with replacement and
// compounds it; equity never goes below zero. Run i uses its own generator
// seeded by (Seed, i), so results do not depend on scheduling.
// Cancellation is checked before each run.
func RunReturns(ctx context.Context, returnsPct []float64, params domain.SimulationParams) (*domain.SimulationResult, error) {
	if err := Validate(params); err != nil {
		return nil, err
	}
	if len(returnsPct) == 0 {
		return nil, ErrNoReturns
	}

	factors := make([]float64, len(returnsPct))
	for i, r := range returnsPct {
		factors[i] = 1 + r/100
	}

	workers := params.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	paths := make([][]float64, params.Runs)
	drawdowns := make([][]float64, params.Runs)
	maxDrawdowns := make([]float64, params.Runs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for run := 0; run < params.Runs; run++ {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(params.Seed, uint64(run)))
			paths[run], drawdowns[run], maxDrawdowns[run] = simulatePath(rng, factors, params)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &domain.SimulationResult{
		Params:        params,
		SampleSize:    len(returnsPct),
		Paths:         paths,
		EquityBands:   bands(paths, params.Horizon),
		DrawdownBands: bands(drawdowns, params.Horizon),
		Terminal:      terminal(paths, maxDrawdowns, params),
	}, nil
}

// simulatePath returns the equity path, the drawdown % path and the path's
// maximum drawdown %.
func simulatePath(rng *rand.Rand, factors []float64, p domain.SimulationParams) ([]float64, []float64, float64) {
	path := make([]float64, p.Horizon+1)
	dd := make([]float64, p.Horizon+1)

	eq := p.StartingEquity
	peak := eq
	maxDD := 0.0
	path[0] = eq

	for i := 1; i <= p.Horizon; i++ {
		eq *= factors[rng.IntN(len(factors))]
		if eq < 0 {
			eq = 0
		}
		if eq > peak {
			peak = eq
		}
		d := 0.0
		if peak > 0 {
			d = (peak - eq) / peak * 100
		}
		path[i] = eq
		dd[i] = d
		if d > maxDD {
			maxDD = d
		}
	}
	return path, dd, maxDD
}

// bands computes p5/median/p95 across runs at every period.
func bands(series [][]float64, horizon int) []domain.PercentileBand {
	out := make([]domain.PercentileBand, horizon+1)
	column := make([]float64, len(series))
	for period := 0; period <= horizon; period++ {
		for run := range series {
			column[run] = series[run][period]
		}
		sort.Float64s(column)
		out[period] = domain.PercentileBand{
			Period: period,
			P5:     metrics.Percentile(column, 0.05),
			Median: metrics.Percentile(column, 0.50),
			P95:    metrics.Percentile(column, 0.95),
		}
	}
	return out
}

func terminal(paths [][]float64, maxDrawdowns []float64, p domain.SimulationParams) domain.TerminalSummary {
	finals := make([]float64, len(paths))
	profitable := 0
	for i, path := range paths {
		final := path[len(path)-1]
		finals[i] = (final - p.StartingEquity) / p.StartingEquity * 100
		if final > p.StartingEquity {
			profitable++
		}
	}
	sort.Float64s(finals)

	dds := make([]float64, len(maxDrawdowns))
	copy(dds, maxDrawdowns)
	sort.Float64s(dds)

	return domain.TerminalSummary{
		ProbabilityOfProfit: float64(profitable) / float64(len(paths)) * 100,
		MedianReturnPct:     metrics.Percentile(finals, 0.50),
		BestCaseReturnPct:   metrics.Percentile(finals, 0.95),
		WorstCaseReturnPct:  metrics.Percentile(finals, 0.05),
		MaxDrawdownP95:      metrics.Percentile(dds, 0.95),
		MaxDrawdownMedian:   metrics.Percentile(dds, 0.50),
	}
}
