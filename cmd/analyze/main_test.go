package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"trade-report-lab/internal/config"
	"trade-report-lab/internal/pipeline"
)

const deals = `Time,Deal,Symbol,Type,Direction,Volume,Price,Order,Commission,Swap,Profit,Balance,Comment
2024.01.01 00:00:00,1,,balance,,,,,0.00,0.00,10000.00,10000.00,
2024.01.02 10:00:00,2,EURUSD,buy,in,0.10,1.10000,2,0.00,0.00,0.00,10000.00,
2024.01.02 12:00:00,3,EURUSD,sell,out,0.10,1.11000,3,0.00,0.00,100.00,10100.00,
`

func writeInput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ReportHistory.csv")
	if err := os.WriteFile(path, []byte(deals), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testOptions(t *testing.T) options {
	t.Helper()
	return options{
		input:     writeInput(t),
		runs:      20,
		horizon:   10,
		seed:      1,
		outputDir: t.TempDir(),
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"failure", errors.New("boom"), 1},
		{"diverged", errDiverged, 2},
		{"wrapped divergence", fmt.Errorf("verify rep-1: %w", errDiverged), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestExecute_WritesOutputs(t *testing.T) {
	opts := testOptions(t)
	cfg := config.Config{Analysis: config.DefaultAnalysis()}

	if err := execute(context.Background(), zap.NewNop(), cfg, opts); err != nil {
		t.Fatalf("execute: %v", err)
	}

	for _, name := range []string{pipeline.ReportFile, pipeline.TradesFile, pipeline.EquityFile, pipeline.MetricsFile, pipeline.WorkbookFile} {
		if _, err := os.Stat(filepath.Join(opts.outputDir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}

func TestExecute_ReturnsErrors(t *testing.T) {
	cfg := config.Config{Analysis: config.DefaultAnalysis()}

	badBalance := testOptions(t)
	badBalance.initialBalance = "lots"
	missing := testOptions(t)
	missing.input = filepath.Join(t.TempDir(), "missing.csv")

	for name, opts := range map[string]options{"initial balance": badBalance, "missing input": missing} {
		t.Run(name, func(t *testing.T) {
			err := execute(context.Background(), zap.NewNop(), cfg, opts)
			if err == nil {
				t.Fatal("expected an error")
			}
			if exitCode(err) != 1 {
				t.Errorf("exit code = %d, want 1", exitCode(err))
			}
		})
	}
}
