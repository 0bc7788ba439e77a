package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"trade-report-lab/internal/reporting"
)

// Output file names written by WriteOutputs.
const (
	ReportFile   = "REPORT.md"
	TradesFile   = "trades.csv"
	EquityFile   = "equity.csv"
	MetricsFile  = "metrics.csv"
	WorkbookFile = "report.xlsx"
)

// WriteOutputs renders report into dir, creating it if needed.
func WriteOutputs(report *reporting.Report, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(dir, ReportFile), []byte(reporting.RenderMarkdown(report)), 0644); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, MetricsFile), []byte(reporting.RenderMetricsCSV(report.Metrics)), 0644); err != nil {
		return err
	}

	if err := writeFile(filepath.Join(dir, TradesFile), func(w io.Writer) error {
		return reporting.WriteTradesCSV(w, report.Trades)
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, EquityFile), func(w io.Writer) error {
		return reporting.WriteEquityCSV(w, report.Equity)
	}); err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, WorkbookFile), func(w io.Writer) error {
		return reporting.WriteWorkbook(w, report)
	})
}

func writeFile(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
