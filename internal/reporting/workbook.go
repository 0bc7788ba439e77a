package reporting

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"trade-report-lab/internal/correlation"
	"trade-report-lab/internal/domain"
)

const (
	summarySheet      = "Summary"
	tradesSheet       = "Trades"
	equitySheet       = "Equity"
	correlationSheet  = "Correlation"
	distributionSheet = "Distribution"
	simulationSheet   = "Monte Carlo"
)

// WorkbookSheets lists the sheets written by WriteWorkbook, in order.
var WorkbookSheets = []string{
	summarySheet, tradesSheet, equitySheet, correlationSheet, distributionSheet, simulationSheet,
}

// WriteWorkbook writes the report as an xlsx workbook with one sheet per section.
func WriteWorkbook(w io.Writer, r *Report) error {
	fx := excelize.NewFile()
	defer fx.Close()

	if err := fx.SetSheetName(fx.GetSheetName(0), summarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range WorkbookSheets[1:] {
		if _, err := fx.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	header, err := fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2F4F4F"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
		},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	sw := sheetWriter{fx: fx, header: header}
	sw.summary(r)
	sw.trades(r.Trades)
	sw.equity(r.Equity)
	sw.correlations(r.Correlations)
	sw.distributions(r.Distributions)
	sw.simulation(r.Simulation)
	if sw.err != nil {
		return sw.err
	}

	return fx.Write(w)
}

// sheetWriter keeps the first error so the section writers stay linear.
type sheetWriter struct {
	fx     *excelize.File
	header int
	err    error
}

func (s *sheetWriter) row(sheet string, n int, values ...interface{}) {
	if s.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		s.err = err
		return
	}
	if err := s.fx.SetSheetRow(sheet, cell, &values); err != nil {
		s.err = fmt.Errorf("write %s row %d: %w", sheet, n, err)
	}
}

func (s *sheetWriter) headerRow(sheet string, n int, titles ...string) {
	values := make([]interface{}, len(titles))
	for i, t := range titles {
		values[i] = t
	}
	s.row(sheet, n, values...)
	if s.err != nil {
		return
	}

	first, _ := excelize.CoordinatesToCellName(1, n)
	last, _ := excelize.CoordinatesToCellName(len(titles), n)
	if err := s.fx.SetCellStyle(sheet, first, last, s.header); err != nil {
		s.err = err
		return
	}
	lastCol, _ := excelize.ColumnNumberToName(len(titles))
	if err := s.fx.SetColWidth(sheet, "A", lastCol, 16); err != nil {
		s.err = err
	}
}

func (s *sheetWriter) summary(r *Report) {
	s.headerRow(summarySheet, 1, "Metric", "Value")
	s.row(summarySheet, 2, "Report ID", r.ReportID)
	s.row(summarySheet, 3, "Source", r.SourceName)
	s.row(summarySheet, 4, "Platform", r.Platform.String())
	s.row(summarySheet, 5, "Generated", fmtTime(r.GeneratedAt))

	n := 6
	for _, m := range metricRows(r.Metrics) {
		s.row(summarySheet, n, m.label, m.value)
		n++
	}
}

func (s *sheetWriter) trades(trades []domain.Trade) {
	s.headerRow(tradesSheet, 1, tradeHeader...)
	for i, t := range trades {
		cells := tradeRow(t)
		values := make([]interface{}, len(cells))
		for j, c := range cells {
			values[j] = c
		}
		// Profit as a number so spreadsheet formulas work.
		if t.Profit.Valid {
			values[10] = t.ProfitFloat()
		}
		s.row(tradesSheet, i+2, values...)
	}
}

func (s *sheetWriter) equity(curve domain.EquityCurve) {
	s.headerRow(equitySheet, 1, "Index", "Time", "Equity", "Peak", "Drawdown", "Drawdown %")
	for i, p := range curve.Points {
		s.row(equitySheet, i+2, i, fmtTime(p.Time), p.Equity, p.Peak, p.DrawdownAbs, p.DrawdownPct)
	}
}

func (s *sheetWriter) correlations(pairs []domain.CorrelationPair) {
	s.headerRow(correlationSheet, 1, "Symbol A", "Symbol B", "r", "Strength", "Direction", "Days A", "Days B")
	for i, p := range pairs {
		s.row(correlationSheet, i+2, p.SymbolA, p.SymbolB, p.Coefficient,
			correlation.Strength(p.Coefficient), correlation.Direction(p.Coefficient),
			p.SampleSizeA, p.SampleSizeB)
	}
}

func (s *sheetWriter) distributions(dists map[domain.Dimension][]domain.DistributionBin) {
	s.headerRow(distributionSheet, 1, "Dimension", "Bin", "Lower", "Upper", "Trades", "Wins", "Win Rate %", "Profit")
	n := 2
	for _, dim := range domain.Dimensions {
		for _, b := range dists[dim] {
			s.row(distributionSheet, n, string(dim), b.Label, b.Lower, b.Upper, b.Count, b.Wins, b.WinRate, b.TotalProfit)
			n++
		}
	}
}

func (s *sheetWriter) simulation(sim *domain.SimulationResult) {
	s.headerRow(simulationSheet, 1, "Period", "Equity P5", "Equity Median", "Equity P95",
		"Drawdown P5", "Drawdown Median", "Drawdown P95")
	if sim == nil {
		return
	}
	for i, b := range sim.EquityBands {
		var dd domain.PercentileBand
		if i < len(sim.DrawdownBands) {
			dd = sim.DrawdownBands[i]
		}
		s.row(simulationSheet, i+2, b.Period, b.P5, b.Median, b.P95, dd.P5, dd.Median, dd.P95)
	}
}
