package reporting

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"trade-report-lab/internal/domain"
	"trade-report-lab/internal/equity"
	"trade-report-lab/internal/metrics"
	"trade-report-lab/internal/parser"
)

const mt5Deals = `Time,Deal,Symbol,Type,Direction,Volume,Price,Order,Commission,Swap,Profit,Balance,Comment
2024.01.01 00:00:00,1,,balance,,,,,0.00,0.00,10000.00,10000.00,
2024.01.02 10:00:00,2,EURUSD,buy,in,0.10,1.10000,2,-0.70,0.00,0.00,9999.30,
2024.01.02 12:00:00,3,EURUSD,sell,out,0.10,1.11000,3,-0.70,0.00,100.00,10098.60,"tp 1.11, trailing"
2024.01.03 09:00:00,4,GBPUSD,sell,in,0.20,1.27000,4,0.00,0.00,0.00,10098.60,
2024.01.03 15:00:00,5,GBPUSD,buy,out,0.20,1.27250,5,0.00,-1.50,-50.00,10047.10,
`

const tvTrades = `Trade #,Type,Signal,Date/Time,Price USD,Contracts,Profit USD,Profit %
1,Entry long,Long,2024-03-01 09:30,100.5,10,,
1,Exit long,TP,2024-03-01 15:00,104.5,10,40,3.98
2,Entry short,Short,2024-03-04 10:00,105,5,,
2,Exit short,SL,2024-03-04 11:00,107,5,-10,-1.9
`

func parse(t *testing.T, name, data string, opts parser.Options) *parser.Result {
	t.Helper()
	res, err := parser.ParseFile(name, strings.NewReader(data), opts)
	require.NoError(t, err)
	return res
}

func roundTrip(t *testing.T, trades []domain.Trade) *parser.Result {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, WriteTradesCSV(&buf, trades))
	return parse(t, "trades.csv", buf.String(), parser.Options{})
}

func assertSameTrades(t *testing.T, want, got []domain.Trade) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		w, g := want[i], got[i]
		assert.Equal(t, w.Symbol, g.Symbol, "trade %d symbol", i)
		assert.True(t, w.Volume.Equal(g.Volume), "trade %d volume %s != %s", i, w.Volume, g.Volume)
		assert.Equal(t, w.Profit.Valid, g.Profit.Valid, "trade %d profit validity", i)
		assert.True(t, w.Profit.Decimal.Equal(g.Profit.Decimal), "trade %d profit", i)
		assert.True(t, w.OpenTime.Equal(g.OpenTime), "trade %d time", i)
		assert.True(t, w.CloseTime.Equal(g.CloseTime), "trade %d close %s != %s", i, w.CloseTime, g.CloseTime)
		assert.True(t, w.PositionOpenTime.Equal(g.PositionOpenTime), "trade %d entry", i)
		assert.Equal(t, w.Duration(), g.Duration(), "trade %d duration", i)
		assert.Equal(t, w.Kind, g.Kind, "trade %d kind", i)
		assert.Equal(t, w.State, g.State, "trade %d state", i)
		assert.Equal(t, w.Side, g.Side, "trade %d side", i)
		assert.Equal(t, w.PositionSide, g.PositionSide, "trade %d position side", i)
	}
}

func TestWriteTradesCSV_RoundTripMT5(t *testing.T) {
	first := parse(t, "ReportTester.csv", mt5Deals, parser.Options{})
	second := roundTrip(t, first.Trades)

	assert.Equal(t, domain.PlatformMT5, second.Platform)
	assert.Equal(t, 0, second.RowsSkipped)
	assertSameTrades(t, first.Trades, second.Trades)

	// Quoted comment survives.
	assert.Equal(t, first.Trades[2].Comment, second.Trades[2].Comment)
	assert.True(t, second.Trades[2].TakeProfit.Valid)
	assert.Equal(t, "-0.7", second.Trades[2].Commission.String())
}

func TestWriteTradesCSV_RoundTripTradingView(t *testing.T) {
	first := parse(t, "tradingview_list.csv", tvTrades, parser.Options{DefaultSymbol: "AAPL"})
	require.Equal(t, domain.PlatformTradingView, first.Platform)

	second := roundTrip(t, first.Trades)
	assertSameTrades(t, first.Trades, second.Trades)
}

const mt4Statement = `Ticket,Open Time,Type,Size,Item,Price,S / L,T / P,Close Time,Price,Commission,Taxes,Swap,Profit
1000,2024.02.01 08:00,balance,Deposit,,,,,,,,,,5000.00
1001,2024.02.01 09:00,buy,1.00,eurusd,1.08000,0.00000,0.00000,2024.02.01 17:00,1.08500,-7.00,0.00,0.00,500.00
1003,2024.02.03 10:00,sell,0.50,gbpusd,1.26000,0.00000,0.00000,2024.02.05 12:00,1.26200,-3.50,0.00,-1.00,-100.00
`

func TestWriteTradesCSV_RoundTripMT4(t *testing.T) {
	first := parse(t, "statement.csv", mt4Statement, parser.Options{})
	require.Equal(t, domain.PlatformMT4, first.Platform)
	require.Len(t, first.Trades, 3)

	second := roundTrip(t, first.Trades)
	assert.Equal(t, 0, second.RowsSkipped)
	assertSameTrades(t, first.Trades, second.Trades)

	assert.Equal(t, 8*time.Hour, second.Trades[1].Duration())
	assert.Equal(t, 50*time.Hour, second.Trades[2].Duration())
	for i := 1; i < 3; i++ {
		assert.True(t, first.Trades[i].PriceOpen.Decimal.Equal(second.Trades[i].PriceOpen.Decimal), "trade %d open price", i)
		assert.True(t, first.Trades[i].PriceClose.Decimal.Equal(second.Trades[i].PriceClose.Decimal), "trade %d close price", i)
	}
}

func TestWriteTradesCSV_RoundTripRowAgainstPosition(t *testing.T) {
	entry := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	trade := domain.Trade{
		OpenTime:         entry,
		CloseTime:        entry.Add(3 * time.Hour),
		PositionOpenTime: entry,
		DealID:           "42",
		Symbol:           "USDJPY",
		Type:             "sell",
		Kind:             domain.KindTrade,
		Side:             domain.SideShort,
		PositionSide:     domain.SideLong,
		State:            domain.StateOut,
		Volume:           decimal.NewFromInt(1),
		PriceOpen:        decimal.NewNullDecimal(decimal.RequireFromString("150.10")),
		PriceClose:       decimal.NewNullDecimal(decimal.RequireFromString("150.40")),
		Profit:           decimal.NewNullDecimal(decimal.NewFromInt(200)),
	}

	second := roundTrip(t, []domain.Trade{trade})
	assertSameTrades(t, []domain.Trade{trade}, second.Trades)
}

func TestWriteTradesCSV_Header(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTradesCSV(&buf, nil))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, tradeHeader, records[0])
}

func TestWriteEquityCSV(t *testing.T) {
	res := parse(t, "ReportTester.csv", mt5Deals, parser.Options{})
	curve := equity.Build(res.Trades, equity.Options{})

	var buf bytes.Buffer
	require.NoError(t, WriteEquityCSV(&buf, curve))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(curve.Points)+1)
	assert.Equal(t, "equity", records[0][2])
	assert.Equal(t, "10047.100000", records[len(records)-1][2])
}

func TestRenderMetricsCSV(t *testing.T) {
	out := RenderMetricsCSV(domain.MetricsResult{TotalTrades: 3, WinRate: 66.666667})

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "metric,value", lines[0])
	assert.Contains(t, lines, "total_trades,3")
	assert.Contains(t, lines, "win_rate,66.666667")

	values := MetricValues(domain.MetricsResult{TotalTrades: 3})
	assert.Equal(t, "3", values["total_trades"])
	assert.Len(t, values, len(lines)-1)
}

func sampleReport(t *testing.T) *Report {
	t.Helper()
	res := parse(t, "ReportTester.csv", mt5Deals, parser.Options{})
	curve := equity.Build(res.Trades, equity.Options{})

	return &Report{
		ReportID:    "rep-1",
		GeneratedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		SourceName:  "ReportTester.csv",
		Platform:    res.Platform,
		Trades:      res.Trades,
		Equity:      curve,
		Metrics:     metrics.Compute(res.Trades, curve),
		Correlations: []domain.CorrelationPair{
			{SymbolA: "EURUSD", SymbolB: "GBPUSD", Coefficient: 0.91, SampleSizeA: 5, SampleSizeB: 5},
		},
		Distributions: map[domain.Dimension][]domain.DistributionBin{
			domain.DimensionHourOfDay: {{Label: "10:00", Count: 1, Wins: 1, WinRate: 100}},
		},
		Simulation: &domain.SimulationResult{
			Params:        domain.DefaultSimulationParams,
			EquityBands:   []domain.PercentileBand{{Period: 0, P5: 10000, Median: 10000, P95: 10000}},
			DrawdownBands: []domain.PercentileBand{{Period: 0}},
		},
		DataQuality: DataQualitySection{
			SufficiencyChecks: []SufficiencyCheckRow{
				{Name: "Closed trades", Threshold: ">= 30", Actual: "2", Pass: false},
			},
			IntegrityErrors: []string{"row 7: unparsed timestamp"},
		},
		SourceSummary: map[string]string{"Initial Deposit": "10000.00"},
	}
}

func TestRenderMarkdown(t *testing.T) {
	md := RenderMarkdown(sampleReport(t))

	for _, section := range []string{
		"# Trade Report",
		"## Data Summary",
		"### Source Header",
		"## Data Quality",
		"**Some checks failed.**",
		"### Integrity Errors",
		"## Performance Metrics",
		"## Equity Curve",
		"## Symbol Correlation",
		"## Distributions",
		"### hourOfDay",
		"## Monte Carlo Projection",
	} {
		assert.Contains(t, md, section)
	}
	assert.Contains(t, md, "| EURUSD | GBPUSD | 0.9100 | very strong | positive | 5 | 5 |")
	assert.Contains(t, md, "| Total Trades | 2 |")
}

func TestRenderMarkdown_Empty(t *testing.T) {
	md := RenderMarkdown(&Report{})

	assert.Contains(t, md, "No equity data available.")
	assert.Contains(t, md, "No symbol pairs with enough active days.")
	assert.Contains(t, md, "No simulation performed.")
	assert.Contains(t, md, "No data quality checks performed.")
}

func TestWriteWorkbook(t *testing.T) {
	r := sampleReport(t)

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, r))

	fx, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer fx.Close()

	assert.Equal(t, WorkbookSheets, fx.GetSheetList())

	rows, err := fx.GetRows(tradesSheet)
	require.NoError(t, err)
	require.Len(t, rows, len(r.Trades)+1)
	assert.Equal(t, "Time", rows[0][0])
	assert.Equal(t, "EURUSD", rows[3][2])
	assert.Equal(t, "100", rows[3][10])

	summary, err := fx.GetRows(summarySheet)
	require.NoError(t, err)
	assert.Equal(t, "rep-1", summary[1][1])
}

func TestReport_Summary(t *testing.T) {
	r := sampleReport(t)
	r.InputHash = "abc"

	s := r.Summary()
	assert.Equal(t, "rep-1", s.ReportID)
	assert.Equal(t, "abc", s.InputHash)
	assert.Equal(t, domain.PlatformMT5, s.Platform)
	assert.Equal(t, r.Metrics.TotalTrades, s.TotalTrades)
	assert.Equal(t, r.Metrics.MaxDrawdownAbs, s.MaxDrawdownAbs)
	assert.InDelta(t, 10047.1, s.FinalEquity, 1e-9)
}
