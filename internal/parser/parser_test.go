package parser

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-report-lab/internal/domain"
)

const mt5Report = `Strategy Tester Report,,,,,,,,,,,,
Initial Deposit:,,10 000.00,,,,,,,,,,
Deals,,,,,,,,,,,,
Time,Deal,Symbol,Type,Direction,Volume,Price,Order,Commission,Swap,Profit,Balance,Comment
2024.01.01 00:00:00,1,,balance,,,,,0.00,0.00,10 000.00,10 000.00,
2024.01.02 10:00:00,2,EURUSD,buy,in,0.10,1.10000,2,0.00,0.00,0.00,10 000.00,
2024.01.02 12:00:00,3,EURUSD,sell,out,0.10,1.11000,3,0.00,0.00,100.00,10 100.00,tp 1.11
2024.01.03 09:00:00,4,GBPUSD,sell,in,0.20,1.27000,4,0.00,0.00,0.00,10 100.00,
2024.01.03 15:00:00,5,GBPUSD,buy,out,0.20,1.27250,5,0.00,-1.50,-50.00,10 048.50,sl 1.2725
,,,,,,,,0.00,-1.50,10 050.00,10 048.50,
`

func readString(t *testing.T, name, data string) [][]string {
	t.Helper()
	rows, err := ReadRows(name, strings.NewReader(data))
	require.NoError(t, err)
	return rows
}

func TestParse_MT5Deals(t *testing.T) {
	rows := readString(t, "ReportTester.csv", mt5Report)

	res, err := Parse(rows, Options{FilenameHint: "ReportTester.csv"})
	require.NoError(t, err)

	assert.Equal(t, domain.PlatformMT5, res.Platform)
	require.Len(t, res.Trades, 5)
	assert.Equal(t, 0, res.RowsSkipped)
	assert.Equal(t, "10000", res.InitialDeposit().Decimal.String())

	dep := res.Trades[0]
	assert.True(t, dep.IsBalanceAdjustment())
	assert.Equal(t, 10000.0, dep.ProfitFloat())

	win := res.Trades[2]
	assert.True(t, win.IsClosed())
	assert.Equal(t, "EURUSD", win.Symbol)
	assert.Equal(t, domain.SideLong, win.PositionSide)
	assert.Equal(t, 2*time.Hour, win.Duration())
	assert.Equal(t, "1.1", win.PriceOpen.Decimal.String())
	assert.True(t, win.TakeProfit.Valid)

	loss := res.Trades[4]
	assert.Equal(t, domain.SideShort, loss.PositionSide)
	assert.Equal(t, -50.0, loss.ProfitFloat())
	assert.Equal(t, "-1.5", loss.Swap.String())
	assert.Equal(t, "10048.5", loss.Balance.Decimal.String())
	assert.Equal(t, 9, loss.Row)
}

func TestParse_MT5SplitDateAndTime(t *testing.T) {
	// Date and time in separate cells push every later column right by one.
	rows := [][]string{
		{"Time", "Deal", "Symbol", "Type", "Direction", "Volume", "Price", "Order", "Commission", "Swap", "Profit", "Balance", "Comment"},
		{"2024.01.02", "10:00:00", "7", "XAUUSD", "buy", "in", "1", "2000", "7", "0", "0", "0", "5000", ""},
		{"2024.01.02", "11:30:00", "8", "XAUUSD", "sell", "out", "1", "2010", "8", "-2", "0", "1000", "5998", ""},
	}

	res, err := Parse(rows, Options{})
	require.NoError(t, err)
	require.Len(t, res.Trades, 2)

	out := res.Trades[1]
	assert.Equal(t, "8", out.DealID)
	assert.Equal(t, "XAUUSD", out.Symbol)
	assert.Equal(t, 1000.0, out.ProfitFloat())
	assert.Equal(t, "-2", out.Commission.String())
	assert.Equal(t, time.Date(2024, 1, 2, 11, 30, 0, 0, time.UTC), out.OpenTime)
}

func TestParse_MT4Statement(t *testing.T) {
	data := `Account:,123456,,,,,,,,,,,,
Closed Transactions:,,,,,,,,,,,,,
Ticket,Open Time,Type,Size,Item,Price,S / L,T / P,Close Time,Price,Commission,Taxes,Swap,Profit
1000,2024.02.01 08:00,balance,Deposit,,,,,,,,,,5000.00
1001,2024.02.01 09:00,buy,1.00,eurusd,1.08000,1.07500,1.09000,2024.02.01 17:00,1.08500,-7.00,0.00,0.00,500.00
1002,2024.02.02 09:00,buy limit,1.00,eurusd,1.07000,0.00000,0.00000,2024.02.02 10:00,1.07100,0.00,0.00,0.00,0.00
1003,2024.02.03 10:00,sell,0.50,gbpusd,1.26000,0.00000,0.00000,2024.02.03 12:00,1.26200,-3.50,0.00,-1.00,-100.00
,,,,,,,,,,-10.50,0.00,-1.00,400.00
`
	rows := readString(t, "statement.csv", data)

	res, err := Parse(rows, Options{FilenameHint: "statement.csv"})
	require.NoError(t, err)
	assert.Equal(t, domain.PlatformMT4, res.Platform)
	require.Len(t, res.Trades, 3, "pending order must be skipped")
	assert.Equal(t, "123456", res.Summary["Account"])

	dep := res.Trades[0]
	assert.True(t, dep.IsBalanceAdjustment())
	assert.Equal(t, 5000.0, dep.ProfitFloat())

	buy := res.Trades[1]
	assert.True(t, buy.IsClosed())
	assert.Equal(t, "1.08", buy.PriceOpen.Decimal.String())
	assert.Equal(t, "1.085", buy.PriceClose.Decimal.String())
	assert.Equal(t, "1.075", buy.StopLoss.Decimal.String())
	assert.Equal(t, 8*time.Hour, buy.Duration())
	assert.Equal(t, domain.SideLong, buy.PositionSide)

	sell := res.Trades[2]
	assert.Equal(t, domain.SideShort, sell.PositionSide)
	assert.False(t, sell.StopLoss.Valid)
}

func TestParse_TradingView(t *testing.T) {
	data := "Trade #,Type,Signal,Date/Time,Price USD,Contracts,Profit USD,Profit %\n" +
		"2,Exit long,Close,2024-03-02 14:00,105,1,-3,-2.8\n" +
		"2,Entry long,Long,2024-03-02 10:00,108,1,-3,-2.8\n" +
		"1,Exit short,Close,2024-03-01 16:00,95,2,10,5.2\n" +
		"1,Entry short,Short,2024-03-01 09:00,100,2,10,5.2\n"

	rows := readString(t, "list.csv", data)
	res, err := Parse(rows, Options{DefaultSymbol: "NQ1!"})
	require.NoError(t, err)
	assert.Equal(t, domain.PlatformTradingView, res.Platform)
	require.Len(t, res.Trades, 4)

	closed := domain.ClosedTrades(res.Trades)
	require.Len(t, closed, 2)
	assert.Equal(t, "NQ1!", closed[0].Symbol)
	assert.Equal(t, domain.SideShort, closed[0].PositionSide)
	assert.Equal(t, 10.0, closed[0].ProfitFloat())
	assert.Equal(t, 7*time.Hour, closed[0].Duration())
	assert.Equal(t, domain.SideLong, closed[1].PositionSide)
}

func TestParse_TradingViewDefaultSymbol(t *testing.T) {
	rows := [][]string{
		{"Trade #", "Type", "Date/Time", "Price", "Contracts", "Profit"},
		{"1", "Exit long", "2024-03-01 16:00", "101", "1", "1"},
	}
	res, err := Parse(rows, Options{FilenameHint: "tradingview.csv"})
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)
	assert.Equal(t, FallbackSymbol, res.Trades[0].Symbol)
}

func TestParse_GenericSemicolonCommaDecimals(t *testing.T) {
	data := "Open Time;Close Time;Instrument;Side;Qty;Entry Price;Exit Price;PnL\n" +
		"2024-04-01 10:00;2024-04-01 11:00;DAX;long;1;18000,5;18010,5;10,0\n" +
		"2024-04-02 10:00;2024-04-02 12:00;DAX;short;1;18050;18060;-10,0\n"

	rows := readString(t, "journal.csv", data)
	res, err := Parse(rows, Options{})
	require.NoError(t, err)
	assert.Equal(t, domain.PlatformGeneric, res.Platform)
	require.Len(t, res.Trades, 2)
	assert.Equal(t, 10.0, res.Trades[0].ProfitFloat())
	assert.Equal(t, "18000.5", res.Trades[0].PriceOpen.Decimal.String())
	assert.Equal(t, domain.SideShort, res.Trades[1].PositionSide)
}

func TestParse_BadRowsBecomeIssues(t *testing.T) {
	rows := [][]string{
		{"Time", "Deal", "Symbol", "Type", "Direction", "Volume", "Price", "Order", "Commission", "Swap", "Profit", "Balance", "Comment"},
		{"2024.01.02 10:00:00", "2", "EURUSD", "buy", "in", "0.1", "1.1", "2", "0", "0", "0", "1000", ""},
		{"2024.01.02 11:00:00", "3", "EURUSD", "modify", "", "0.1", "1.1", "3", "0", "0", "0", "1000", ""},
		{"not-a-date", "4", "EURUSD", "sell", "out", "0.1", "1.2", "4", "0", "0", "10", "1010", ""},
	}

	res, err := Parse(rows, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.RowsSkipped)
	require.Len(t, res.Trades, 2)

	last := res.Trades[1]
	assert.True(t, last.TimeUnparsed)
	// Inherits the last valid stamp seen, even from a rejected row.
	assert.Equal(t, time.Date(2024, 1, 2, 11, 0, 0, 0, time.UTC), last.OpenTime)

	var reasons []string
	for _, is := range res.Issues {
		reasons = append(reasons, is.String())
	}
	assert.Len(t, res.Issues, 2, "issues: %v", reasons)
}

func TestParse_Unparseable(t *testing.T) {
	_, err := Parse([][]string{{"hello", "world"}, {"1", "2"}}, Options{})
	assert.True(t, errors.Is(err, ErrUnparseableFile))

	_, err = Parse(nil, Options{})
	assert.True(t, errors.Is(err, ErrUnparseableFile))
}

func TestDetectPlatform(t *testing.T) {
	mt5 := [][]string{{"Time", "Deal", "Symbol", "Profit"}}
	mt4 := [][]string{{"Ticket", "Open Time", "Profit"}}
	tv := [][]string{{"Exported from TradingView"}}

	assert.Equal(t, domain.PlatformMT5, DetectPlatform(mt5, ""))
	assert.Equal(t, domain.PlatformMT4, DetectPlatform(mt4, ""))
	assert.Equal(t, domain.PlatformTradingView, DetectPlatform(tv, ""))
	assert.Equal(t, domain.PlatformMT5, DetectPlatform([][]string{{"x"}}, ""))

	// Filename hint wins over content.
	assert.Equal(t, domain.PlatformMT4, DetectPlatform(mt5, "/tmp/MT4-history.csv"))
	assert.Equal(t, domain.PlatformTradingView, DetectPlatform(mt5, "TradingView_export.csv"))
}

func TestLayouts_DetectedFirst(t *testing.T) {
	ls := Layouts(domain.PlatformTradingView)
	require.Len(t, ls, 4)
	assert.Equal(t, domain.PlatformTradingView, ls[0].Platform())
	assert.Equal(t, domain.PlatformMT5, ls[1].Platform())
	assert.Equal(t, domain.PlatformGeneric, ls[3].Platform())
}

func TestReadRows_DelimiterAndBOM(t *testing.T) {
	rows := readString(t, "x.csv", "\ufeffa\tb\tc\n1\t2\t3\n")
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"a", "b", "c"}, rows[0])

	rows = readString(t, "x.csv", "a;b\n\"1;5\";2\n")
	assert.Equal(t, []string{"1;5", "2"}, rows[1])
}

func TestReadRows_UTF16(t *testing.T) {
	// "a,b\n" little endian with BOM
	data := string([]byte{0xFF, 0xFE, 'a', 0, ',', 0, 'b', 0, '\n', 0})
	rows := readString(t, "mt5.csv", data)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"a", "b"}, rows[0])
}
