package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// sniffLines is how many leading lines are inspected to pick a CSV delimiter.
const sniffLines = 30

// ReadRows loads a tabular export into string cells.
// Spreadsheets (.xlsx, .xlsm) are read from the first sheet holding data;
// everything else is treated as delimited text. UTF-8 and UTF-16 byte order
// marks are honoured (MetaTrader writes UTF-16 by default).
func ReadRows(name string, r io.Reader) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return readWorkbook(r)
	default:
		return readDelimited(r)
	}
}

func readWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		if len(rows) > 0 {
			return trimRows(rows), nil
		}
	}
	return nil, fmt.Errorf("%w: workbook has no data", ErrUnparseableFile)
}

func readDelimited(r io.Reader) ([][]string, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	data, err := io.ReadAll(decoded)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return trimRows(rows), nil
}

// sniffDelimiter picks the candidate that appears most often outside quotes
// in the leading lines.
func sniffDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t'}
	counts := make(map[rune]int, len(candidates))

	lines := bytes.SplitN(data, []byte("\n"), sniffLines+1)
	if len(lines) > sniffLines {
		lines = lines[:sniffLines]
	}
	for _, line := range lines {
		inQuotes := false
		for _, c := range string(line) {
			if c == '"' {
				inQuotes = !inQuotes
				continue
			}
			if !inQuotes {
				counts[c]++
			}
		}
	}

	best := ','
	for _, c := range candidates {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}

func trimRows(rows [][]string) [][]string {
	for i, row := range rows {
		for j, cell := range row {
			rows[i][j] = strings.TrimSpace(cell)
		}
	}
	return rows
}
