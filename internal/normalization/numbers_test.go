package normalization

import (
	"testing"
	"time"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1234.56", "1234.56", true},
		{"1 234.56", "1234.56", true},
		{"1 234,56", "1234.56", true},
		{"1,234.56", "1234.56", true},
		{"1.234,56", "1234.56", true},
		{"1.234.567", "1234567", true},
		{"12,5", "12.5", true},
		{"0,125", "0.125", true},
		{"12,345", "12345", true},
		{"1,234,567", "1234567", true},
		{"(12.50)", "-12.5", true},
		{"−3.2", "-3.2", true},
		{"-50", "-50", true},
		{"$100", "100", true},
		{"12.5%", "12.5", true},
		{"", "0", false},
		{"abc", "0", false},
		{"  ", "0", false},
	}

	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseNumber(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("ParseNumber(%q) = %s, want %s", tt.in, got.String(), tt.want)
		}
	}
}

func TestParseNullNumber_InvalidOnFailure(t *testing.T) {
	if v := ParseNullNumber("n/a"); v.Valid {
		t.Errorf("Expected invalid NullDecimal, got %v", v.Decimal)
	}
	if v := ParseNullNumber("7"); !v.Valid || v.Decimal.IntPart() != 7 {
		t.Errorf("Expected valid 7, got %+v", v)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-02T03:04:05Z", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"2024-01-02 03:04:05", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"2024-01-02", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		// Day first for dotted dates
		{"02.01.2024 03:04:05", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"2024.01.02 03:04:05", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"2024.01.02 03:04", time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC)},
		// Month first for slashed dates
		{"01/02/2024 03:04", time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC)},
		{"1/2/2024", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"Jan 2, 2024 03:04", time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC)},
		{"45293.5", time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, ok := ParseTimestamp(tt.in)
		if !ok {
			t.Errorf("ParseTimestamp(%q) failed", tt.in)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseTimestamp_Failure(t *testing.T) {
	for _, in := range []string{"", "not a date", "32.13.2024 99:99"} {
		if _, ok := ParseTimestamp(in); ok {
			t.Errorf("ParseTimestamp(%q) should fail", in)
		}
	}
}

func TestCellShapes(t *testing.T) {
	if !IsDate("2024.01.02") || !IsDate("02.01.2024") || IsDate("14:00") {
		t.Error("IsDate misclassified")
	}
	if !IsTime("14:00") || !IsTime("14:00:05") || IsTime("2024.01.02") {
		t.Error("IsTime misclassified")
	}
	if !IsDateTime("2024.01.02 14:00:05") || IsDateTime("2024.01.02") || IsDateTime("14:00") {
		t.Error("IsDateTime misclassified")
	}
	if !IsNumeric("12345") || IsNumeric("EURUSD") {
		t.Error("IsNumeric misclassified")
	}
}

func TestExtractStops(t *testing.T) {
	sl, tp := ExtractStops("breakout sl 1.0850 TP=1.0950")
	if !sl.Valid || sl.Decimal.String() != "1.085" {
		t.Errorf("Expected sl 1.085, got %+v", sl)
	}
	if !tp.Valid || tp.Decimal.String() != "1.095" {
		t.Errorf("Expected tp 1.095, got %+v", tp)
	}

	sl, tp = ExtractStops("manual close")
	if sl.Valid || tp.Valid {
		t.Error("Expected no stops in plain comment")
	}

	// "slip" must not match
	sl, _ = ExtractStops("slip 3")
	if sl.Valid {
		t.Error("Expected no match inside a word")
	}
}
