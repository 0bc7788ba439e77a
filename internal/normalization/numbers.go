package normalization

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseNumber converts a broker-formatted numeric cell into a decimal.
// Accepted forms include "1 234.56", "1,234.56", "1.234,56", "1234,5",
// "(12.50)", "−3.2" (unicode minus), "$100" and "12.5%".
// Returns false when the cell is empty or not a number.
func ParseNumber(cell string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return decimal.Zero, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case ' ', '\u00a0', '\u202f', '\u2009', '\'', '$', '€', '£', '%', '\t':
			continue
		case '\u2212', '\u2013':
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	s = b.String()
	if s == "" {
		return decimal.Zero, false
	}

	s = normalizeSeparators(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// ParseNullNumber is ParseNumber returning a NullDecimal (invalid on failure).
func ParseNullNumber(cell string) decimal.NullDecimal {
	d, ok := ParseNumber(cell)
	return decimal.NullDecimal{Decimal: d, Valid: ok}
}

// ParseNumberOrZero is ParseNumber with zero as the fallback.
func ParseNumberOrZero(cell string) decimal.Decimal {
	d, _ := ParseNumber(cell)
	return d
}

// normalizeSeparators rewrites thousands/decimal separators to plain "1234.56".
//   - both "." and "," present: the rightmost one is the decimal separator
//   - several commas only: thousands separators
//   - a single comma followed by exactly three digits with a non-zero integer
//     part: thousands separator ("12,345"); otherwise decimal ("12,5", "0,125")
//   - several dots only: thousands separators ("1.234.567")
func normalizeSeparators(s string) string {
	dots := strings.Count(s, ".")
	commas := strings.Count(s, ",")

	switch {
	case dots > 0 && commas > 0:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case commas > 1:
		return strings.ReplaceAll(s, ",", "")
	case commas == 1:
		idx := strings.Index(s, ",")
		intPart := strings.TrimLeft(s[:idx], "+-")
		frac := s[idx+1:]
		if len(frac) == 3 && intPart != "" && strings.Trim(intPart, "0") != "" {
			return strings.Replace(s, ",", "", 1)
		}
		return strings.Replace(s, ",", ".", 1)
	case dots > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}
