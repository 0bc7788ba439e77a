package normalization

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	datePattern = regexp.MustCompile(`^\d{1,4}[./-]\d{1,2}[./-]\d{1,4}$`)
	timePattern = regexp.MustCompile(`^\d{1,2}:\d{2}(:\d{2}(\.\d+)?)?$`)
	stopPattern = regexp.MustCompile(`(?i)\b(sl|tp)\s*[:=]?\s*(-?\d+(?:[.,]\d+)?)`)
)

// IsDate reports whether the cell looks like a bare date ("2024.01.02", "02.01.2024", "1/2/2024").
func IsDate(cell string) bool {
	return datePattern.MatchString(strings.TrimSpace(cell))
}

// IsTime reports whether the cell looks like a bare clock time ("14:05", "14:05:09").
func IsTime(cell string) bool {
	return timePattern.MatchString(strings.TrimSpace(cell))
}

// IsDateTime reports whether the cell holds a date and a time in one value.
func IsDateTime(cell string) bool {
	s := strings.TrimSpace(cell)
	if !strings.Contains(s, ":") || !strings.ContainsAny(s, ".-/") {
		return false
	}
	fields := strings.Fields(s)
	if len(fields) < 2 && !strings.Contains(s, "T") {
		return false
	}
	_, ok := ParseTimestamp(s)
	return ok
}

// IsNumeric reports whether the cell parses as a number.
func IsNumeric(cell string) bool {
	_, ok := ParseNumber(cell)
	return ok
}

// ExtractStops pulls "sl 1.2345" / "tp=1.25" markers out of free-text comments.
func ExtractStops(comment string) (sl, tp decimal.NullDecimal) {
	for _, m := range stopPattern.FindAllStringSubmatch(comment, -1) {
		v := ParseNullNumber(m[2])
		if !v.Valid {
			continue
		}
		switch strings.ToLower(m[1]) {
		case "sl":
			if !sl.Valid {
				sl = v
			}
		case "tp":
			if !tp.Valid {
				tp = v
			}
		}
	}
	return sl, tp
}
