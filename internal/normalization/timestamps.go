package normalization

import (
	"math"
	"strings"
	"time"
)

// Layout groups in priority order. The first match wins, so day-first dotted
// dates are never read as month-first.
var (
	isoLayouts = []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
	}

	dottedLayouts = []string{
		"02.01.2006 15:04:05",
		"02.01.2006 15:04",
		"02.01.2006",
		"2006.01.02 15:04:05.000",
		"2006.01.02 15:04:05",
		"2006.01.02 15:04",
		"2006.01.02",
	}

	slashLayouts = []string{
		"01/02/2006 15:04:05",
		"01/02/2006 15:04",
		"01/02/2006",
		"1/2/2006 15:04:05",
		"1/2/2006 15:04",
		"1/2/2006",
		"2006/01/02 15:04:05",
		"2006/01/02",
	}

	fallbackLayouts = []string{
		time.RFC1123Z,
		time.RFC1123,
		time.ANSIC,
		"Jan 2, 2006 15:04:05",
		"Jan 2, 2006 15:04",
		"Jan 2, 2006",
		"2 Jan 2006 15:04:05",
		"2 Jan 2006 15:04",
		"2 Jan 2006",
		"January 2, 2006",
	}
)

// excelEpoch is day zero of the 1900 date system as used by spreadsheet serials.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// ParseTimestamp parses a platform timestamp cell. Times without a zone are UTC.
// The ok flag is false when no known format matches; callers must not treat
// the returned zero time as a real instant.
func ParseTimestamp(cell string) (time.Time, bool) {
	s := strings.Join(strings.Fields(cell), " ")
	if s == "" {
		return time.Time{}, false
	}

	for _, group := range [][]string{isoLayouts, dottedLayouts, slashLayouts, fallbackLayouts} {
		for _, layout := range group {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
	}

	// Spreadsheet serial day number (e.g. 45292.5 = 2024-01-01 12:00).
	if d, ok := ParseNumber(s); ok && !strings.ContainsAny(s, ":/-") {
		days := d.InexactFloat64()
		if days >= 1 && days < 2958466 {
			whole := math.Floor(days)
			frac := days - whole
			t := excelEpoch.AddDate(0, 0, int(whole)).Add(time.Duration(math.Round(frac*86400)) * time.Second)
			return t, true
		}
	}

	return time.Time{}, false
}
