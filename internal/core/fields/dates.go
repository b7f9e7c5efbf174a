package fields

import (
	"strings"
	"time"
)

// dateLayouts is the fixed ordered list a matched date string is parsed
// against. Month-first layouts precede day-first, mirroring the
// reference behavior for ambiguous numeric dates.
var dateLayouts = []string{
	"01/02/2006",
	"1/2/2006",
	"02/01/2006",
	"01-02-2006",
	"02-01-2006",
	"01.02.2006",
	"02.01.2006",
	"1/2/06",
	"01/02/06",
	"2006-01-02",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
}

func parseInvoiceDate(raw string) (time.Time, bool) {
	candidate := normalizeDateCandidate(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, candidate); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// normalizeDateCandidate collapses whitespace and canonicalizes month
// casing ("MARCH 15, 2024" parses as "March 15, 2024"). Numeric dates
// pass through untouched.
func normalizeDateCandidate(raw string) string {
	parts := strings.Fields(strings.TrimSpace(raw))
	for i, p := range parts {
		trimmed := strings.TrimRight(p, ".")
		if isMonthName(trimmed) {
			canonical := strings.ToUpper(trimmed[:1]) + strings.ToLower(trimmed[1:])
			if len(canonical) > 3 && !isFullMonthName(canonical) {
				canonical = canonical[:3]
			}
			suffix := ""
			if strings.HasSuffix(p, ",") {
				suffix = ","
			}
			parts[i] = canonical + suffix
		}
	}
	return strings.Join(parts, " ")
}

var monthNames = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

func isMonthName(s string) bool {
	lower := strings.ToLower(strings.TrimRight(s, ",."))
	if len(lower) < 3 {
		return false
	}
	for _, m := range monthNames {
		if strings.HasPrefix(m, lower) {
			return true
		}
	}
	return false
}

func isFullMonthName(s string) bool {
	lower := strings.ToLower(s)
	for _, m := range monthNames {
		if lower == m {
			return true
		}
	}
	return false
}
