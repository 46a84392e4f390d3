package resolver

import (
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// parseAmount parses a monetary value, tolerating currency symbols, commas
// and surrounding whitespace.
func parseAmount(v string) (float64, bool) {
	var b strings.Builder
	for _, r := range v {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parseDate parses a normalized YYYY-MM-DD value.
func parseDate(v string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// isFutureDate reports whether a normalized YYYY-MM-DD value is later than
// today's local date. Comparison is lexicographic on the normalized form so
// no timezone arithmetic is involved.
func isFutureDate(v string) bool {
	if _, ok := parseDate(v); !ok {
		return false
	}
	return strings.TrimSpace(v) > time.Now().Format(dateLayout)
}

// isDateField reports whether a field name refers to a date.
func isDateField(name string) bool {
	return strings.Contains(strings.ToLower(name), "date")
}

// isAmountField reports whether a field name refers to a monetary amount.
func isAmountField(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "amount") || strings.Contains(n, "total") ||
		n == "tax" || n == "subtotal"
}

// numericValue returns the field's parseable numeric value, preferring the
// normalized form.
func numericValue(normalized, raw string) (float64, bool) {
	if normalized != "" {
		return parseAmount(normalized)
	}
	return parseAmount(raw)
}
