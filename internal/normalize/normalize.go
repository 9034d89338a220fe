// Package normalize parses locale-variant amount and date strings from bank
// statements into canonical decimal and time values. Pure functions, no state.
package normalize

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultDateFormats is the candidate list used when an extractor does not
// supply its own. Order matters: the first full match wins, so unambiguous
// formats come first and day-first formats are preferred over month-first.
var DefaultDateFormats = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"02/01/06",
	"02 Jan 06",
}

// Amount parses a statement amount string into a decimal. It accepts
// thousands separators, a leading currency code or symbol, parenthesized
// negatives, a leading or trailing minus, and trailing CR/DR markers
// (CR = positive, DR = negative). Returns ok=false for anything it cannot
// parse in full; callers decide whether that is fatal.
func Amount(text string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return decimal.Zero, false
	}

	negative := false

	// Parenthesized negative: (1,234.56)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	// Trailing CR/DR marker.
	upper := strings.ToUpper(s)
	switch {
	case strings.HasSuffix(upper, "CR"):
		s = strings.TrimSpace(s[:len(s)-2])
	case strings.HasSuffix(upper, "DR"):
		negative = true
		s = strings.TrimSpace(s[:len(s)-2])
	}

	// Leading or trailing minus.
	if strings.HasPrefix(s, "-") {
		negative = true
		s = strings.TrimSpace(s[1:])
	}
	if strings.HasSuffix(s, "-") {
		negative = true
		s = strings.TrimSpace(s[:len(s)-1])
	}

	// Leading currency symbol or code: "RM 1,234.56", "$1,234.56", "MYR1.00".
	s = stripCurrencyPrefix(s)

	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Zero, false
	}

	// Reject anything with leftover non-numeric characters; NewFromString
	// would accept exponents and signs we have already handled.
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return decimal.Zero, false
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// stripCurrencyPrefix removes a leading currency symbol or alphabetic code.
func stripCurrencyPrefix(s string) string {
	for _, sym := range []string{"$", "£", "€", "¥"} {
		if strings.HasPrefix(s, sym) {
			return strings.TrimSpace(strings.TrimPrefix(s, sym))
		}
	}
	// Alphabetic code like RM, MYR, USD, SGD.
	i := 0
	for i < len(s) && ((s[i] >= 'A' && s[i] <= 'Z') || (s[i] >= 'a' && s[i] <= 'z')) {
		i++
	}
	if i > 0 && i <= 3 {
		return strings.TrimSpace(s[i:])
	}
	if i > 3 {
		// Too many letters to be a currency code; not an amount.
		return s
	}
	return s
}

// Date tries each candidate layout in order and returns the first that
// matches the whole string. No lenient fallback: a string that only
// partially matches a layout is rejected rather than risking a silent
// day/month swap.
func Date(text string, formats []string) (time.Time, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}, false
	}
	if len(formats) == 0 {
		formats = DefaultDateFormats
	}
	for _, layout := range formats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Description collapses runs of whitespace and trims the result. Multi-line
// statement descriptions are joined with single spaces before storage.
func Description(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}
