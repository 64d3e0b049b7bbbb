package analytics

import (
	"strconv"
	"strings"
	"unicode"
)

// NormalizeArticle canonicalizes a raw article key for matching. Whitespace
// is stripped, and purely numeric keys are re-rendered through an integer
// parse so that leading zeros and spreadsheet artifacts collapse to one form.
// Keys that fail the integer parse come back as the stripped string.
func NormalizeArticle(value string) string {
	stripped := stripWhitespace(value)
	if stripped == "" {
		return ""
	}
	if isAllDigits(stripped) {
		if n, err := strconv.ParseInt(stripped, 10, 64); err == nil {
			return strconv.FormatInt(n, 10)
		}
	}
	return stripped
}

// NormalizeVendorCode canonicalizes a vendor code for case-insensitive
// matching.
func NormalizeVendorCode(value string) string {
	return strings.ToLower(stripWhitespace(value))
}

// parseNumericKey returns the integer value of a purely numeric key, or
// ok=false when the key contains anything but digits.
func parseNumericKey(value string) (int64, bool) {
	stripped := stripWhitespace(value)
	if stripped == "" || !isAllDigits(stripped) {
		return 0, false
	}
	n, err := strconv.ParseInt(stripped, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func stripWhitespace(value string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(value))
}

func isAllDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return value != ""
}
