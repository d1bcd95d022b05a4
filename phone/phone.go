// ABOUTME: Phone number normalization and display formatting
// ABOUTME: Canonicalizes numbers to an international form used as a duplicate join key
package phone

import (
	"regexp"
	"strings"
)

// DefaultCountryCode is prepended to national numbers with no international prefix.
const DefaultCountryCode = "+34"

// minNationalDigits is the shortest digit run that is safe to attribute to a
// country. Anything shorter is an extension, internal code, or free text.
const minNationalDigits = 9

// minKeyDigits is the shortest normalized number accepted as a join key.
const minKeyDigits = 7

var (
	notDialable = regexp.MustCompile(`[^\d+]`)
	keyPattern  = regexp.MustCompile(`^\+?\d+$`)
)

// Normalize canonicalizes raw using DefaultCountryCode.
func Normalize(raw string) string {
	return NormalizeWithCountry(raw, DefaultCountryCode)
}

// NormalizeWithCountry strips everything but digits and '+', rewrites a
// leading 00 to '+', and prepends countryCode to long national numbers.
// Input that cannot be safely attributed to a country is returned trimmed
// but otherwise unmodified. The result is stable under repeated calls.
func NormalizeWithCountry(raw, countryCode string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	cleaned := notDialable.ReplaceAllString(trimmed, "")
	if strings.HasPrefix(cleaned, "00") {
		cleaned = "+" + cleaned[2:]
	}

	digits := countDigits(cleaned)
	if digits == 0 {
		return trimmed
	}

	if strings.HasPrefix(cleaned, "+") {
		return cleaned
	}

	if digits >= minNationalDigits {
		if countryCode == "" {
			countryCode = DefaultCountryCode
		}
		return countryCode + cleaned
	}

	return trimmed
}

// Key returns the normalized form of raw and whether it can be used to match
// contacts: only digits with an optional leading '+', and long enough to be
// a real number.
func Key(raw, countryCode string) (string, bool) {
	n := NormalizeWithCountry(raw, countryCode)
	if !keyPattern.MatchString(n) || countDigits(n) < minKeyDigits {
		return n, false
	}
	return n, true
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
