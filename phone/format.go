// ABOUTME: Display formatting for normalized phone numbers
// ABOUTME: Groups digits per country convention without changing the digits themselves
package phone

import "strings"

// pattern describes how to group the national part of a number.
type pattern struct {
	prefix string // national digits must start with this, "" for any
	length int    // national digit count, 0 for any
	groups []int  // group sizes; the last group absorbs any remainder
}

var countryPatterns = map[string][]pattern{
	"+34": {{length: 9, groups: []int{3, 3, 3}}},
	"+1":  {{length: 10, groups: []int{3, 3, 4}}},
	"+33": {{length: 9, groups: []int{1, 2, 2, 2, 2}}},
	"+44": {
		{prefix: "7", length: 10, groups: []int{4, 6}},
		{prefix: "20", length: 10, groups: []int{2, 4, 4}},
		{length: 10, groups: []int{4, 6}},
	},
	"+49": {
		{prefix: "1", groups: []int{3, 8}},
		{prefix: "30", groups: []int{2, 8}},
		{prefix: "40", groups: []int{2, 8}},
		{prefix: "89", groups: []int{2, 8}},
		{groups: []int{4, 8}},
	},
}

// country codes checked longest first so "+1" never shadows a longer code.
var countryOrder = []string{"+34", "+33", "+44", "+49", "+1"}

// Format normalizes raw and groups it for display. Numbers outside the
// known country patterns come back in normalized form.
func Format(raw string) string {
	return FormatWithCountry(raw, DefaultCountryCode)
}

// FormatWithCountry is Format with an explicit default country code.
func FormatWithCountry(raw, countryCode string) string {
	n := NormalizeWithCountry(raw, countryCode)
	if !keyPattern.MatchString(n) || !strings.HasPrefix(n, "+") {
		return n
	}

	for _, cc := range countryOrder {
		if !strings.HasPrefix(n, cc) {
			continue
		}
		national := n[len(cc):]
		for _, p := range countryPatterns[cc] {
			if p.matches(national) {
				return cc + " " + p.apply(national)
			}
		}
		return n
	}
	return n
}

func (p pattern) matches(national string) bool {
	if p.length > 0 && len(national) != p.length {
		return false
	}
	if !strings.HasPrefix(national, p.prefix) {
		return false
	}
	fixed := 0
	for _, g := range p.groups[:len(p.groups)-1] {
		fixed += g
	}
	return len(national) > fixed
}

func (p pattern) apply(national string) string {
	parts := make([]string, 0, len(p.groups))
	rest := national
	for i, g := range p.groups {
		if i == len(p.groups)-1 || g >= len(rest) {
			parts = append(parts, rest)
			break
		}
		parts = append(parts, rest[:g])
		rest = rest[g:]
	}
	return strings.Join(parts, " ")
}
