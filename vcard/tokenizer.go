// ABOUTME: Line-oriented vCard tokenizer
// ABOUTME: Turns raw record text into (name, params, value) properties without ever failing
package vcard

import (
	"strings"
)

var bareEncodings = map[string]bool{
	"QUOTED-PRINTABLE": true,
	"BASE64":           true,
	"8BIT":             true,
	"7BIT":             true,
}

// Property is one content line: NAME[;PARAM=VALUE...]:VALUE.
type Property struct {
	Name   string
	Params map[string][]string
	Value  string
}

// Param returns the values of a parameter, matched case-insensitively.
func (p Property) Param(key string) []string {
	return p.Params[strings.ToUpper(key)]
}

// HasParam reports whether key has value among its values, ignoring case.
func (p Property) HasParam(key, value string) bool {
	for _, v := range p.Param(key) {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}

// ParseLine splits a single unfolded content line. Lines with no colon or no
// usable property name are rejected. The value is everything after the first
// colon that is not inside a quoted parameter, so URIs survive intact.
func ParseLine(line string) (Property, bool) {
	colon := indexUnquoted(line, ':')
	if colon < 0 {
		return Property{}, false
	}

	head := splitUnquoted(line[:colon], ';')
	name := strings.TrimSpace(head[0])
	if dot := strings.LastIndex(name, "."); dot >= 0 {
		name = name[dot+1:]
	}
	if name == "" || strings.ContainsAny(name, " \t\"=") {
		return Property{}, false
	}

	prop := Property{
		Name:   strings.ToUpper(name),
		Params: make(map[string][]string),
		Value:  line[colon+1:],
	}

	for _, raw := range head[1:] {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		key, values, found := strings.Cut(raw, "=")
		if !found {
			// vCard 2.1 allows bare parameters: TEL;CELL;VOICE:...
			key, values = "TYPE", raw
			if bareEncodings[strings.ToUpper(raw)] {
				key = "ENCODING"
			}
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		for _, v := range splitUnquoted(values, ',') {
			v = strings.Trim(strings.TrimSpace(v), `"`)
			if v != "" {
				prop.Params[key] = append(prop.Params[key], v)
			}
		}
	}

	return prop, true
}

// Tokenize unfolds text into logical lines and parses each one. Lines that do
// not parse are counted in skipped and otherwise ignored.
func Tokenize(text string) (props []Property, skipped int) {
	for _, line := range unfold(text) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		p, ok := ParseLine(line)
		if !ok {
			skipped++
			continue
		}
		props = append(props, p)
	}
	return props, skipped
}

// unfold joins RFC continuation lines (leading space or tab) and
// quoted-printable soft line breaks (trailing '='). After a soft break the
// next line is content, leading whitespace included.
func unfold(text string) []string {
	var lines []string
	softBreak := false

	for _, raw := range strings.Split(text, "\n") {
		raw = strings.TrimRight(raw, "\r")
		last := len(lines) - 1

		switch {
		case last >= 0 && softBreak:
			lines[last] = strings.TrimSuffix(lines[last], "=") + raw
		case last >= 0 && raw != "" && (raw[0] == ' ' || raw[0] == '\t'):
			lines[last] += raw[1:]
		default:
			lines = append(lines, raw)
			last++
		}

		softBreak = isQuotedPrintable(lines[last]) && strings.HasSuffix(lines[last], "=")
	}

	return lines
}

func isQuotedPrintable(line string) bool {
	colon := indexUnquoted(line, ':')
	if colon < 0 {
		return false
	}
	return strings.Contains(strings.ToUpper(line[:colon]), "QUOTED-PRINTABLE")
}

func indexUnquoted(s string, sep byte) int {
	quoted := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			quoted = !quoted
		case sep:
			if !quoted {
				return i
			}
		}
	}
	return -1
}

func splitUnquoted(s string, sep byte) []string {
	var parts []string
	for {
		i := indexUnquoted(s, sep)
		if i < 0 {
			return append(parts, s)
		}
		parts = append(parts, s[:i])
		s = s[i+1:]
	}
}
