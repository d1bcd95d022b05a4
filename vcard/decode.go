// ABOUTME: Opportunistic decoding of vCard property values
// ABOUTME: Handles quoted-printable, legacy charsets, percent-hex escapes, and backslash escapes
package vcard

import (
	"io"
	"mime/quotedprintable"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/ianaindex"
)

var percentEscape = regexp.MustCompile(`%[0-9A-Fa-f]{2}`)

// decodeTransport undoes transfer encodings on a raw value. Every step falls
// back to the trimmed input when it cannot decode cleanly.
func decodeTransport(p Property, allowPercent bool) string {
	raw := strings.TrimSpace(p.Value)
	value := raw

	if p.HasParam("ENCODING", "QUOTED-PRINTABLE") {
		decoded, err := io.ReadAll(quotedprintable.NewReader(strings.NewReader(value)))
		if err != nil {
			return raw
		}
		value = string(decoded)
	}

	if charset := p.Param("CHARSET"); len(charset) > 0 && !strings.EqualFold(charset[0], "UTF-8") {
		converted, ok := convertCharset(value, charset[0])
		if !ok {
			return raw
		}
		value = converted
	}

	if allowPercent && percentEscape.MatchString(value) {
		unescaped, err := url.PathUnescape(value)
		if err == nil && utf8.ValidString(unescaped) {
			value = unescaped
		}
	}

	return strings.TrimSpace(value)
}

func convertCharset(value, charset string) (string, bool) {
	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil || enc == nil {
		return "", false
	}
	out, err := enc.NewDecoder().String(value)
	if err != nil {
		return "", false
	}
	return out, true
}

// unescapeText resolves vCard backslash escapes: \n, \N, \,, \; and \\.
// Unknown escapes keep the escaped character.
func unescapeText(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i == len(s)-1 {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n', 'N':
			b.WriteByte('\n')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// splitComponents splits a structured value on separators that are not
// backslash-escaped, then unescapes each component.
func splitComponents(s string, sep byte) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case sep:
			parts = append(parts, unescapeText(s[start:i]))
			start = i + 1
		}
	}
	return append(parts, unescapeText(s[start:]))
}

// escapeText prepares a value for writing. Commas are left alone for list
// properties such as CATEGORIES where they separate items.
func escapeText(s string, escapeCommas bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
		case ';':
			b.WriteString(`\;`)
		case ',':
			if escapeCommas {
				b.WriteString(`\,`)
			} else {
				b.WriteRune(r)
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
