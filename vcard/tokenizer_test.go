// ABOUTME: Tests for the line tokenizer
// ABOUTME: Covers parameter parsing, unfolding, and tolerance of malformed lines
package vcard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		ok     bool
		prop   string
		value  string
		params map[string][]string
	}{
		{"simple", "FN:John Doe", true, "FN", "John Doe", map[string][]string{}},
		{"lowercase name", "tel:612345678", true, "TEL", "612345678", map[string][]string{}},
		{"typed param", "TEL;TYPE=CELL,VOICE:+34612345678", true, "TEL", "+34612345678",
			map[string][]string{"TYPE": {"CELL", "VOICE"}}},
		{"bare 2.1 param", "TEL;CELL:612345678", true, "TEL", "612345678",
			map[string][]string{"TYPE": {"CELL"}}},
		{"bare 2.1 encoding", "NOTE;QUOTED-PRINTABLE:a=3Db", true, "NOTE", "a=3Db",
			map[string][]string{"ENCODING": {"QUOTED-PRINTABLE"}}},
		{"group prefix", "item1.EMAIL;type=INTERNET:a@b.com", true, "EMAIL", "a@b.com",
			map[string][]string{"TYPE": {"INTERNET"}}},
		{"value with colons", "IMPP:xmpp:alice@example.com", true, "IMPP", "xmpp:alice@example.com", map[string][]string{}},
		{"quoted param colon", `PHOTO;X-LABEL="a:b":http://x/y.jpg`, true, "PHOTO", "http://x/y.jpg",
			map[string][]string{"X-LABEL": {"a:b"}}},
		{"empty value", "NOTE:", true, "NOTE", "", map[string][]string{}},
		{"no colon", "this is garbage", false, "", "", nil},
		{"empty name", ":value", false, "", "", nil},
		{"name with space", "NOT A NAME:value", false, "", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := ParseLine(tt.line)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.prop, p.Name)
			assert.Equal(t, tt.value, p.Value)
			assert.Equal(t, tt.params, p.Params)
		})
	}
}

func TestPropertyParamLookupIgnoresCase(t *testing.T) {
	p, ok := ParseLine("NOTE;encoding=quoted-printable:x")
	require.True(t, ok)

	assert.True(t, p.HasParam("Encoding", "QUOTED-PRINTABLE"))
	assert.False(t, p.HasParam("CHARSET", "UTF-8"))
}

func TestTokenizeUnfoldsContinuationLines(t *testing.T) {
	text := "NOTE:This is a long\n  note that continues\nFN:Ana\n"

	props, skipped := Tokenize(text)
	require.Len(t, props, 2)
	assert.Equal(t, 0, skipped)
	assert.Equal(t, "This is a long note that continues", props[0].Value)
	assert.Equal(t, "Ana", props[1].Value)
}

func TestTokenizeJoinsQuotedPrintableSoftBreaks(t *testing.T) {
	text := "NOTE;ENCODING=QUOTED-PRINTABLE:first=\nsecond\nFN:Ana"

	props, _ := Tokenize(text)
	require.Len(t, props, 2)
	assert.Equal(t, "firstsecond", props[0].Value)
}

func TestTokenizeSoftBreakKeepsLeadingSpaces(t *testing.T) {
	props, _ := Tokenize("NOTE;ENCODING=QUOTED-PRINTABLE:one=\n  two\nFN:Ana")

	require.Len(t, props, 2)
	assert.Equal(t, "one  two", props[0].Value)
	assert.Equal(t, "FN", props[1].Name)
}

func TestTokenizeCountsSkippedLines(t *testing.T) {
	props, skipped := Tokenize("FN:Ana\ngarbage\n\nmore garbage\r\nEMAIL:a@b.c")

	assert.Len(t, props, 2)
	assert.Equal(t, 2, skipped)
}

func TestTokenizeNeverPanicsOnOddInput(t *testing.T) {
	inputs := []string{"", "\n\n", " continuation first", ";;;", ":::", "=\n=", `"unterminated:quote`, "\r"}

	for _, in := range inputs {
		assert.NotPanics(t, func() { Tokenize(in) }, "input %q", in)
	}
}
