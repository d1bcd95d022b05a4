// ABOUTME: Tests for the cobra command tree
// ABOUTME: Runs commands against temp vCard files and checks their output
package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/vcfmerge/vcard"
)

const sampleVCF = "BEGIN:VCARD\r\nVERSION:3.0\r\nFN:Ana Lopez\r\nTEL;TYPE=CELL:612 111 111\r\nEND:VCARD\r\n" +
	"BEGIN:VCARD\r\nVERSION:3.0\r\nFN:Ana\r\nTEL:+34612111111\r\nEMAIL:ana@example.com\r\nEND:VCARD\r\n" +
	"BEGIN:VCARD\r\nVERSION:3.0\r\nFN:Bob\r\nTEL:+34699999999\r\nEND:VCARD\r\n"

type env struct {
	dir    string
	config string
	input  string
}

func newEnv(t *testing.T, vcf string) env {
	t.Helper()
	dir := t.TempDir()

	cfgPath := filepath.Join(dir, "config.toml")
	cfg := "output_dir = '" + filepath.Join(dir, "exports") + "'\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	input := filepath.Join(dir, "contacts.vcf")
	require.NoError(t, os.WriteFile(input, []byte(vcf), 0o644))

	return env{dir: dir, config: cfgPath, input: input}
}

func run(t *testing.T, e env, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	cmd := NewRootCmd()
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--config", e.config}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func noTerminal(t *testing.T) {
	t.Helper()
	original := isTerminal
	isTerminal = func() bool { return false }
	t.Cleanup(func() { isTerminal = original })
}

func TestMergeWritesMergedFile(t *testing.T) {
	e := newEnv(t, sampleVCF)
	out := filepath.Join(e.dir, "merged.vcf")

	output, err := run(t, e, "merge", e.input, "--yes", "--out", out)
	require.NoError(t, err)
	assert.Contains(t, output, "1 groups: 1 merged, 0 skipped, 0 already resolved")
	assert.Contains(t, output, "Wrote 2 contacts")

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	contacts := vcard.Parse(string(data))
	require.Len(t, contacts, 2)
	assert.Equal(t, "Ana Lopez", contacts[0].FullName)
	assert.Equal(t, []string{"+34612111111"}, contacts[0].Phones)
	assert.Equal(t, []string{"ana@example.com"}, contacts[0].Emails)
	assert.Equal(t, "Bob", contacts[1].FullName)
}

func TestMergeDefaultOutputPath(t *testing.T) {
	noTerminal(t)
	e := newEnv(t, sampleVCF)

	_, err := run(t, e, "merge", e.input)
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(e.dir, "exports", "contacts-merged-*.vcf"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestMergeVersionFlag(t *testing.T) {
	e := newEnv(t, sampleVCF)
	out := filepath.Join(e.dir, "merged.vcf")

	_, err := run(t, e, "merge", e.input, "--yes", "--version", "4.0", "--out", out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "VERSION:4.0")
	assert.NotContains(t, string(data), "VERSION:3.0")
}

func TestMergeRejectsUnknownVersion(t *testing.T) {
	e := newEnv(t, sampleVCF)

	_, err := run(t, e, "merge", e.input, "--yes", "--version", "5.0")
	assert.ErrorIs(t, err, vcard.ErrUnsupportedVersion)
}

func TestMergeNoDuplicates(t *testing.T) {
	e := newEnv(t, "BEGIN:VCARD\r\nVERSION:3.0\r\nFN:Solo\r\nEND:VCARD\r\n")

	output, err := run(t, e, "merge", e.input, "--yes")
	require.NoError(t, err)
	assert.Contains(t, output, "No duplicates found among 1 contacts")

	_, statErr := os.Stat(filepath.Join(e.dir, "exports"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestMergeByName(t *testing.T) {
	vcf := "BEGIN:VCARD\r\nFN:Ana\r\nEND:VCARD\r\nBEGIN:VCARD\r\nFN:ana \r\nEMAIL:ana@example.com\r\nEND:VCARD\r\n"
	e := newEnv(t, vcf)
	out := filepath.Join(e.dir, "merged.vcf")

	output, err := run(t, e, "merge", e.input, "--yes", "--by", "name", "--out", out)
	require.NoError(t, err)
	assert.Contains(t, output, "1 merged")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "BEGIN:VCARD"))
}

func TestMergeUnknownMode(t *testing.T) {
	e := newEnv(t, sampleVCF)

	_, err := run(t, e, "merge", e.input, "--by", "colour")
	assert.Error(t, err)
}

func TestMergeMissingFile(t *testing.T) {
	e := newEnv(t, sampleVCF)

	_, err := run(t, e, "merge", filepath.Join(e.dir, "nope.vcf"))
	assert.Error(t, err)
}

func TestConvertToStdout(t *testing.T) {
	e := newEnv(t, sampleVCF)

	output, err := run(t, e, "convert", e.input, "--version", "2.1")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(output, "VERSION:2.1"))
	assert.Contains(t, output, "TEL;CELL:+34612111111")
}

func TestConvertEmptyInput(t *testing.T) {
	e := newEnv(t, "no cards here")

	_, err := run(t, e, "convert", e.input)
	assert.ErrorIs(t, err, vcard.ErrEmptyExport)
}

func TestGroupsTable(t *testing.T) {
	e := newEnv(t, sampleVCF)

	output, err := run(t, e, "groups", e.input)
	require.NoError(t, err)
	assert.Contains(t, output, "GROUP")
	assert.Contains(t, output, "Ana Lopez")
	assert.Contains(t, output, "ana@example.com")
	assert.NotContains(t, output, "Bob")
	assert.Contains(t, output, "1 groups among 3 contacts (matched by phone)")
}

func TestGraphDOT(t *testing.T) {
	e := newEnv(t, sampleVCF)

	output, err := run(t, e, "graph", e.input)
	require.NoError(t, err)
	assert.Contains(t, output, "digraph")
	assert.Contains(t, output, "contact_")
}

func TestGraphRejectsFormat(t *testing.T) {
	e := newEnv(t, sampleVCF)

	_, err := run(t, e, "graph", e.input, "--format", "png")
	assert.Error(t, err)
}

func TestPhoneCommand(t *testing.T) {
	e := newEnv(t, sampleVCF)

	output, err := run(t, e, "phone", "612 345 678", "--country", "+34")
	require.NoError(t, err)
	assert.Contains(t, output, "+34612345678")
	assert.Contains(t, output, "+34 612 345 678")
	assert.Contains(t, output, "match=true")
}

func TestConfigShowAndInit(t *testing.T) {
	e := newEnv(t, sampleVCF)

	output, err := run(t, e, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, output, "default_country_code = +34")
	assert.Contains(t, output, filepath.Join(e.dir, "exports"))

	_, err = run(t, e, "config", "init")
	assert.Error(t, err, "existing file is kept")

	output, err = run(t, e, "config", "init", "--force")
	require.NoError(t, err)
	assert.Contains(t, output, "Wrote default config")

	data, err := os.ReadFile(e.config)
	require.NoError(t, err)
	assert.Contains(t, string(data), "export_version")
}

func TestInvalidConfig(t *testing.T) {
	e := newEnv(t, sampleVCF)
	require.NoError(t, os.WriteFile(e.config, []byte("match_by = 'colour'\n"), 0o644))

	_, err := run(t, e, "groups", e.input)
	assert.Error(t, err)
}
