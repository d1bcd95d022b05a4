// ABOUTME: Tests for settings loading, saving and validation
// ABOUTME: Covers XDG paths, TOML persistence, environment overrides and rejected values
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/vcfmerge/dedupe"
)

func TestConfigPath(t *testing.T) {
	path := ConfigPath()

	assert.True(t, strings.HasPrefix(path, filepath.Join(xdg.ConfigHome, "vcfmerge")), "path should be under XDG config home")
	assert.Equal(t, "config.toml", filepath.Base(path))
}

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, "+34", cfg.DefaultCountryCode)
	assert.Equal(t, "3.0", cfg.ExportVersion)
	assert.Equal(t, dedupe.ModePhone, cfg.Mode())
	assert.Equal(t, log.InfoLevel, cfg.Level())
	assert.NotEmpty(t, cfg.OutputDir)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	original := &Config{
		DefaultCountryCode: "+1",
		ExportVersion:      "4.0",
		MatchBy:            "email",
		LogLevel:           "debug",
		OutputDir:          "/tmp/exports",
	}
	require.NoError(t, SaveTo(original, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "default_country_code")
	assert.Contains(t, string(data), "+1")

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
	assert.Equal(t, log.DebugLevel, loaded.Level())
}

func TestPartialFileKeepsOtherDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("match_by = \"name\"\n"), 0o644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, dedupe.ModeName, cfg.Mode())
	assert.Equal(t, "+34", cfg.DefaultCountryCode)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("export_version = \"2.1\"\n"), 0o644))

	t.Setenv("VCFMERGE_EXPORT_VERSION", "4.0")
	t.Setenv("VCFMERGE_COUNTRY_CODE", "+44")
	t.Setenv("VCFMERGE_OUTPUT_DIR", "/srv/out")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "4.0", cfg.ExportVersion)
	assert.Equal(t, "+44", cfg.DefaultCountryCode)
	assert.Equal(t, "/srv/out", cfg.OutputDir)
}

func TestMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("this is = = not toml"), 0o644))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"country without plus", func(c *Config) { c.DefaultCountryCode = "34" }},
		{"country too long", func(c *Config) { c.DefaultCountryCode = "+3456" }},
		{"unknown version", func(c *Config) { c.ExportVersion = "5.0" }},
		{"unknown match mode", func(c *Config) { c.MatchBy = "soundex" }},
		{"unknown log level", func(c *Config) { c.LogLevel = "chatty" }},
		{"empty output dir", func(c *Config) { c.OutputDir = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestSaveRejectsInvalidConfig(t *testing.T) {
	cfg := Default()
	cfg.ExportVersion = "1.0"

	err := SaveTo(cfg, filepath.Join(t.TempDir(), "config.toml"))
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}
