// ABOUTME: Application settings stored as TOML at XDG paths
// ABOUTME: Handles defaults, .env loading, environment variable overrides, and validation
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/harperreed/vcfmerge/dedupe"
	"github.com/harperreed/vcfmerge/models"
	"github.com/harperreed/vcfmerge/phone"
)

var ErrInvalidConfig = errors.New("invalid config")

var countryCodePattern = regexp.MustCompile(`^\+\d{1,3}$`)

// Config holds user settings. Every field has a usable default.
type Config struct {
	DefaultCountryCode string `toml:"default_country_code"`
	ExportVersion      string `toml:"export_version"`
	MatchBy            string `toml:"match_by"`
	LogLevel           string `toml:"log_level"`
	OutputDir          string `toml:"output_dir"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		DefaultCountryCode: phone.DefaultCountryCode,
		ExportVersion:      models.Version30,
		MatchBy:            string(dedupe.ModePhone),
		LogLevel:           "info",
		OutputDir:          filepath.Join(xdg.DataHome, "vcfmerge", "exports"),
	}
}

// ConfigDir returns the XDG-compliant directory for configuration.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, "vcfmerge")
}

// ConfigPath returns the XDG-compliant path of the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads .env from the working directory, if present, and then the
// config file at ConfigPath.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config file at path. A missing file yields defaults.
// Environment variables override file values:
//   - VCFMERGE_COUNTRY_CODE
//   - VCFMERGE_EXPORT_VERSION
//   - VCFMERGE_MATCH_BY
//   - VCFMERGE_LOG_LEVEL
//   - VCFMERGE_OUTPUT_DIR
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VCFMERGE_COUNTRY_CODE"); v != "" {
		cfg.DefaultCountryCode = v
	}
	if v := os.Getenv("VCFMERGE_EXPORT_VERSION"); v != "" {
		cfg.ExportVersion = v
	}
	if v := os.Getenv("VCFMERGE_MATCH_BY"); v != "" {
		cfg.MatchBy = v
	}
	if v := os.Getenv("VCFMERGE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("VCFMERGE_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
}

// Save writes cfg to ConfigPath.
func Save(cfg *Config) error {
	return SaveTo(cfg, ConfigPath())
}

// SaveTo writes cfg as TOML to path, creating the directory if needed.
func SaveTo(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks every field.
func (c *Config) Validate() error {
	if !countryCodePattern.MatchString(c.DefaultCountryCode) {
		return fmt.Errorf("%w: default_country_code %q must be + followed by 1-3 digits", ErrInvalidConfig, c.DefaultCountryCode)
	}
	if !models.IsSupportedVersion(c.ExportVersion) {
		return fmt.Errorf("%w: export_version %q is not one of %v", ErrInvalidConfig, c.ExportVersion, models.SupportedVersions)
	}
	if _, err := dedupe.ParseMode(c.MatchBy); err != nil {
		return fmt.Errorf("%w: match_by: %v", ErrInvalidConfig, err)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output_dir is empty", ErrInvalidConfig)
	}
	return nil
}

// Mode returns the configured grouping mode.
func (c *Config) Mode() dedupe.Mode {
	mode, _ := dedupe.ParseMode(c.MatchBy)
	return mode
}

// Level returns the configured log level, or info when it does not parse.
func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
