// ABOUTME: vCard codec configuration and package-level entry points
// ABOUTME: Holds logger and default country code shared by parsing and serialization
package vcard

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/harperreed/vcfmerge/models"
	"github.com/harperreed/vcfmerge/phone"
)

// DefaultExportVersion is used when Serialize is given a version it cannot write.
const DefaultExportVersion = models.Version30

var (
	// ErrEmptyExport is returned by Export when there is nothing to write.
	ErrEmptyExport = errors.New("no contacts to export")

	// ErrUnsupportedVersion is returned by Export for an unknown target version.
	ErrUnsupportedVersion = errors.New("unsupported vCard version")
)

// Codec parses and serializes vCard text.
type Codec struct {
	logger      *log.Logger
	countryCode string
}

// Option configures a Codec.
type Option func(*Codec)

// WithLogger sets the logger used for recovery and fallback diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(c *Codec) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCountryCode sets the country code used to normalize phones on output.
func WithCountryCode(code string) Option {
	return func(c *Codec) {
		if code != "" {
			c.countryCode = code
		}
	}
}

// NewCodec creates a codec. Without options it logs nowhere and uses
// phone.DefaultCountryCode.
func NewCodec(opts ...Option) *Codec {
	c := &Codec{
		logger:      log.New(io.Discard),
		countryCode: phone.DefaultCountryCode,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Export serializes contacts after validating the request at the file
// boundary: an empty list or an unknown version produce no text.
func (c *Codec) Export(contacts []models.Contact, version string) (string, error) {
	if len(contacts) == 0 {
		return "", ErrEmptyExport
	}
	if !models.IsSupportedVersion(version) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedVersion, version)
	}
	return c.Serialize(contacts, version), nil
}

// Parse parses text with a default codec.
func Parse(text string) []models.Contact {
	return NewCodec().Parse(text)
}

// Serialize writes contacts with a default codec.
func Serialize(contacts []models.Contact, version string) string {
	return NewCodec().Serialize(contacts, version)
}
