// ABOUTME: vCard MCP tool handlers
// ABOUTME: Implements find_duplicates, convert_vcards, normalize_phones and merge_duplicates over vCard text
package handlers

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/vcfmerge/db"
	"github.com/harperreed/vcfmerge/dedupe"
	"github.com/harperreed/vcfmerge/merge"
	"github.com/harperreed/vcfmerge/models"
	"github.com/harperreed/vcfmerge/phone"
	"github.com/harperreed/vcfmerge/vcard"
)

// ContactHandlers serve the vCard tools. Every call works on its own copy of
// the text it is given; nothing is kept between calls.
type ContactHandlers struct {
	countryCode string
	mode        dedupe.Mode
	version     string
	logger      *log.Logger
}

// NewContactHandlers uses the given defaults when a call leaves the matching
// field empty. A nil logger discards output.
func NewContactHandlers(countryCode string, mode dedupe.Mode, version string, logger *log.Logger) *ContactHandlers {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &ContactHandlers{countryCode: countryCode, mode: mode, version: version, logger: logger}
}

type FindDuplicatesInput struct {
	VCards      string `json:"vcards" jsonschema:"vCard text holding one or more records (required)"`
	MatchBy     string `json:"match_by,omitempty" jsonschema:"Match contacts by name, phone or email"`
	CountryCode string `json:"country_code,omitempty" jsonschema:"Country code for numbers without one, e.g. +34"`
}

type ContactOutput struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Phones       []string `json:"phones"`
	Emails       []string `json:"emails"`
	Organization string   `json:"organization,omitempty"`
}

type GroupOutput struct {
	Contacts []ContactOutput `json:"contacts"`
}

type FindDuplicatesOutput struct {
	MatchBy  string        `json:"match_by"`
	Contacts int           `json:"contacts"`
	Groups   []GroupOutput `json:"groups"`
}

func (h *ContactHandlers) FindDuplicates(_ context.Context, _ *mcp.CallToolRequest, input FindDuplicatesInput) (*mcp.CallToolResult, FindDuplicatesOutput, error) {
	mode, err := h.matchMode(input.MatchBy)
	if err != nil {
		return nil, FindDuplicatesOutput{}, err
	}
	countryCode := h.country(input.CountryCode)

	contacts := h.codec(countryCode).Parse(input.VCards)
	groups, err := dedupe.NewMatcher(countryCode).Find(mode, contacts)
	if err != nil {
		return nil, FindDuplicatesOutput{}, err
	}

	byID := make(map[string]models.Contact, len(contacts))
	for _, c := range contacts {
		byID[c.ID] = c
	}

	output := FindDuplicatesOutput{
		MatchBy:  string(mode),
		Contacts: len(contacts),
		Groups:   make([]GroupOutput, 0, len(groups)),
	}
	for _, group := range groups {
		members := make([]ContactOutput, 0, len(group))
		for _, id := range group {
			if c, ok := byID[id]; ok {
				members = append(members, contactToOutput(c))
			}
		}
		output.Groups = append(output.Groups, GroupOutput{Contacts: members})
	}

	h.logger.Debug("find_duplicates", "contacts", len(contacts), "groups", len(groups), "by", mode)
	return nil, output, nil
}

type ConvertInput struct {
	VCards      string `json:"vcards" jsonschema:"vCard text holding one or more records (required)"`
	Version     string `json:"version,omitempty" jsonschema:"vCard version to write: 2.1, 3.0 or 4.0"`
	CountryCode string `json:"country_code,omitempty" jsonschema:"Country code for numbers without one, e.g. +34"`
}

type VCardsOutput struct {
	Version  string `json:"version"`
	Contacts int    `json:"contacts"`
	VCards   string `json:"vcards"`
}

func (h *ContactHandlers) ConvertVCards(_ context.Context, _ *mcp.CallToolRequest, input ConvertInput) (*mcp.CallToolResult, VCardsOutput, error) {
	version := h.exportVersion(input.Version)
	codec := h.codec(h.country(input.CountryCode))

	contacts := codec.Parse(input.VCards)
	text, err := codec.Export(contacts, version)
	if err != nil {
		return nil, VCardsOutput{}, err
	}

	return nil, VCardsOutput{Version: version, Contacts: len(contacts), VCards: text}, nil
}

type NormalizePhonesInput struct {
	Numbers     []string `json:"numbers" jsonschema:"Phone numbers as written (required)"`
	CountryCode string   `json:"country_code,omitempty" jsonschema:"Country code for numbers without one, e.g. +34"`
}

type PhoneOutput struct {
	Input      string `json:"input"`
	Normalized string `json:"normalized"`
	Display    string `json:"display"`
	Matchable  bool   `json:"matchable"`
}

type NormalizePhonesOutput struct {
	Numbers []PhoneOutput `json:"numbers"`
}

func (h *ContactHandlers) NormalizePhones(_ context.Context, _ *mcp.CallToolRequest, input NormalizePhonesInput) (*mcp.CallToolResult, NormalizePhonesOutput, error) {
	if len(input.Numbers) == 0 {
		return nil, NormalizePhonesOutput{}, fmt.Errorf("numbers is required")
	}
	countryCode := h.country(input.CountryCode)

	output := NormalizePhonesOutput{Numbers: make([]PhoneOutput, 0, len(input.Numbers))}
	for _, raw := range input.Numbers {
		_, usable := phone.Key(raw, countryCode)
		output.Numbers = append(output.Numbers, PhoneOutput{
			Input:      raw,
			Normalized: phone.NormalizeWithCountry(raw, countryCode),
			Display:    phone.FormatWithCountry(raw, countryCode),
			Matchable:  usable,
		})
	}
	return nil, output, nil
}

type MergeDuplicatesInput struct {
	VCards      string `json:"vcards" jsonschema:"vCard text holding one or more records (required)"`
	MatchBy     string `json:"match_by,omitempty" jsonschema:"Match contacts by name, phone or email"`
	Version     string `json:"version,omitempty" jsonschema:"vCard version to write: 2.1, 3.0 or 4.0"`
	CountryCode string `json:"country_code,omitempty" jsonschema:"Country code for numbers without one, e.g. +34"`
}

type MergeDuplicatesOutput struct {
	Groups    int          `json:"groups"`
	Merged    int          `json:"merged"`
	Discarded int          `json:"discarded"`
	Result    VCardsOutput `json:"result"`
}

// MergeDuplicates merges every duplicate group as proposed and returns the
// resulting collection. Input without duplicates comes back re-serialized.
func (h *ContactHandlers) MergeDuplicates(ctx context.Context, _ *mcp.CallToolRequest, input MergeDuplicatesInput) (*mcp.CallToolResult, MergeDuplicatesOutput, error) {
	mode, err := h.matchMode(input.MatchBy)
	if err != nil {
		return nil, MergeDuplicatesOutput{}, err
	}
	version := h.exportVersion(input.Version)
	if !models.IsSupportedVersion(version) {
		return nil, MergeDuplicatesOutput{}, fmt.Errorf("%w: %q", vcard.ErrUnsupportedVersion, version)
	}
	countryCode := h.country(input.CountryCode)
	codec := h.codec(countryCode)

	database, store, err := db.Load(ctx, codec.Parse(input.VCards))
	if err != nil {
		return nil, MergeDuplicatesOutput{}, err
	}
	defer func() { _ = database.Close() }()

	contacts, err := store.List(ctx)
	if err != nil {
		return nil, MergeDuplicatesOutput{}, err
	}
	groups, err := dedupe.NewMatcher(countryCode).Find(mode, contacts)
	if err != nil {
		return nil, MergeDuplicatesOutput{}, err
	}

	var output MergeDuplicatesOutput
	if len(groups) > 0 {
		engine := merge.NewEngine(store, merge.WithLogger(h.logger), merge.WithCountryCode(countryCode))
		queue := merge.NewQueue(engine, store, merge.AutoPresenter{}, merge.WithLogger(h.logger))

		summary, err := queue.Run(ctx, groups)
		if err != nil {
			return nil, MergeDuplicatesOutput{}, fmt.Errorf("merge failed: %w", err)
		}
		output.Groups = summary.Groups
		output.Merged = summary.Merged
		output.Discarded = summary.Discarded

		if contacts, err = store.List(ctx); err != nil {
			return nil, MergeDuplicatesOutput{}, err
		}
	}

	text, err := codec.Export(contacts, version)
	if err != nil {
		return nil, MergeDuplicatesOutput{}, err
	}
	output.Result = VCardsOutput{Version: version, Contacts: len(contacts), VCards: text}

	h.logger.Debug("merge_duplicates", "groups", output.Groups, "merged", output.Merged, "remaining", len(contacts))
	return nil, output, nil
}

func (h *ContactHandlers) codec(countryCode string) *vcard.Codec {
	return vcard.NewCodec(vcard.WithLogger(h.logger), vcard.WithCountryCode(countryCode))
}

func (h *ContactHandlers) matchMode(by string) (dedupe.Mode, error) {
	if by == "" {
		return h.mode, nil
	}
	return dedupe.ParseMode(by)
}

func (h *ContactHandlers) country(code string) string {
	if code == "" {
		return h.countryCode
	}
	return code
}

func (h *ContactHandlers) exportVersion(version string) string {
	if version == "" {
		return h.version
	}
	return version
}

func contactToOutput(c models.Contact) ContactOutput {
	return ContactOutput{
		ID:           c.ID,
		Name:         c.FullName,
		Phones:       c.Phones,
		Emails:       c.Emails,
		Organization: c.Organization,
	}
}
