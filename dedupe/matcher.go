// ABOUTME: Duplicate contact detection by name, phone, or email
// ABOUTME: Partitions a contact list into groups of ids that likely describe the same person
package dedupe

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/harperreed/vcfmerge/models"
	"github.com/harperreed/vcfmerge/phone"
)

// Mode selects the key used to group contacts.
type Mode string

const (
	ModeName  Mode = "name"
	ModePhone Mode = "phone"
	ModeEmail Mode = "email"
)

// Modes lists every supported grouping mode.
var Modes = []Mode{ModeName, ModePhone, ModeEmail}

// ErrUnknownMode is returned for a grouping mode outside Modes.
var ErrUnknownMode = errors.New("unknown match mode")

// ParseMode validates a user supplied mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Modes {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Matcher groups contacts. The country code is used to normalize phones
// before they are compared.
type Matcher struct {
	countryCode string
	fold        cases.Caser
}

// NewMatcher creates a matcher. An empty country code means phone.DefaultCountryCode.
func NewMatcher(countryCode string) *Matcher {
	if countryCode == "" {
		countryCode = phone.DefaultCountryCode
	}
	return &Matcher{
		countryCode: countryCode,
		fold:        cases.Fold(),
	}
}

// Find dispatches to the grouping method for mode.
func (m *Matcher) Find(mode Mode, contacts []models.Contact) ([]models.DuplicateGroup, error) {
	switch mode {
	case ModeName:
		return m.ByName(contacts), nil
	case ModePhone:
		return m.ByPhone(contacts), nil
	case ModeEmail:
		return m.ByEmail(contacts), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
}

// ByName groups contacts whose names are equal after case folding and
// trimming. Unnamed contacts never group. Each contact lands in at most one
// group, and members keep encounter order.
func (m *Matcher) ByName(contacts []models.Contact) []models.DuplicateGroup {
	var order []string
	members := make(map[string][]string)

	for i := range contacts {
		key := m.nameKey(contacts[i].FullName)
		if key == "" {
			continue
		}
		if _, seen := members[key]; !seen {
			order = append(order, key)
		}
		members[key] = appendDistinct(members[key], contacts[i].ID)
	}

	var groups []models.DuplicateGroup
	for _, key := range order {
		if len(members[key]) >= 2 {
			groups = append(groups, models.DuplicateGroup(members[key]))
		}
	}
	return groups
}

// ByPhone groups contacts that share a normalized phone number. A pair that
// shares several numbers is reported once. Groups are not merged
// transitively, so one contact can appear in two groups when it shares a
// different number with each.
func (m *Matcher) ByPhone(contacts []models.Contact) []models.DuplicateGroup {
	return groupByValues(contacts, func(c *models.Contact) []string {
		var keys []string
		for _, p := range c.Phones {
			if key, ok := phone.Key(p, m.countryCode); ok {
				keys = append(keys, key)
			}
		}
		return keys
	})
}

// ByEmail groups contacts that share an email address, compared without
// case or surrounding space. It follows the same rules as ByPhone.
func (m *Matcher) ByEmail(contacts []models.Contact) []models.DuplicateGroup {
	return groupByValues(contacts, func(c *models.Contact) []string {
		var keys []string
		for _, e := range c.Emails {
			if key := normalizeEmail(e); key != "" {
				keys = append(keys, key)
			}
		}
		return keys
	})
}

func (m *Matcher) nameKey(name string) string {
	key := m.fold.String(strings.TrimSpace(name))
	if key == "" || key == m.fold.String(models.NoName) {
		return ""
	}
	return key
}

// groupByValues maps each key to the distinct contacts holding it and emits
// one group per distinct id set with two or more members.
func groupByValues(contacts []models.Contact, keysOf func(*models.Contact) []string) []models.DuplicateGroup {
	var order []string
	holders := make(map[string][]string)

	for i := range contacts {
		for _, key := range keysOf(&contacts[i]) {
			if _, seen := holders[key]; !seen {
				order = append(order, key)
			}
			holders[key] = appendDistinct(holders[key], contacts[i].ID)
		}
	}

	var groups []models.DuplicateGroup
	reported := make(map[string]bool)
	for _, key := range order {
		ids := holders[key]
		if len(ids) < 2 {
			continue
		}
		identity := setKey(ids)
		if reported[identity] {
			continue
		}
		reported[identity] = true
		groups = append(groups, models.DuplicateGroup(ids))
	}
	return groups
}

func appendDistinct(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

// setKey identifies an id set regardless of order.
func setKey(ids []string) string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}

// normalizeEmail converts email to lowercase for comparison.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
