// ABOUTME: Field combination rules for merging contacts
// ABOUTME: Lists are unioned in first-seen order, scalars fall back from master to slaves
package merge

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/harperreed/vcfmerge/models"
	"github.com/harperreed/vcfmerge/phone"
)

// combine builds a draft from sources, master first. The name and id always
// come from the master. Optional fields take the first present value, so a
// master's explicit blank still wins over a slave's value.
func combine(sources []models.Contact, countryCode string) models.Contact {
	master := sources[0]

	draft := models.Contact{
		ID:       master.ID,
		FullName: master.FullName,
		Phones:   []string{},
		Emails:   []string{},
		Version:  master.EffectiveVersion(),
	}

	phones := newUnion()
	emails := newUnion()
	impp := newUnion()

	for i := range sources {
		src := &sources[i]

		for _, p := range src.Phones {
			n := phone.NormalizeWithCountry(p, countryCode)
			if phones.add(n, n) {
				draft.Phones = append(draft.Phones, n)
			}
		}
		for _, e := range src.Emails {
			e = strings.TrimSpace(e)
			if emails.add(strings.ToLower(e), e) {
				draft.Emails = append(draft.Emails, e)
			}
		}
		for _, h := range src.IMPP {
			h = strings.TrimSpace(h)
			if impp.add(h, h) {
				draft.IMPP = append(draft.IMPP, h)
			}
		}

		if draft.Organization == "" {
			draft.Organization = strings.TrimSpace(src.Organization)
		}

		for _, f := range models.OptionalFields {
			dst := f.Ref(&draft)
			if *dst != nil {
				continue
			}
			if v := *f.Ref(src); v != nil {
				*dst = models.String(*v)
			}
		}
	}

	return draft
}

type union map[string]bool

func newUnion() union {
	return make(union)
}

// add records key and reports whether value should be kept.
func (u union) add(key, value string) bool {
	if value == "" || u[key] {
		return false
	}
	u[key] = true
	return true
}

// RankByName orders contacts by descending name length, keeping input order
// on ties, and returns their ids. The longest name becomes the default master.
func RankByName(contacts []models.Contact) []string {
	ranked := append([]models.Contact(nil), contacts...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return nameLength(ranked[i]) > nameLength(ranked[j])
	})

	ids := make([]string, len(ranked))
	for i, c := range ranked {
		ids[i] = c.ID
	}
	return ids
}

func nameLength(c models.Contact) int {
	name := strings.TrimSpace(c.FullName)
	if name == models.NoName {
		return 0
	}
	return utf8.RuneCountInString(name)
}
