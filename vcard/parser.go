// ABOUTME: Tolerant vCard parser for versions 2.1, 3.0 and 4.0
// ABOUTME: Splits text into records and maps properties onto Contact with per-record isolation
package vcard

import (
	"regexp"
	"strings"

	"github.com/harperreed/vcfmerge/models"
)

var (
	recordStart = regexp.MustCompile(`(?im)^[ \t]*BEGIN:VCARD[ \t]*$`)
	recordEnd   = regexp.MustCompile(`(?im)^[ \t]*END:VCARD[ \t]*$`)
	spaces      = regexp.MustCompile(`\s+`)
)

// Legacy instant-messaging properties and the URI scheme each maps to.
var legacyIM = map[string]string{
	"X-AIM":         "aim",
	"X-ICQ":         "icq",
	"X-JABBER":      "xmpp",
	"X-MSN":         "msnim",
	"X-YAHOO":       "ymsgr",
	"X-SKYPE":       "skype",
	"X-GOOGLE-TALK": "xmpp",
}

// Parse splits text into records and parses each one. A record that cannot
// be read still yields a contact with the sentinel name; nothing here fails.
func (c *Codec) Parse(text string) []models.Contact {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	starts := recordStart.FindAllStringIndex(text, -1)
	contacts := make([]models.Contact, 0, len(starts))

	for i, loc := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		fragment := text[loc[1]:end]
		if stop := recordEnd.FindStringIndex(fragment); stop != nil {
			fragment = fragment[:stop[0]]
		}

		if strings.TrimSpace(fragment) == "" {
			c.logger.Debug("dropping empty vcard fragment", "index", i)
			continue
		}

		contacts = append(contacts, c.parseRecord(i, fragment))
	}

	c.logger.Debug("parsed vcards", "records", len(starts), "contacts", len(contacts))
	return contacts
}

// parseRecord isolates one fragment so a fault in it cannot affect the others.
func (c *Codec) parseRecord(index int, fragment string) (contact models.Contact) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("recovered malformed vcard", "index", index, "panic", r)
			contact = models.NewContact()
		}
	}()

	props, skipped := Tokenize(fragment)
	if skipped > 0 {
		c.logger.Debug("skipped unparseable lines", "index", index, "lines", skipped)
	}
	return buildContact(props)
}

func buildContact(props []Property) models.Contact {
	contact := models.NewContact()
	contact.Version = ""

	var fullName, structuredName string
	orgSeen := false

	for _, p := range props {
		switch p.Name {
		case "VERSION":
			if contact.Version == "" {
				contact.Version = strings.TrimSpace(p.Value)
			}
		case "FN":
			if fullName == "" {
				fullName = textValue(p)
			}
		case "N":
			if structuredName == "" {
				structuredName = joinName(p)
			}
		case "TEL":
			if v := phoneValue(p); v != "" {
				contact.Phones = append(contact.Phones, v)
			}
		case "EMAIL":
			if v := textValue(p); v != "" {
				contact.Emails = append(contact.Emails, v)
			}
		case "IMPP":
			if v := rawValue(p); v != "" {
				contact.IMPP = append(contact.IMPP, v)
			}
		case "ORG":
			if !orgSeen {
				contact.Organization = joinComponents(p)
				orgSeen = true
			}
		case "ADR":
			setOnce(&contact.Address, joinComponents(p))
		case "TITLE":
			setOnce(&contact.Title, textValue(p))
		case "ROLE":
			setOnce(&contact.Role, textValue(p))
		case "NOTE":
			setOnce(&contact.Note, textValue(p))
		case "NICKNAME":
			setOnce(&contact.Nickname, textValue(p))
		case "CATEGORIES":
			setOnce(&contact.Categories, textValue(p))
		case "GENDER":
			setOnce(&contact.Gender, textValue(p))
		case "URL":
			setOnce(&contact.URL, rawValue(p))
		case "BDAY":
			setOnce(&contact.Birthday, rawValue(p))
		case "ANNIVERSARY":
			setOnce(&contact.Anniversary, rawValue(p))
		case "KIND":
			setOnce(&contact.Kind, strings.ToLower(rawValue(p)))
		case "LANG":
			setOnce(&contact.Language, rawValue(p))
		case "PHOTO":
			setOnce(&contact.Photo, rawValue(p))
		case "GEO":
			setOnce(&contact.Geo, rawValue(p))
		case "TZ":
			setOnce(&contact.Timezone, rawValue(p))
		default:
			if scheme, ok := legacyIM[p.Name]; ok {
				if v := rawValue(p); v != "" {
					contact.IMPP = append(contact.IMPP, scheme+":"+v)
				}
			}
		}
	}

	switch {
	case fullName != "":
		contact.FullName = fullName
	case structuredName != "":
		contact.FullName = structuredName
	default:
		contact.FullName = models.NoName
	}

	if contact.Version == "" {
		contact.Version = models.OldestVersion
	}

	return contact
}

func setOnce(dst **string, value string) {
	if *dst == nil {
		*dst = models.String(value)
	}
}

// textValue decodes a free-text property.
func textValue(p Property) string {
	return strings.TrimSpace(unescapeText(decodeTransport(p, true)))
}

// rawValue decodes transfer encodings only; URIs and dates keep their escapes.
func rawValue(p Property) string {
	return decodeTransport(p, false)
}

func phoneValue(p Property) string {
	v := rawValue(p)
	if len(v) >= 4 && strings.EqualFold(v[:4], "tel:") {
		v = strings.TrimSpace(v[4:])
	}
	return v
}

// joinName turns structured N components into a display name.
func joinName(p Property) string {
	parts := splitComponents(decodeTransport(p, true), ';')
	return strings.TrimSpace(spaces.ReplaceAllString(strings.Join(parts, " "), " "))
}

// joinComponents flattens ADR or ORG into one comma separated string.
func joinComponents(p Property) string {
	var kept []string
	for _, part := range splitComponents(decodeTransport(p, true), ';') {
		if part = strings.TrimSpace(part); part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, ", ")
}
