// ABOUTME: vCard serialization with per-version field gating
// ABOUTME: Each property is rendered by a small pure function so version rules are testable alone
package vcard

import (
	"strings"
	"unicode/utf8"

	"github.com/harperreed/vcfmerge/models"
	"github.com/harperreed/vcfmerge/phone"
)

const crlf = "\r\n"

// newestOnly lists properties written only for models.NewestVersion.
var newestOnly = map[string]bool{
	"GENDER":      true,
	"KIND":        true,
	"ANNIVERSARY": true,
	"LANG":        true,
	"GEO":         true,
	"TZ":          true,
	"IMPP":        true,
	"NICKNAME":    true,
	"CATEGORIES":  true,
	"ROLE":        true,
	"PHOTO":       true,
}

// supports reports whether version can represent property.
func supports(property, version string) bool {
	if newestOnly[property] {
		return version == models.NewestVersion
	}
	return true
}

// Serialize writes one record per contact in the requested version. Phones
// are normalized again on the way out. An unknown version falls back to
// DefaultExportVersion.
func (c *Codec) Serialize(contacts []models.Contact, version string) string {
	if !models.IsSupportedVersion(version) {
		c.logger.Warn("unsupported vcard version, using default", "version", version, "default", DefaultExportVersion)
		version = DefaultExportVersion
	}

	var b strings.Builder
	for i := range contacts {
		for _, line := range c.cardLines(&contacts[i], version) {
			b.WriteString(line)
			b.WriteString(crlf)
		}
	}
	return b.String()
}

func (c *Codec) cardLines(ct *models.Contact, version string) []string {
	name := strings.TrimSpace(ct.FullName)
	if name == "" {
		name = models.NoName
	}

	lines := []string{
		"BEGIN:VCARD",
		"VERSION:" + version,
		textLine("FN", name, version),
		nameLine(name, version),
	}

	add := func(line string) {
		if line != "" {
			lines = append(lines, line)
		}
	}

	add(optionalLine("KIND", ct.Kind, version))
	add(optionalLine("GENDER", ct.Gender, version))
	add(optionalLine("NICKNAME", ct.Nickname, version))
	if ct.Organization != "" {
		add(textLine("ORG", ct.Organization, version))
	}
	add(optionalLine("TITLE", ct.Title, version))
	add(optionalLine("ROLE", ct.Role, version))

	for _, p := range ct.Phones {
		add(phoneLine(phone.NormalizeWithCountry(p, c.countryCode), version))
	}
	for _, e := range ct.Emails {
		add(emailLine(e, version))
	}
	for _, im := range ct.IMPP {
		add(imppLine(im, version))
	}

	add(addressLine(ct.Address, version))
	add(rawLine("URL", ct.URL, version))
	add(rawLine("BDAY", ct.Birthday, version))
	add(rawLine("ANNIVERSARY", ct.Anniversary, version))
	add(rawLine("LANG", ct.Language, version))
	add(rawLine("TZ", ct.Timezone, version))
	add(rawLine("GEO", ct.Geo, version))
	add(optionalLine("CATEGORIES", ct.Categories, version))
	add(rawLine("PHOTO", ct.Photo, version))
	add(optionalLine("NOTE", ct.Note, version))

	return append(lines, "END:VCARD")
}

// typeParam renders a type annotation in the convention of each version:
// bare upper case for 2.1, TYPE=UPPER for 3.0, TYPE=lower for 4.0.
func typeParam(kind, version string) string {
	switch version {
	case models.Version21:
		return strings.ToUpper(kind)
	case models.Version30:
		return "TYPE=" + strings.ToUpper(kind)
	default:
		return "TYPE=" + strings.ToLower(kind)
	}
}

// charsetParam marks non-ASCII values for 2.1 readers, which default to ASCII.
func charsetParam(value, version string) string {
	if version != models.Version21 {
		return ""
	}
	for i := 0; i < len(value); i++ {
		if value[i] >= utf8.RuneSelf {
			return ";CHARSET=UTF-8"
		}
	}
	return ""
}

func protectPercent(s string) string {
	if percentEscape.MatchString(s) {
		return strings.ReplaceAll(s, "%", "%25")
	}
	return s
}

// textLine writes a free-text property, escaped.
func textLine(name, value, version string) string {
	if !supports(name, version) {
		return ""
	}
	escaped := protectPercent(escapeText(value, name != "CATEGORIES" && name != "NICKNAME"))
	return name + charsetParam(value, version) + ":" + escaped
}

// optionalLine writes a text property when it is present.
func optionalLine(name string, value *string, version string) string {
	if value == nil {
		return ""
	}
	return textLine(name, *value, version)
}

// rawLine writes a present URI, date or token property without escaping.
func rawLine(name string, value *string, version string) string {
	if value == nil || !supports(name, version) {
		return ""
	}
	return name + ":" + *value
}

// nameLine writes the structured N property from a display name, treating
// the last word as the family name.
func nameLine(fullName, version string) string {
	words := strings.Fields(fullName)
	family, given := fullName, ""
	if len(words) > 1 {
		family = words[len(words)-1]
		given = strings.Join(words[:len(words)-1], " ")
	}
	return "N" + charsetParam(fullName, version) + ":" +
		protectPercent(escapeText(family, true)) + ";" + protectPercent(escapeText(given, true)) + ";;;"
}

func phoneLine(number, version string) string {
	if number == "" {
		return ""
	}
	return "TEL;" + typeParam("cell", version) + ":" + number
}

func emailLine(address, version string) string {
	address = strings.TrimSpace(address)
	if address == "" {
		return ""
	}
	value := protectPercent(escapeText(address, false))
	if version == models.Version40 {
		return "EMAIL:" + value
	}
	return "EMAIL;" + typeParam("internet", version) + charsetParam(address, version) + ":" + value
}

func imppLine(handle, version string) string {
	handle = strings.TrimSpace(handle)
	if handle == "" || !supports("IMPP", version) {
		return ""
	}
	return "IMPP:" + handle
}

// addressLine writes the flattened address into the street component.
func addressLine(address *string, version string) string {
	if address == nil {
		return ""
	}
	return "ADR;" + typeParam("home", version) + charsetParam(*address, version) + ":;;" +
		protectPercent(escapeText(*address, true)) + ";;;;"
}
