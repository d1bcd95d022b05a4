// ABOUTME: Data models for vCard contacts and duplicate detection
// ABOUTME: Defines Contact, DuplicateGroup, field tables, and format version constants
package models

import "github.com/google/uuid"

// NoName is the sentinel full name given to records without a usable name.
const NoName = "No name"

// Supported vCard versions, oldest first.
const (
	Version21 = "2.1"
	Version30 = "3.0"
	Version40 = "4.0"
)

// OldestVersion is assumed for records without a VERSION line.
const OldestVersion = Version21

// NewestVersion is the only version that carries the extended fields.
const NewestVersion = Version40

// SupportedVersions lists every version the codec reads and writes.
var SupportedVersions = []string{Version21, Version30, Version40}

// IsSupportedVersion reports whether v is one of SupportedVersions.
func IsSupportedVersion(v string) bool {
	for _, s := range SupportedVersions {
		if s == v {
			return true
		}
	}
	return false
}

// Contact is one person or entity record.
//
// Optional scalar fields are pointers: nil means the source had no such
// property, a pointer to "" means the property was present but blank.
type Contact struct {
	ID           string   `json:"id"`
	FullName     string   `json:"full_name"`
	Phones       []string `json:"phones"`
	Emails       []string `json:"emails"`
	Organization string   `json:"organization,omitempty"`

	Title       *string `json:"title,omitempty"`
	Address     *string `json:"address,omitempty"`
	Note        *string `json:"note,omitempty"`
	URL         *string `json:"url,omitempty"`
	Birthday    *string `json:"birthday,omitempty"`
	Gender      *string `json:"gender,omitempty"`
	Anniversary *string `json:"anniversary,omitempty"`
	Kind        *string `json:"kind,omitempty"`
	Language    *string `json:"language,omitempty"`
	Photo       *string `json:"photo,omitempty"`
	Nickname    *string `json:"nickname,omitempty"`
	Categories  *string `json:"categories,omitempty"`
	Role        *string `json:"role,omitempty"`
	Geo         *string `json:"geo,omitempty"`
	Timezone    *string `json:"timezone,omitempty"`

	IMPP []string `json:"impp,omitempty"`

	Version string `json:"version"`
}

// NewContact returns an empty contact with a fresh id and the sentinel name.
func NewContact() Contact {
	return Contact{
		ID:       uuid.NewString(),
		FullName: NoName,
		Phones:   []string{},
		Emails:   []string{},
		Version:  OldestVersion,
	}
}

// EffectiveVersion returns the record's version, or OldestVersion when unset.
func (c *Contact) EffectiveVersion() string {
	if c.Version == "" {
		return OldestVersion
	}
	return c.Version
}

// Clone returns a deep copy; optional values and slices are not shared.
func (c Contact) Clone() Contact {
	out := c
	out.Phones = cloneStrings(c.Phones)
	out.Emails = cloneStrings(c.Emails)
	out.IMPP = cloneStrings(c.IMPP)
	for _, f := range OptionalFields {
		if v := *f.Ref(&c); v != nil {
			*f.Ref(&out) = String(*v)
		}
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// String returns a pointer to s, for populating optional fields.
func String(s string) *string {
	return &s
}

// Value dereferences an optional field, returning "" when absent.
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Field names an optional scalar field.
type Field string

const (
	FieldTitle       Field = "title"
	FieldAddress     Field = "address"
	FieldNote        Field = "note"
	FieldURL         Field = "url"
	FieldBirthday    Field = "birthday"
	FieldGender      Field = "gender"
	FieldAnniversary Field = "anniversary"
	FieldKind        Field = "kind"
	FieldLanguage    Field = "language"
	FieldPhoto       Field = "photo"
	FieldNickname    Field = "nickname"
	FieldCategories  Field = "categories"
	FieldRole        Field = "role"
	FieldGeo         Field = "geo"
	FieldTimezone    Field = "timezone"
)

// OptionalField pairs a field name with an accessor for its storage slot.
type OptionalField struct {
	Name Field
	Ref  func(*Contact) **string
}

// OptionalFields lists every optional scalar field in a fixed order.
var OptionalFields = []OptionalField{
	{FieldTitle, func(c *Contact) **string { return &c.Title }},
	{FieldAddress, func(c *Contact) **string { return &c.Address }},
	{FieldNote, func(c *Contact) **string { return &c.Note }},
	{FieldURL, func(c *Contact) **string { return &c.URL }},
	{FieldBirthday, func(c *Contact) **string { return &c.Birthday }},
	{FieldGender, func(c *Contact) **string { return &c.Gender }},
	{FieldAnniversary, func(c *Contact) **string { return &c.Anniversary }},
	{FieldKind, func(c *Contact) **string { return &c.Kind }},
	{FieldLanguage, func(c *Contact) **string { return &c.Language }},
	{FieldPhoto, func(c *Contact) **string { return &c.Photo }},
	{FieldNickname, func(c *Contact) **string { return &c.Nickname }},
	{FieldCategories, func(c *Contact) **string { return &c.Categories }},
	{FieldRole, func(c *Contact) **string { return &c.Role }},
	{FieldGeo, func(c *Contact) **string { return &c.Geo }},
	{FieldTimezone, func(c *Contact) **string { return &c.Timezone }},
}

// ListField names a multi-value field that merge drafts can edit.
type ListField string

const (
	ListPhones ListField = "phones"
	ListEmails ListField = "emails"
	ListIMPP   ListField = "impp"
)

// List returns a pointer to the slice backing field, or nil for an unknown field.
func (c *Contact) List(field ListField) *[]string {
	switch field {
	case ListPhones:
		return &c.Phones
	case ListEmails:
		return &c.Emails
	case ListIMPP:
		return &c.IMPP
	}
	return nil
}

// DuplicateGroup is an ordered list of two or more contact ids believed to
// describe the same entity.
type DuplicateGroup []string
