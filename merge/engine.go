// ABOUTME: Master/slave merge engine with a single editable pending merge
// ABOUTME: Builds a combined draft, lets the caller re-pick the master or edit lists, then commits
package merge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/harperreed/vcfmerge/models"
)

var (
	ErrMergeInProgress = errors.New("a merge is already in progress")
	ErrNoPendingMerge  = errors.New("no merge in progress")
	ErrTooFewContacts  = errors.New("a merge needs at least two distinct contacts")
	ErrContactNotFound = errors.New("contact not found")
	ErrNotMember       = errors.New("contact is not part of this merge")
	ErrNothingToDo     = errors.New("no duplicate groups to merge")
	ErrQueueActive     = errors.New("merge queue is already running")
)

// PendingMerge is the open edit session between Begin and Commit or Abort.
// MemberIDs and Sources are parallel and start with the master. Draft is the
// caller's to edit.
type PendingMerge struct {
	MasterID  string
	MemberIDs []string
	Draft     models.Contact
	Sources   []models.Contact
}

// Engine combines contacts from a Collection. At most one merge is open at a time.
type Engine struct {
	coll        Collection
	logger      *log.Logger
	countryCode string

	pending *PendingMerge
	order   []string // ids as given to Begin; SetMaster keeps slaves in this order
}

// NewEngine creates an engine over coll.
func NewEngine(coll Collection, opts ...Option) *Engine {
	o := buildOptions(opts)
	return &Engine{
		coll:        coll,
		logger:      o.logger,
		countryCode: o.countryCode,
	}
}

// Pending returns the open merge, or nil.
func (e *Engine) Pending() *PendingMerge {
	return e.pending
}

// Begin opens a merge of ids with the first id as master. Repeated ids are
// ignored. Every id must resolve to a contact.
func (e *Engine) Begin(ctx context.Context, ids []string) (*PendingMerge, error) {
	if e.pending != nil {
		return nil, ErrMergeInProgress
	}

	members := distinct(ids)
	if len(members) < 2 {
		return nil, ErrTooFewContacts
	}

	sources := make([]models.Contact, 0, len(members))
	for _, id := range members {
		c, err := e.coll.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load contact %s: %w", id, err)
		}
		if c == nil {
			return nil, fmt.Errorf("%w: %s", ErrContactNotFound, id)
		}
		sources = append(sources, c.Clone())
	}

	e.order = members
	e.pending = &PendingMerge{
		MasterID:  members[0],
		MemberIDs: append([]string(nil), members...),
		Sources:   sources,
		Draft:     combine(sources, e.countryCode),
	}

	e.logger.Debug("merge started", "master", e.pending.MasterID, "members", len(members))
	return e.pending, nil
}

// SetMaster makes id the master and rebuilds the draft from scratch. The
// other members keep the order they had in Begin, so switching back restores
// the original draft. Edits made to the draft are discarded.
func (e *Engine) SetMaster(id string) error {
	p := e.pending
	if p == nil {
		return ErrNoPendingMerge
	}

	byID := make(map[string]models.Contact, len(p.Sources))
	for i, mid := range p.MemberIDs {
		byID[mid] = p.Sources[i]
	}
	if _, ok := byID[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotMember, id)
	}

	members := make([]string, 0, len(e.order))
	members = append(members, id)
	for _, mid := range e.order {
		if mid != id {
			members = append(members, mid)
		}
	}

	sources := make([]models.Contact, len(members))
	for i, mid := range members {
		sources[i] = byID[mid]
	}

	p.MasterID = id
	p.MemberIDs = members
	p.Sources = sources
	p.Draft = combine(sources, e.countryCode)
	return nil
}

// AddListEntry appends value to a list field of the draft.
func (e *Engine) AddListEntry(field models.ListField, value string) {
	list := e.draftList(field)
	*list = append(*list, value)
}

// RemoveListEntry removes the entry at index from a list field of the draft.
// An index out of range is a caller bug and panics.
func (e *Engine) RemoveListEntry(field models.ListField, index int) {
	list := e.draftList(field)
	if index < 0 || index >= len(*list) {
		panic(fmt.Sprintf("merge: %s index %d out of range [0,%d)", field, index, len(*list)))
	}
	*list = append((*list)[:index:index], (*list)[index+1:]...)
}

func (e *Engine) draftList(field models.ListField) *[]string {
	if e.pending == nil {
		panic("merge: list edit with no merge in progress")
	}
	list := e.pending.Draft.List(field)
	if list == nil {
		panic(fmt.Sprintf("merge: unknown list field %q", field))
	}
	return list
}

// Commit writes the draft into the collection under the master's id,
// replacing every member, and closes the merge. Blank list entries are
// dropped. If the collection refuses the write the merge stays open.
func (e *Engine) Commit(ctx context.Context) (models.Contact, error) {
	p := e.pending
	if p == nil {
		return models.Contact{}, ErrNoPendingMerge
	}

	merged := p.Draft.Clone()
	merged.ID = p.MasterID
	if strings.TrimSpace(merged.FullName) == "" {
		merged.FullName = p.Sources[0].FullName
	}
	merged.Phones = nonBlank(merged.Phones)
	merged.Emails = nonBlank(merged.Emails)
	if merged.IMPP != nil {
		merged.IMPP = nonBlank(merged.IMPP)
	}

	if err := e.coll.Replace(ctx, p.MemberIDs, merged); err != nil {
		return models.Contact{}, fmt.Errorf("failed to apply merge: %w", err)
	}
	e.coll.NotifyChanged()

	e.logger.Info("merged contacts", "name", merged.FullName, "id", merged.ID, "members", len(p.MemberIDs))
	e.pending = nil
	e.order = nil
	return merged, nil
}

// Abort closes the merge without touching the collection.
func (e *Engine) Abort() {
	if e.pending != nil {
		e.logger.Debug("merge aborted", "master", e.pending.MasterID)
	}
	e.pending = nil
	e.order = nil
}

func distinct(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
