// ABOUTME: Collaborator contracts for the merge engine and queue
// ABOUTME: The contact collection owner and the presenter that reviews each merge
package merge

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/harperreed/vcfmerge/models"
	"github.com/harperreed/vcfmerge/phone"
)

// Collection is the owner of the working contacts. Replace is the only
// mutation the merge engine performs; NotifyChanged is called after it.
type Collection interface {
	Get(ctx context.Context, id string) (*models.Contact, error)
	Replace(ctx context.Context, ids []string, merged models.Contact) error
	NotifyChanged()
}

// PreviewDecision is the answer to a duplicate preview.
type PreviewDecision int

const (
	Proceed PreviewDecision = iota
	Cancel
)

// MergeDecision is the answer to a pending merge review.
type MergeDecision int

const (
	Commit MergeDecision = iota
	Abort
	CancelAll
)

func (d MergeDecision) String() string {
	switch d {
	case Commit:
		return "commit"
	case Abort:
		return "abort"
	case CancelAll:
		return "cancel"
	}
	return "unknown"
}

// Session is the view of an open merge handed to a presenter. The presenter
// may edit Pending().Draft directly or through the list helpers.
type Session interface {
	Pending() *PendingMerge
	SetMaster(id string) error
	AddListEntry(field models.ListField, value string)
	RemoveListEntry(field models.ListField, index int)
}

// Presenter shows duplicate groups and pending merges to a person, or
// decides for them. Each call blocks until it has an answer.
type Presenter interface {
	PresentDuplicatePreview(ctx context.Context, groups []models.DuplicateGroup) (PreviewDecision, error)
	PresentPendingMerge(ctx context.Context, session Session) (MergeDecision, error)
}

// AutoPresenter proceeds with every preview and commits every draft as built.
type AutoPresenter struct{}

func (AutoPresenter) PresentDuplicatePreview(context.Context, []models.DuplicateGroup) (PreviewDecision, error) {
	return Proceed, nil
}

func (AutoPresenter) PresentPendingMerge(context.Context, Session) (MergeDecision, error) {
	return Commit, nil
}

// Summary counts what a queue run did.
type Summary struct {
	Groups    int
	Presented int
	Merged    int
	Skipped   int
	Discarded int
	Cancelled bool
}

// Option configures an Engine or a Queue. Options that do not apply to the
// value being built are ignored.
type Option func(*options)

type options struct {
	logger      *log.Logger
	countryCode string
	order       func([]models.Contact) []string
	onComplete  func(Summary)
	onCancel    func(Summary)
}

func buildOptions(opts []Option) options {
	o := options{
		logger:      log.New(io.Discard),
		countryCode: phone.DefaultCountryCode,
		order:       RankByName,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCountryCode sets the country code used to normalize phones in drafts.
func WithCountryCode(code string) Option {
	return func(o *options) {
		if code != "" {
			o.countryCode = code
		}
	}
}

// WithOrder replaces the heuristic that orders a group's live contacts
// before the merge begins. The first id returned becomes the master.
func WithOrder(order func([]models.Contact) []string) Option {
	return func(o *options) {
		if order != nil {
			o.order = order
		}
	}
}

// OnComplete is called when a queue drains every group.
func OnComplete(fn func(Summary)) Option {
	return func(o *options) { o.onComplete = fn }
}

// OnCancel is called when a queue is cancelled before draining.
func OnCancel(fn func(Summary)) Option {
	return func(o *options) { o.onCancel = fn }
}
