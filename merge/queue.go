// ABOUTME: Sequential processing of duplicate groups through the merge engine
// ABOUTME: Skips groups whose members were consumed by earlier merges and supports cancellation
package merge

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/harperreed/vcfmerge/models"
)

// Queue presents duplicate groups one at a time, in order. It shares its
// engine and collection with no other caller while active.
type Queue struct {
	engine    *Engine
	coll      Collection
	presenter Presenter
	logger    *log.Logger

	order      func([]models.Contact) []string
	onComplete func(Summary)
	onCancel   func(Summary)

	groups  []models.DuplicateGroup
	active  bool
	summary Summary
}

// NewQueue creates a queue driving engine, which must operate on coll.
func NewQueue(engine *Engine, coll Collection, presenter Presenter, opts ...Option) *Queue {
	o := buildOptions(opts)
	return &Queue{
		engine:     engine,
		coll:       coll,
		presenter:  presenter,
		logger:     o.logger,
		order:      o.order,
		onComplete: o.onComplete,
		onCancel:   o.onCancel,
	}
}

// Active reports whether groups are still being processed.
func (q *Queue) Active() bool {
	return q.active
}

// Remaining returns the number of groups not yet taken from the queue.
func (q *Queue) Remaining() int {
	return len(q.groups)
}

// Summary returns the counts for the current or last run.
func (q *Queue) Summary() Summary {
	return q.summary
}

// Start previews groups and, if the presenter proceeds, presents the first
// one. An empty list is reported as ErrNothingToDo.
func (q *Queue) Start(ctx context.Context, groups []models.DuplicateGroup) error {
	if q.active {
		return ErrQueueActive
	}
	if len(groups) == 0 {
		return ErrNothingToDo
	}

	q.summary = Summary{Groups: len(groups)}
	q.groups = append([]models.DuplicateGroup(nil), groups...)
	q.active = true

	decision, err := q.presenter.PresentDuplicatePreview(ctx, groups)
	if err != nil {
		q.active = false
		q.groups = nil
		return fmt.Errorf("duplicate preview failed: %w", err)
	}
	if decision == Cancel {
		q.Cancel()
		return nil
	}

	_, err = q.Advance(ctx)
	return err
}

// Advance takes groups from the front of the queue until one still has two
// live members, then presents it and applies the decision. It returns
// whether the queue is still active afterwards. An error stops the queue.
func (q *Queue) Advance(ctx context.Context) (bool, error) {
	if !q.active {
		return false, nil
	}

	for len(q.groups) > 0 {
		group := q.groups[0]
		q.groups = q.groups[1:]

		live, err := q.liveMembers(ctx, group)
		if err != nil {
			q.stop(err)
			return false, err
		}
		if len(live) < 2 {
			q.summary.Discarded++
			q.logger.Debug("discarding resolved group", "members", len(group), "live", len(live))
			continue
		}

		if err := q.present(ctx, q.order(live)); err != nil {
			q.stop(err)
			return false, err
		}
		return q.active, nil
	}

	q.complete()
	return false, nil
}

func (q *Queue) present(ctx context.Context, ids []string) error {
	if _, err := q.engine.Begin(ctx, ids); err != nil {
		return fmt.Errorf("failed to begin merge: %w", err)
	}
	q.summary.Presented++

	decision, err := q.presenter.PresentPendingMerge(ctx, q.engine)
	if err != nil {
		q.engine.Abort()
		return fmt.Errorf("merge review failed: %w", err)
	}

	switch decision {
	case Commit:
		if _, err := q.engine.Commit(ctx); err != nil {
			q.engine.Abort()
			return err
		}
		q.summary.Merged++
	case Abort:
		q.engine.Abort()
		q.summary.Skipped++
	case CancelAll:
		q.engine.Abort()
		q.Cancel()
	}
	return nil
}

// liveMembers resolves the distinct ids of group that still exist.
func (q *Queue) liveMembers(ctx context.Context, group models.DuplicateGroup) ([]models.Contact, error) {
	var live []models.Contact
	for _, id := range distinct(group) {
		c, err := q.coll.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load contact %s: %w", id, err)
		}
		if c != nil {
			live = append(live, *c)
		}
	}
	return live, nil
}

// Cancel stops the queue and drops the remaining groups. Merges already
// committed stay. A merge left open by the caller is not touched.
func (q *Queue) Cancel() {
	if !q.active {
		return
	}
	q.active = false
	q.groups = nil
	q.summary.Cancelled = true

	q.logger.Info("merge queue cancelled", "merged", q.summary.Merged, "skipped", q.summary.Skipped)
	if q.onCancel != nil {
		q.onCancel(q.summary)
	}
}

// stop ends the run after a failure. Merges already committed stay and the
// cancellation callback fires so the caller sees the run end.
func (q *Queue) stop(err error) {
	if !q.active {
		return
	}
	q.logger.Warn("merge queue stopped", "err", err)
	q.Cancel()
}

func (q *Queue) complete() {
	q.active = false
	q.logger.Info("merge queue complete",
		"groups", q.summary.Groups,
		"merged", q.summary.Merged,
		"skipped", q.summary.Skipped,
		"discarded", q.summary.Discarded,
	)
	if q.onComplete != nil {
		q.onComplete(q.summary)
	}
}

// Run starts the queue and advances it until it finishes or is cancelled.
func (q *Queue) Run(ctx context.Context, groups []models.DuplicateGroup) (Summary, error) {
	if err := q.Start(ctx, groups); err != nil {
		return q.summary, err
	}
	for q.active {
		if err := ctx.Err(); err != nil {
			q.Cancel()
			return q.summary, err
		}
		if _, err := q.Advance(ctx); err != nil {
			return q.summary, err
		}
	}
	return q.summary, nil
}
