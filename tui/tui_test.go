// ABOUTME: Tests for the preview dialog, merge review, and presenter
// ABOUTME: Drives bubbletea models with key messages and checks decisions and rendering
package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/vcfmerge/merge"
	"github.com/harperreed/vcfmerge/models"
)

type mapCollection map[string]models.Contact

func (c mapCollection) Get(_ context.Context, id string) (*models.Contact, error) {
	contact, ok := c[id]
	if !ok {
		return nil, nil
	}
	return &contact, nil
}

func (c mapCollection) Replace(_ context.Context, ids []string, merged models.Contact) error {
	for _, id := range ids {
		delete(c, id)
	}
	c[merged.ID] = merged
	return nil
}

func (c mapCollection) NotifyChanged() {}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func key(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

func openSession(t *testing.T) (*merge.Engine, mapCollection) {
	t.Helper()
	coll := mapCollection{
		"a": {ID: "a", FullName: "Ana Lopez", Phones: []string{"+34612111111"}, Emails: []string{"ana@example.com"}, Version: models.Version30},
		"b": {ID: "b", FullName: "Ana", Phones: []string{"+34612222222"}, Title: models.String("Engineer"), Version: models.Version30},
	}
	engine := merge.NewEngine(coll)
	_, err := engine.Begin(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	return engine, coll
}

func update(t *testing.T, m tea.Model, msgs ...tea.Msg) (tea.Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		m, cmd = m.Update(msg)
	}
	return m, cmd
}

func TestPreviewDecisions(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
		want merge.PreviewDecision
	}{
		{"yes", runes("y"), merge.Proceed},
		{"enter", key(tea.KeyEnter), merge.Proceed},
		{"no", runes("n"), merge.Cancel},
		{"escape", key(tea.KeyEsc), merge.Cancel},
		{"quit", runes("q"), merge.Cancel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, cmd := update(t, newPreviewModel([][]string{{"Ana", "Ana Lopez"}}), tt.msg)
			assert.Equal(t, tt.want, m.(previewModel).decision)
			require.NotNil(t, cmd)
			assert.IsType(t, tea.QuitMsg{}, cmd())
		})
	}
}

func TestPreviewDefaultsToCancel(t *testing.T) {
	m, cmd := update(t, newPreviewModel(nil), runes("z"))
	assert.Nil(t, cmd)
	assert.Equal(t, merge.Cancel, m.(previewModel).decision)
}

func TestPreviewView(t *testing.T) {
	groups := make([][]string, maxPreviewGroups+2)
	for i := range groups {
		groups[i] = []string{"Ana", "Ana Lopez"}
	}

	m, _ := update(t, newPreviewModel(groups), tea.WindowSizeMsg{Width: 100, Height: 40})
	view := m.View()

	assert.Contains(t, view, "DUPLICATES FOUND")
	assert.Contains(t, view, "10 groups covering 20 contacts")
	assert.Contains(t, view, "Ana / Ana Lopez")
	assert.Contains(t, view, "and 2 more")
}

func TestReviewShowsDraft(t *testing.T) {
	engine, _ := openSession(t)
	view := newReviewModel(engine).View()

	assert.Contains(t, view, "MERGE 2 CONTACTS")
	assert.Contains(t, view, "* ")
	assert.Contains(t, view, "+34612111111")
	assert.Contains(t, view, "+34612222222")
	assert.Contains(t, view, "ana@example.com")
	assert.Contains(t, view, "Engineer")
}

func TestReviewTabSwitchesMaster(t *testing.T) {
	engine, _ := openSession(t)

	m, _ := update(t, newReviewModel(engine), key(tea.KeyTab))
	assert.Equal(t, "b", engine.Pending().MasterID)
	assert.Equal(t, "Ana", engine.Pending().Draft.FullName)
	assert.Equal(t, []string{"+34612222222", "+34612111111"}, engine.Pending().Draft.Phones)

	update(t, m, key(tea.KeyTab))
	assert.Equal(t, "a", engine.Pending().MasterID)
	assert.Equal(t, "Ana Lopez", engine.Pending().Draft.FullName)
}

func TestReviewRemoveEntry(t *testing.T) {
	engine, _ := openSession(t)

	m, _ := update(t, newReviewModel(engine), runes("j"), runes("x"))
	assert.Equal(t, []string{"+34612111111"}, engine.Pending().Draft.Phones)
	assert.Equal(t, 1, m.(reviewModel).cursor)

	// Removing the last row moves the cursor up.
	m, _ = update(t, m, runes("x"))
	assert.Empty(t, engine.Pending().Draft.Emails)
	assert.Equal(t, 0, m.(reviewModel).cursor)
}

func TestReviewRemoveWithEmptyListsIsNoop(t *testing.T) {
	coll := mapCollection{
		"a": {ID: "a", FullName: "Ana", Version: models.Version30},
		"b": {ID: "b", FullName: "Ana", Version: models.Version30},
	}
	engine := merge.NewEngine(coll)
	_, err := engine.Begin(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	m, _ := update(t, newReviewModel(engine), runes("x"))
	assert.Contains(t, m.View(), "no phones or emails")
}

func TestReviewAddPhone(t *testing.T) {
	engine, _ := openSession(t)

	m, _ := update(t, newReviewModel(engine), runes("a"))
	assert.Equal(t, models.ListPhones, m.(reviewModel).adding)

	m, _ = update(t, m, runes("+34699000000"), key(tea.KeyEnter))
	assert.Empty(t, m.(reviewModel).adding)
	assert.Contains(t, engine.Pending().Draft.Phones, "+34699000000")
}

func TestReviewAddEmailCancelled(t *testing.T) {
	engine, _ := openSession(t)

	m, _ := update(t, newReviewModel(engine), runes("e"), runes("c"), key(tea.KeyEsc))
	assert.Empty(t, m.(reviewModel).adding)
	assert.Equal(t, []string{"ana@example.com"}, engine.Pending().Draft.Emails)
	assert.Equal(t, merge.CancelAll, m.(reviewModel).decision, "keys typed into the input are not commands")
}

func TestReviewBlankEntryIgnored(t *testing.T) {
	engine, _ := openSession(t)

	update(t, newReviewModel(engine), runes("a"), runes("   "), key(tea.KeyEnter))
	assert.Len(t, engine.Pending().Draft.Phones, 2)
}

func TestReviewDecisions(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
		want merge.MergeDecision
	}{
		{"commit", runes("c"), merge.Commit},
		{"enter commits", key(tea.KeyEnter), merge.Commit},
		{"skip", runes("s"), merge.Abort},
		{"stop", runes("q"), merge.CancelAll},
		{"escape stops", key(tea.KeyEsc), merge.CancelAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _ := openSession(t)
			m, cmd := update(t, newReviewModel(engine), tt.msg)
			assert.Equal(t, tt.want, m.(reviewModel).decision)
			require.NotNil(t, cmd)
			assert.IsType(t, tea.QuitMsg{}, cmd())
		})
	}
}

func TestPresenterPreviewResolvesNames(t *testing.T) {
	coll := mapCollection{"a": {ID: "a", FullName: "Ana Lopez"}}
	var shown previewModel

	p := &Presenter{
		contacts: coll,
		run: func(_ context.Context, m tea.Model) (tea.Model, error) {
			shown = m.(previewModel)
			shown.decision = merge.Proceed
			return shown, nil
		},
	}

	decision, err := p.PresentDuplicatePreview(context.Background(), []models.DuplicateGroup{{"a", "gone"}})
	require.NoError(t, err)
	assert.Equal(t, merge.Proceed, decision)
	assert.Equal(t, [][]string{{"Ana Lopez", "(removed)"}}, shown.groups)
}

func TestPresenterPendingMerge(t *testing.T) {
	engine, _ := openSession(t)

	p := &Presenter{
		contacts: mapCollection{},
		run: func(_ context.Context, m tea.Model) (tea.Model, error) {
			final, _ := update(t, m, runes("s"))
			return final, nil
		},
	}

	decision, err := p.PresentPendingMerge(context.Background(), engine)
	require.NoError(t, err)
	assert.Equal(t, merge.Abort, decision)
}

func TestPresenterRunFailure(t *testing.T) {
	engine, _ := openSession(t)
	boom := errors.New("no tty")

	p := &Presenter{
		contacts: mapCollection{},
		run: func(context.Context, tea.Model) (tea.Model, error) {
			return nil, boom
		},
	}

	decision, err := p.PresentPendingMerge(context.Background(), engine)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, merge.CancelAll, decision)

	_, err = p.PresentDuplicatePreview(context.Background(), nil)
	assert.ErrorIs(t, err, boom)
}
