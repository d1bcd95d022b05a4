// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Interactive presenter for duplicate previews and merge reviews
package tui

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/vcfmerge/merge"
	"github.com/harperreed/vcfmerge/models"
)

// ContactSource resolves contact ids for display.
type ContactSource interface {
	Get(ctx context.Context, id string) (*models.Contact, error)
}

// runFunc runs a model to completion and returns its final state.
type runFunc func(ctx context.Context, m tea.Model) (tea.Model, error)

// Presenter asks a person at the terminal to confirm and review merges.
type Presenter struct {
	contacts ContactSource
	run      runFunc
}

// NewPresenter creates a presenter reading keys from in and drawing to out.
// Nil streams default to the process's stdin and stdout.
func NewPresenter(contacts ContactSource, in io.Reader, out io.Writer) *Presenter {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Presenter{
		contacts: contacts,
		run: func(ctx context.Context, m tea.Model) (tea.Model, error) {
			return tea.NewProgram(m,
				tea.WithContext(ctx),
				tea.WithInput(in),
				tea.WithOutput(out),
				tea.WithAltScreen(),
			).Run()
		},
	}
}

// PresentDuplicatePreview shows every group and asks whether to start merging.
func (p *Presenter) PresentDuplicatePreview(ctx context.Context, groups []models.DuplicateGroup) (merge.PreviewDecision, error) {
	views := make([][]string, len(groups))
	for i, group := range groups {
		for _, id := range group {
			name, err := p.nameOf(ctx, id)
			if err != nil {
				return merge.Cancel, err
			}
			views[i] = append(views[i], name)
		}
	}

	final, err := p.run(ctx, newPreviewModel(views))
	if err != nil {
		return merge.Cancel, fmt.Errorf("preview failed: %w", err)
	}
	return final.(previewModel).decision, nil
}

// PresentPendingMerge lets the person edit the open merge and decide on it.
func (p *Presenter) PresentPendingMerge(ctx context.Context, session merge.Session) (merge.MergeDecision, error) {
	final, err := p.run(ctx, newReviewModel(session))
	if err != nil {
		return merge.CancelAll, fmt.Errorf("merge review failed: %w", err)
	}
	return final.(reviewModel).decision, nil
}

func (p *Presenter) nameOf(ctx context.Context, id string) (string, error) {
	c, err := p.contacts.Get(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to load contact %s: %w", id, err)
	}
	if c == nil {
		return "(removed)", nil
	}
	return c.FullName, nil
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Width(14)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	masterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)
)
