// ABOUTME: Duplicate preview dialog for TUI
// ABOUTME: Lists detected groups and asks whether to start reviewing merges
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/vcfmerge/merge"
)

// maxPreviewGroups caps how many groups the dialog lists by name.
const maxPreviewGroups = 8

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("170")).
			Padding(1, 2).
			Width(64)

	confirmButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("170")).
				Padding(0, 2).
				MarginRight(2)

	cancelButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("8")).
				Padding(0, 2)
)

type previewModel struct {
	groups   [][]string
	decision merge.PreviewDecision
	width    int
	height   int
}

func newPreviewModel(groups [][]string) previewModel {
	return previewModel{
		groups:   groups,
		decision: merge.Cancel,
		width:    80,
		height:   24,
	}
}

func (m previewModel) Init() tea.Cmd {
	return nil
}

func (m previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "y", "Y", "enter":
			m.decision = merge.Proceed
			return m, tea.Quit
		case "n", "N", "esc", "q", "ctrl+c":
			m.decision = merge.Cancel
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m previewModel) View() string {
	members := 0
	for _, g := range m.groups {
		members += len(g)
	}

	title := titleStyle.Render("DUPLICATES FOUND")
	message := fmt.Sprintf("%d groups covering %d contacts", len(m.groups), members)

	var list strings.Builder
	for i, g := range m.groups {
		if i == maxPreviewGroups {
			fmt.Fprintf(&list, "  ... and %d more\n", len(m.groups)-maxPreviewGroups)
			break
		}
		fmt.Fprintf(&list, "  %d. %s\n", i+1, strings.Join(g, " / "))
	}

	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		confirmButtonStyle.Render("Review merges (y)"),
		cancelButtonStyle.Render("Cancel (n/esc)"),
	)

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		message,
		"",
		list.String(),
		buttons,
	)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		confirmBoxStyle.Render(content),
	)
}
