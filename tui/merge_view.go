// ABOUTME: Merge review view for TUI
// ABOUTME: Shows the draft of an open merge and lets the user switch master, edit lists, and decide
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/vcfmerge/merge"
	"github.com/harperreed/vcfmerge/models"
)

// entry is one editable row of a draft list.
type entry struct {
	field models.ListField
	index int
	value string
}

type reviewModel struct {
	session merge.Session

	// order is the member order at the start of the review; tab walks it.
	order     []string
	masterIdx int

	cursor   int
	adding   models.ListField
	input    textinput.Model
	decision merge.MergeDecision
	err      error
}

func newReviewModel(session merge.Session) reviewModel {
	input := textinput.New()
	input.CharLimit = 256
	input.Width = 40

	return reviewModel{
		session:  session,
		order:    append([]string(nil), session.Pending().MemberIDs...),
		input:    input,
		decision: merge.CancelAll,
	}
}

func (m reviewModel) Init() tea.Cmd {
	return nil
}

func (m reviewModel) entries() []entry {
	draft := &m.session.Pending().Draft
	var out []entry
	for _, field := range []models.ListField{models.ListPhones, models.ListEmails, models.ListIMPP} {
		for i, v := range *draft.List(field) {
			out = append(out, entry{field: field, index: i, value: v})
		}
	}
	return out
}

func (m reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if m.adding != "" {
		return m.handleAddKeys(key)
	}

	switch key.String() {
	case "c", "enter":
		m.decision = merge.Commit
		return m, tea.Quit
	case "s":
		m.decision = merge.Abort
		return m, tea.Quit
	case "q", "esc", "ctrl+c":
		m.decision = merge.CancelAll
		return m, tea.Quit
	case "tab":
		m.masterIdx = (m.masterIdx + 1) % len(m.order)
		m.err = m.session.SetMaster(m.order[m.masterIdx])
		m.cursor = 0
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.entries())-1 {
			m.cursor++
		}
	case "x", "delete":
		entries := m.entries()
		if m.cursor < len(entries) {
			e := entries[m.cursor]
			m.session.RemoveListEntry(e.field, e.index)
			if m.cursor >= len(entries)-1 && m.cursor > 0 {
				m.cursor--
			}
		}
	case "a":
		return m.startAdding(models.ListPhones, "phone")
	case "e":
		return m.startAdding(models.ListEmails, "email")
	}
	return m, nil
}

func (m reviewModel) startAdding(field models.ListField, placeholder string) (tea.Model, tea.Cmd) {
	m.adding = field
	m.input.Reset()
	m.input.Placeholder = placeholder
	return m, m.input.Focus()
}

func (m reviewModel) handleAddKeys(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "enter":
		if v := strings.TrimSpace(m.input.Value()); v != "" {
			m.session.AddListEntry(m.adding, v)
		}
		m.adding = ""
		m.input.Blur()
		return m, nil
	case "esc":
		m.adding = ""
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(key)
	return m, cmd
}

func (m reviewModel) View() string {
	p := m.session.Pending()
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf("MERGE %d CONTACTS", len(p.MemberIDs))))
	s.WriteString("\n")

	for i, src := range p.Sources {
		marker := "  "
		name := src.FullName
		if i == 0 {
			marker = "* "
			name = masterStyle.Render(name)
		}
		s.WriteString(marker + name + "\n")
	}
	s.WriteString("\n")

	draft := p.Draft
	s.WriteString(labelStyle.Render("Name") + draft.FullName + "\n")
	if draft.Organization != "" {
		s.WriteString(labelStyle.Render("Organization") + draft.Organization + "\n")
	}
	for _, f := range models.OptionalFields {
		if v := *f.Ref(&draft); v != nil && *v != "" {
			s.WriteString(labelStyle.Render(fieldTitle(string(f.Name))) + oneLine(*v) + "\n")
		}
	}
	s.WriteString("\n")

	entries := m.entries()
	if len(entries) == 0 {
		s.WriteString("  (no phones or emails)\n")
	}
	for i, e := range entries {
		line := fmt.Sprintf("%-7s %s", e.field, e.value)
		if i == m.cursor {
			s.WriteString(selectedStyle.Render("> " + line))
		} else {
			s.WriteString("  " + line)
		}
		s.WriteString("\n")
	}

	if m.adding != "" {
		s.WriteString("\nAdd " + string(m.adding) + ": " + m.input.View() + "\n")
	}
	if m.err != nil {
		s.WriteString("\nError: " + m.err.Error() + "\n")
	}

	help := []string{
		"Tab: Switch master",
		"↑/↓: Select",
		"x: Remove",
		"a/e: Add phone/email",
		"c: Commit",
		"s: Skip",
		"q: Stop",
	}
	s.WriteString(helpStyle.Render(strings.Join(help, " • ")))

	return s.String()
}

func fieldTitle(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func oneLine(s string) string {
	return strings.ReplaceAll(s, "\n", " ⏎ ")
}
