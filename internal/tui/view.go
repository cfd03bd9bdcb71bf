package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hpungsan/kb/internal/editor"
)

var (
	headingStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	focusedLabel  = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	buttonStyle   = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("235")).Background(lipgloss.Color("62"))
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	titleStyle    = lipgloss.NewStyle().Bold(true)
	selectedTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	secondaryText = lipgloss.NewStyle().Faint(true)
	helpStyle     = lipgloss.NewStyle().Faint(true)
)

// View renders the form, the notice line, and the topic list.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headingStyle.Render("Topics"))
	b.WriteString("\n\n")

	if id, editing := editor.Editing(m.session.Form()); editing {
		b.WriteString(labelStyle.Render("Editing topic " + id.String() + " (esc to cancel)"))
		b.WriteString("\n")
	}
	b.WriteString(m.label("Title", focusTitle) + "\n" + m.title.View() + "\n")
	b.WriteString(m.label("Content", focusContent) + "\n" + m.content.View() + "\n")
	b.WriteString(m.label("Tags", focusTags) + "\n" + m.tags.View() + "\n\n")
	b.WriteString(buttonStyle.Render(editor.SubmitLabel(m.session.Form())))
	b.WriteString(helpStyle.Render("  ctrl+s"))
	b.WriteString("\n\n")

	if n := m.session.Notice(); n != nil {
		b.WriteString(noticeStyle.Render(n.Text()))
		b.WriteString("\n\n")
	}

	b.WriteString(m.label("Saved topics", focusList) + "\n")
	b.WriteString(m.listView())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("tab focus • ctrl+s save • e edit • d delete • r reload • esc cancel edit • ctrl+c quit"))
	return b.String()
}

func (m Model) label(text string, f focus) string {
	if m.focus == f {
		return focusedLabel.Render(text)
	}
	return labelStyle.Render(text)
}

func (m Model) listView() string {
	rows := m.session.Rows()
	if len(rows) == 0 {
		if !m.session.Loaded() && m.inFlight > 0 {
			return secondaryText.Render("Loading topics...") + "\n"
		}
		return secondaryText.Render("No topics yet.") + "\n"
	}

	var b strings.Builder
	for i, r := range rows {
		selected := m.focus == focusList && i == m.cursor
		marker, style := "  ", titleStyle
		if selected {
			marker, style = "> ", selectedTitle
		}
		b.WriteString(marker + style.Render(r.Title) + "\n")
		b.WriteString("  " + secondaryText.Render(r.Secondary()) + "\n")
	}
	return b.String()
}
