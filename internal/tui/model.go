// Package tui is the interactive terminal front end of the topic editor.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/hpungsan/kb/internal/editor"
)

type focus int

const (
	focusTitle focus = iota
	focusContent
	focusTags
	focusList
)

const focusCount = 4

// settledMsg carries a finished remote operation back to the Update loop.
type settledMsg struct {
	ticket  editor.Ticket
	outcome editor.Outcome
}

// Model is the bubbletea model. The Session it wraps is only touched from Update.
type Model struct {
	ctx     context.Context
	store   editor.Store
	log     zerolog.Logger
	session *editor.Session

	title   textinput.Model
	content textarea.Model
	tags    textinput.Model

	focus    focus
	cursor   int
	inFlight int
	width    int
}

// New creates a model in Compose mode. Init issues the first load.
func New(ctx context.Context, store editor.Store, log zerolog.Logger) Model {
	title := textinput.New()
	title.Placeholder = "Title"
	title.Prompt = ""
	title.Cursor.SetMode(cursor.CursorStatic)

	content := textarea.New()
	content.Placeholder = "Content"
	content.ShowLineNumbers = false
	content.CharLimit = 0
	content.SetHeight(5)
	content.Cursor.SetMode(cursor.CursorStatic)
	content.Blur()

	tags := textinput.New()
	tags.Placeholder = "comma, separated, tags"
	tags.Prompt = ""
	tags.Cursor.SetMode(cursor.CursorStatic)

	m := Model{
		ctx:      ctx,
		store:    store,
		log:      log,
		session:  editor.NewSession(),
		title:    title,
		content:  content,
		tags:     tags,
		inFlight: 1, // Init's load
	}
	m.resize(80)
	m.title.Focus()
	return m
}

// Run starts the program on the alternate screen and blocks until the user quits.
func Run(ctx context.Context, store editor.Store, log zerolog.Logger) error {
	p := tea.NewProgram(New(ctx, store, log), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Init loads the collection.
func (m Model) Init() tea.Cmd {
	op := editor.Load{}
	return m.startCmd(op, m.session.Begin(op))
}

// Update handles keys and settled operations.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width)
		return m, nil

	case settledMsg:
		m.inFlight--
		m.logOutcome(msg.outcome)
		before := m.session.Form()
		m.session.Settle(msg.ticket, msg.outcome)
		if m.session.Form() != before {
			m.syncInputs()
		}
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "ctrl+s":
		op, t := m.session.Submit()
		m.inFlight++
		return m, m.startCmd(op, t)
	case "tab":
		return m, m.setFocus((m.focus + 1) % focusCount)
	case "shift+tab":
		return m, m.setFocus((m.focus + focusCount - 1) % focusCount)
	case "esc":
		if _, editing := editor.Editing(m.session.Form()); editing {
			m.session.Dispatch(editor.EditAbandoned{})
			m.syncInputs()
		}
		return m, nil
	}

	if m.focus == focusList {
		return m.handleListKey(msg)
	}
	return m.updateFocused(msg)
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	topics := m.session.Topics()

	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(topics)-1 {
			m.cursor++
		}
	case "e", "enter":
		if len(topics) == 0 {
			return m, nil
		}
		m.session.Dispatch(editor.EditRequested{Topic: topics[m.cursor]})
		m.syncInputs()
		return m, m.setFocus(focusTitle)
	case "d", "delete":
		if len(topics) == 0 {
			return m, nil
		}
		op := editor.Delete{ID: topics[m.cursor].ID}
		m.inFlight++
		return m, m.startCmd(op, m.session.Begin(op))
	case "r":
		op := editor.Load{}
		m.inFlight++
		return m, m.startCmd(op, m.session.Begin(op))
	}
	return m, nil
}

// updateFocused forwards msg to the focused field and reports any change as FieldChanged.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusTitle:
		m.title, cmd = m.title.Update(msg)
		m.dispatchIfChanged(editor.FieldTitle, m.title.Value())
	case focusContent:
		m.content, cmd = m.content.Update(msg)
		m.dispatchIfChanged(editor.FieldContent, m.content.Value())
	case focusTags:
		m.tags, cmd = m.tags.Update(msg)
		m.dispatchIfChanged(editor.FieldTags, m.tags.Value())
	}
	return m, cmd
}

func (m Model) dispatchIfChanged(field editor.Field, value string) {
	if m.session.Form().Active().Get(field) != value {
		m.session.Dispatch(editor.FieldChanged{Field: field, Value: value})
	}
}

// startCmd runs op off the Update loop; its outcome comes back as a settledMsg.
func (m Model) startCmd(op editor.Op, t editor.Ticket) tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		return settledMsg{ticket: t, outcome: editor.Run(ctx, store, op)}
	}
}

func (m *Model) setFocus(f focus) tea.Cmd {
	m.title.Blur()
	m.content.Blur()
	m.tags.Blur()
	m.focus = f

	switch f {
	case focusTitle:
		return m.title.Focus()
	case focusContent:
		return m.content.Focus()
	case focusTags:
		return m.tags.Focus()
	}
	return nil
}

// syncInputs copies the active draft into the widgets after a mode transition.
func (m *Model) syncInputs() {
	d := m.session.Form().Active()
	m.title.SetValue(d.Title)
	m.title.CursorEnd()
	m.content.SetValue(d.Content)
	m.tags.SetValue(d.Tags)
	m.tags.CursorEnd()
}

func (m *Model) clampCursor() {
	n := len(m.session.Topics())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) resize(width int) {
	m.width = width
	w := width - 4
	if w < 20 {
		w = 20
	}
	m.title.Width = w
	m.tags.Width = w
	m.content.SetWidth(w)
}

func (m Model) logOutcome(o editor.Outcome) {
	switch {
	case o.Err != nil:
		m.log.Warn().Err(o.Err).Str("op", o.Op.Name()).Msg("topic operation failed")
	case o.RefreshErr != nil:
		m.log.Warn().Err(o.RefreshErr).Str("op", o.Op.Name()).Msg("refresh after operation failed")
	default:
		m.log.Debug().Str("op", o.Op.Name()).Int("topics", len(o.Topics)).Msg("topic operation settled")
	}
}
