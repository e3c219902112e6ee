package tui

import (
	"context"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aretw0/bustub-shell/internal/logging"
	"github.com/aretw0/bustub-shell/pkg/session"
)

const (
	headerHeight = 2
	footerHeight = 2
)

// submittedMsg carries the result of a Submit issued off the update loop.
type submittedMsg struct {
	outcome session.Outcome
	err     error
}

// initializedMsg reports the end of the engine load.
type initializedMsg struct {
	ok bool
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithModelRenderer sets the renderer used for structured output.
func WithModelRenderer(render func(string) (string, error)) ModelOption {
	return func(m *Model) {
		m.render = render
	}
}

// WithModelStyles overrides the default palette.
func WithModelStyles(s Styles) ModelOption {
	return func(m *Model) {
		m.styles = s
	}
}

// WithAutoInitialize loads the engine as soon as the program starts.
func WithAutoInitialize(enabled bool) ModelOption {
	return func(m *Model) {
		m.autoInit = enabled
	}
}

// WithModelLogger sets the logger.
func WithModelLogger(logger *slog.Logger) ModelOption {
	return func(m *Model) {
		m.logger = logger
	}
}

// Model is the interactive terminal front-end of a Session. Every keystroke
// that changes shell state goes through the session; the model only renders.
type Model struct {
	ctx      context.Context
	session  *session.Session
	input    textinput.Model
	viewport viewport.Model
	styles   Styles
	render   func(string) (string, error)
	logger   *slog.Logger

	autoInit bool
	working  bool
	quitting bool
	width    int
	height   int
}

// NewModel builds a model driving s. ctx bounds the engine calls it issues.
func NewModel(ctx context.Context, s *session.Session, opts ...ModelOption) *Model {
	ti := textinput.New()
	ti.Placeholder = "SELECT * FROM __mock_table_1;"
	ti.Prompt = ""
	ti.CharLimit = 0
	ti.Focus()

	m := &Model{
		ctx:      ctx,
		session:  s,
		input:    ti,
		viewport: viewport.New(80, 20),
		styles:   DefaultStyles(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.autoInit {
		m.working = true
		return tea.Batch(textinput.Blink, m.initialize())
	}
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-headerHeight-footerHeight, 1)
		m.input.Width = max(msg.Width-len(m.prompt())-1, 1)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit

		case tea.KeyEnter:
			if m.working {
				return m, nil
			}
			line := m.input.Value()
			if m.session.Mode() == session.Idle && session.IsExitCommand(line) {
				m.quitting = true
				return m, tea.Quit
			}
			m.input.SetValue("")
			m.working = true
			return m, m.submit(line)

		case tea.KeyUp:
			m.session.SetInput(m.input.Value())
			m.input.SetValue(m.session.HistoryUp())
			m.input.CursorEnd()
			return m, nil

		case tea.KeyDown:
			m.session.SetInput(m.input.Value())
			m.input.SetValue(m.session.HistoryDown())
			m.input.CursorEnd()
			return m, nil

		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case submittedMsg:
		m.working = false
		if msg.err != nil {
			m.logger.Warn("submit failed", "error", msg.err)
		}
		m.refresh()
		return m, nil

	case initializedMsg:
		m.working = false
		m.refresh()
		return m, nil

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.session.SetInput(m.input.Value())

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	status := m.session.Engine().Status()
	statusStyle, ok := m.styles.Status[status]
	if !ok {
		statusStyle = lipgloss.NewStyle()
	}
	header := m.styles.Header.Render("BusTub Terminal") + "  " + statusStyle.Render(status.Label())

	footer := m.styles.Prompt.Render(m.prompt()) + m.input.View()

	return header + "\n\n" + m.viewport.View() + "\n" + footer
}

func (m *Model) submit(line string) tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		outcome, err := s.Submit(ctx, line)
		return submittedMsg{outcome: outcome, err: err}
	}
}

func (m *Model) initialize() tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		return initializedMsg{ok: s.Initialize(ctx)}
	}
}

func (m *Model) prompt() string {
	if m.working || m.session.Mode() == session.Accumulating {
		return session.ContinuationMarker
	}
	return m.session.Prompt()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.content())
	m.viewport.GotoBottom()
}

func (m *Model) content() string {
	lines := m.session.Transcript()
	if len(lines) == 0 {
		welcome := WelcomeLines()
		out := []string{m.styles.Welcome.Render(welcome[0])}
		for _, l := range welcome[1:] {
			out = append(out, m.styles.Hint.Render(l))
		}
		return strings.Join(out, "\n")
	}

	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.IsStructured && m.render != nil {
			if rendered, err := m.render(l.Text); err == nil {
				out = append(out, strings.TrimRight(rendered, "\n"))
				continue
			}
		}
		out = append(out, m.styles.Line(l.Kind, l.Text))
	}
	return strings.Join(out, "\n")
}

// Transcript returns the rendered transcript, for tests and snapshots.
func (m *Model) Transcript() string {
	return m.content()
}
