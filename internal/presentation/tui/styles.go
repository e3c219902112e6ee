package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/aretw0/bustub-shell/pkg/domain"
)

// Transcript colours per line kind.
var lineColors = map[domain.LineKind]string{
	domain.LineInput:  "#ffffff",
	domain.LineError:  "#f87171",
	domain.LineSystem: "#22d3ee",
	domain.LineOutput: "#4ade80",
}

const promptColor = "#facc15"

// NewLineStyler colours transcript lines for the line-mode runner.
func NewLineStyler(p termenv.Profile) func(domain.LineKind, string) string {
	return func(kind domain.LineKind, text string) string {
		c, ok := lineColors[kind]
		if !ok {
			return text
		}
		return p.String(text).Foreground(p.Color(c)).String()
	}
}

// Styles holds the lipgloss styles of the interactive model.
type Styles struct {
	Lines   map[domain.LineKind]lipgloss.Style
	Prompt  lipgloss.Style
	Header  lipgloss.Style
	Status  map[domain.Status]lipgloss.Style
	Welcome lipgloss.Style
	Hint    lipgloss.Style
}

// DefaultStyles returns the terminal palette used by the model.
func DefaultStyles() Styles {
	s := Styles{
		Lines:   make(map[domain.LineKind]lipgloss.Style, len(lineColors)),
		Prompt:  lipgloss.NewStyle().Foreground(lipgloss.Color(promptColor)),
		Header:  lipgloss.NewStyle().Foreground(lipgloss.Color("#d1d5db")).Bold(true),
		Welcome: lipgloss.NewStyle().Foreground(lipgloss.Color(lineColors[domain.LineSystem])).Bold(true),
		Hint:    lipgloss.NewStyle().Foreground(lipgloss.Color("#9ca3af")),
		Status: map[domain.Status]lipgloss.Style{
			domain.StatusReady:    lipgloss.NewStyle().Foreground(lipgloss.Color(lineColors[domain.LineOutput])),
			domain.StatusLoading:  lipgloss.NewStyle().Foreground(lipgloss.Color(promptColor)),
			domain.StatusFallback: lipgloss.NewStyle().Foreground(lipgloss.Color(lineColors[domain.LineError])),
			domain.StatusUnloaded: lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280")),
		},
	}
	for kind, c := range lineColors {
		s.Lines[kind] = lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}
	return s
}

// PlainStyles returns a palette without colours, for --no-color.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	s := Styles{
		Lines:   make(map[domain.LineKind]lipgloss.Style, len(lineColors)),
		Prompt:  plain,
		Header:  plain.Bold(true),
		Welcome: plain,
		Hint:    plain,
		Status:  make(map[domain.Status]lipgloss.Style, 4),
	}
	for kind := range lineColors {
		s.Lines[kind] = plain
	}
	for _, st := range []domain.Status{domain.StatusUnloaded, domain.StatusLoading, domain.StatusReady, domain.StatusFallback} {
		s.Status[st] = plain
	}
	return s
}

// Line renders one transcript line.
func (s Styles) Line(kind domain.LineKind, text string) string {
	if st, ok := s.Lines[kind]; ok {
		return st.Render(text)
	}
	return text
}
