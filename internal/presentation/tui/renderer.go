package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders structured engine output for the
// terminal. HTML is converted to markdown and rendered with glamour; if either
// step fails the plain text content is returned instead.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(0),
	)

	return func(content string) (string, error) {
		md, mdErr := HTMLToMarkdown(content)
		if mdErr != nil || err != nil {
			return StripTags(content), nil
		}
		out, renderErr := r.Render(md)
		if renderErr != nil {
			return md, nil
		}
		return out, nil
	}
}
