package runner

import (
	"io"
	"log/slog"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithInput sets the source of input lines.
func WithInput(r io.Reader) Option {
	return func(rn *Runner) {
		rn.Input = r
	}
}

// WithOutput sets where prompts and transcript lines are written.
func WithOutput(w io.Writer) Option {
	return func(rn *Runner) {
		rn.Output = w
	}
}

// WithRenderer configures the renderer for structured output.
func WithRenderer(renderer ContentRenderer) Option {
	return func(rn *Runner) {
		rn.Renderer = renderer
	}
}

// WithStyler configures per-kind styling of transcript lines.
func WithStyler(styler LineStyler) Option {
	return func(rn *Runner) {
		rn.Styler = styler
	}
}

// WithEcho prints input echoes from the transcript. Useful when the input is
// not a terminal and typed lines are not visible otherwise.
func WithEcho(echo bool) Option {
	return func(rn *Runner) {
		rn.Echo = echo
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(rn *Runner) {
		rn.Logger = logger
	}
}
