package runner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/bustub-shell/internal/logging"
	"github.com/aretw0/bustub-shell/pkg/domain"
	"github.com/aretw0/bustub-shell/pkg/session"
)

// ContentRenderer is a function that transforms the content before outputting it.
// It receives structured engine output and returns terminal-ready text.
type ContentRenderer func(string) (string, error)

// LineStyler decorates a transcript line for display.
type LineStyler func(kind domain.LineKind, text string) string

// Runner is the line-mode REPL.
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Renderer ContentRenderer
	Styler   LineStyler
	Echo     bool
	Logger   *slog.Logger
}

// NewRunner creates a Runner reading stdin and writing stdout by default.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Input:  os.Stdin,
		Output: os.Stdout,
		Logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reads lines until end of input, an exit word or cancellation, submitting
// each one to s and printing what it added to the transcript. Transcript lines
// present before Run starts are printed first.
func (r *Runner) Run(ctx context.Context, s *session.Session) error {
	h := NewTextHandler(r.Input, r.Output,
		WithTextHandlerRenderer(r.Renderer),
		WithTextHandlerStyler(r.Styler),
		WithTextHandlerEcho(r.Echo),
	)

	printed := 0
	flush := func() {
		lines := s.Transcript()
		if len(lines) < printed {
			// Cleared since the last flush.
			printed = 0
		}
		h.Print(lines[printed:])
		printed = len(lines)
	}
	flush()

	for {
		prompt := s.Prompt()
		if s.Mode() == session.Accumulating {
			prompt = session.ContinuationMarker
		}

		line, err := h.Input(ctx, prompt)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if s.Mode() == session.Idle && session.IsExitCommand(line) {
			return nil
		}

		outcome, err := s.Submit(ctx, line)
		if err != nil {
			r.Logger.Warn("submit failed", "error", err)
			continue
		}
		r.Logger.Debug("line submitted", "outcome", outcome.String())
		flush()
	}
}
