package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/bustub-shell/internal/presentation/tui"
	"github.com/aretw0/bustub-shell/pkg/domain"
	"github.com/aretw0/bustub-shell/pkg/ports"
	"github.com/aretw0/bustub-shell/pkg/runner"
	"github.com/aretw0/bustub-shell/pkg/session"
)

var (
	// ErrStatementFailed is returned when the engine reported an error for any statement.
	ErrStatementFailed = errors.New("statement failed")
	// ErrIncompleteStatement is returned when input ends inside a statement.
	ErrIncompleteStatement = errors.New("incomplete statement: missing ';'")
)

// RunExec loads the engine, runs each line through a session and prints the
// resulting transcript without the initialization notice.
func RunExec(opts Options, lines []string) error {
	logger, err := createLogger(opts)
	if err != nil {
		return err
	}

	shell, err := opts.openShell(logger)
	if err != nil {
		return err
	}
	defer shell.Close(context.Background())

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	out := opts.stdout()
	profile := colorProfile(opts, out)
	h := runner.NewTextHandler(nil, out,
		runner.WithTextHandlerRenderer(tui.NewRenderer()),
		runner.WithTextHandlerStyler(tui.NewLineStyler(profile)),
		runner.WithTextHandlerEcho(true),
	)

	s := shell.Session()
	if !s.Initialize(sigCtx) {
		h.Print(s.Transcript())
		return fmt.Errorf("engine unavailable: %w", causeOf(shell.Bridge()))
	}
	s.Clear()

	failed := false
	for _, line := range lines {
		if err := sigCtx.Err(); err != nil {
			return handleExecutionError(err)
		}
		if _, err := s.Submit(sigCtx, line); err != nil {
			return err
		}
		added := s.Transcript()
		for _, l := range added {
			if l.Kind == domain.LineError {
				failed = true
			}
		}
		h.Print(added)
		s.Clear()
	}

	if s.Mode() == session.Accumulating {
		return ErrIncompleteStatement
	}
	if failed {
		return ErrStatementFailed
	}
	return nil
}

func causeOf(e ports.Engine) error {
	if r, ok := e.(ports.CauseReporter); ok && r.Cause() != nil {
		return r.Cause()
	}
	return errors.New(e.Status().Label())
}
