package cli

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aretw0/bustub-shell/internal/presentation/tui"
	"github.com/aretw0/bustub-shell/pkg/runner"
)

// ShellOptions configure the interactive shell.
type ShellOptions struct {
	Options
	// Plain forces the line-mode REPL even on a terminal.
	Plain bool
	// Quiet suppresses the banner.
	Quiet bool
}

// RunShell starts an interactive session. On a terminal it runs the full
// screen model; otherwise it reads statements line by line.
func RunShell(opts ShellOptions) error {
	logger, err := createLogger(opts.Options)
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

	in, out := opts.stdin(), opts.stdout()

	if !opts.Plain && isTerminal(in) && isTerminal(out) {
		modelOpts := []tui.ModelOption{
			tui.WithAutoInitialize(true),
			tui.WithModelRenderer(tui.NewRenderer()),
			tui.WithModelLogger(logger),
		}
		if opts.NoColor {
			modelOpts = append(modelOpts, tui.WithModelStyles(tui.PlainStyles()))
		}
		m := tui.NewModel(sigCtx, shell.Session(), modelOpts...)
		p := tea.NewProgram(m,
			tea.WithAltScreen(),
			tea.WithContext(sigCtx),
			tea.WithInput(in),
			tea.WithOutput(out),
		)
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return err
		}
		return nil
	}

	profile := colorProfile(opts.Options, out)
	if !opts.Quiet {
		tui.PrintBanner(out, profile)
	}

	shell.Session().Initialize(sigCtx)
	logger.Info("engine status", "status", string(shell.Status()))

	r := runner.NewRunner(
		runner.WithInput(in),
		runner.WithOutput(out),
		runner.WithRenderer(tui.NewRenderer()),
		runner.WithStyler(tui.NewLineStyler(profile)),
		runner.WithLogger(logger),
	)
	return handleExecutionError(r.Run(sigCtx, shell.Session()))
}
