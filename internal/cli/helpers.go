package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/aretw0/bustub-shell"
	"github.com/aretw0/bustub-shell/internal/config"
	"github.com/aretw0/bustub-shell/internal/logging"
	"github.com/aretw0/bustub-shell/pkg/ports"
)

// Options are the flags shared by every command.
type Options struct {
	ConfigPath string
	Artifact   string
	LogLevel   string
	Debug      bool
	NoColor    bool

	Stdin  io.Reader
	Stdout io.Writer

	// Runtime replaces the wasm runtime; used by tests.
	Runtime ports.Runtime
}

func (o Options) stdin() io.Reader {
	if o.Stdin == nil {
		return os.Stdin
	}
	return o.Stdin
}

func (o Options) stdout() io.Writer {
	if o.Stdout == nil {
		return os.Stdout
	}
	return o.Stdout
}

// loadConfig reads the config file and applies the command line overrides.
func (o Options) loadConfig() (config.Config, error) {
	path := o.ConfigPath
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if o.Artifact != "" {
		cfg.Engine.Artifact = o.Artifact
	}
	return cfg, nil
}

// openShell builds the library facade from the options.
func (o Options) openShell(logger *slog.Logger, extra ...bustub.Option) (*bustub.Shell, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	opts := []bustub.Option{
		bustub.WithConfig(cfg),
		bustub.WithLogger(logger),
	}
	if o.Runtime != nil {
		opts = append(opts, bustub.WithRuntime(o.Runtime))
	}
	return bustub.New(append(opts, extra...)...)
}

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sc.sigCh:
			sc.mu.Lock()
			sc.sigVal = sig
			sc.mu.Unlock()
			sc.Cancel()
		case <-sc.Context.Done():
		}
		sc.stop.Do(func() {
			signal.Stop(sc.sigCh)
		})
	}()

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// createLogger configures the application logger.
// Logs go to Stderr to keep Stdout for the transcript.
func createLogger(o Options) (*slog.Logger, error) {
	if o.Debug {
		return logging.New(slog.LevelDebug), nil
	}
	if o.LogLevel == "" {
		return logging.NewNop(), nil
	}
	level, err := logging.ParseLevel(o.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(level), nil
}

// isTerminal reports whether v is an interactive terminal.
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// colorProfile picks the colour support of w.
func colorProfile(o Options, w io.Writer) termenv.Profile {
	if o.NoColor || !isTerminal(w) {
		return termenv.Ascii
	}
	return termenv.NewOutput(w).EnvColorProfile()
}

// handleExecutionError maps interruptions to a clean exit.
func handleExecutionError(err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
