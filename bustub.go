package bustub

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/bustub-shell/internal/adapters/wasm"
	"github.com/aretw0/bustub-shell/internal/config"
	"github.com/aretw0/bustub-shell/internal/logging"
	"github.com/aretw0/bustub-shell/pkg/bridge"
	"github.com/aretw0/bustub-shell/pkg/domain"
	"github.com/aretw0/bustub-shell/pkg/observability"
	"github.com/aretw0/bustub-shell/pkg/ports"
	"github.com/aretw0/bustub-shell/pkg/session"
)

// Shell is the high-level entry point of the library. It wires the engine
// bridge and a session over the configured runtime.
type Shell struct {
	cfg      config.Config
	runtime  ports.Runtime
	registry prometheus.Registerer
	logger   *slog.Logger

	bridge   *bridge.Bridge
	session  *session.Session
	sanitize session.Sanitizer
	metrics  *observability.Metrics
}

// Option defines a functional option for configuring the Shell.
type Option func(*Shell)

// WithConfig replaces the built-in configuration.
func WithConfig(cfg config.Config) Option {
	return func(s *Shell) {
		s.cfg = cfg
	}
}

// WithRuntime injects the engine runtime, bypassing artifact resolution.
func WithRuntime(rt ports.Runtime) Option {
	return func(s *Shell) {
		s.runtime = rt
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Shell) {
		s.logger = logger
	}
}

// WithMetricsRegistry registers the bridge collectors on reg.
func WithMetricsRegistry(reg prometheus.Registerer) Option {
	return func(s *Shell) {
		s.registry = reg
	}
}

// New builds a Shell. The engine is not loaded until Initialize is called on
// the session or the bridge.
func New(opts ...Option) (*Shell, error) {
	s := &Shell{
		cfg:    config.Default(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if s.runtime == nil {
		src, err := wasm.ResolveSource(s.cfg.Engine.Artifact)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve engine artifact: %w", err)
		}
		s.runtime = wasm.NewRuntime(src,
			wasm.WithExports(s.cfg.Engine.Exports),
			wasm.WithLogger(s.logger),
			wasm.WithStdio(logging.NewWriter(s.logger, "engine stdout"), logging.NewWriter(s.logger, "engine stderr")),
		)
	}

	if s.registry != nil {
		s.metrics = observability.NewMetrics(s.registry)
	}

	s.bridge = bridge.New(s.runtime,
		bridge.WithLogger(s.logger),
		bridge.WithBufferCapacity(s.cfg.Engine.BufferCapacity),
		bridge.WithLoadTimeout(s.cfg.Engine.LoadTimeout),
		bridge.WithMetrics(s.metrics),
	)

	// The bridge cuts commands at the buffer capacity; refuse them first.
	s.sanitize = session.NewSanitizer(s.cfg.Engine.BufferCapacity - 1)
	s.session = session.New(s.bridge,
		session.WithPrompt(s.cfg.Shell.Prompt),
		session.WithHistorySize(s.cfg.Shell.HistorySize),
		session.WithLogger(s.logger),
		session.WithSanitizer(s.sanitize),
		session.WithMaxStatementSize(s.cfg.Engine.BufferCapacity-1),
	)

	return s, nil
}

// Session returns the interactive session.
func (s *Shell) Session() *session.Session {
	return s.session
}

// Bridge returns the engine bridge.
func (s *Shell) Bridge() *bridge.Bridge {
	return s.bridge
}

// Sanitizer returns the input check the session applies, sized to the buffer
// capacity, for front-ends that talk to the bridge directly.
func (s *Shell) Sanitizer() session.Sanitizer {
	return s.sanitize
}

// Config returns the effective configuration.
func (s *Shell) Config() config.Config {
	return s.cfg
}

// Status returns the lifecycle state of the engine.
func (s *Shell) Status() domain.Status {
	return s.bridge.Status()
}

// Close releases the engine module.
func (s *Shell) Close(ctx context.Context) error {
	return s.bridge.Close(ctx)
}
