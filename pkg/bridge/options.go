package bridge

import (
	"log/slog"
	"time"

	"github.com/aretw0/bustub-shell/pkg/observability"
)

// DefaultLoadTimeout bounds how long Initialize waits for the engine.
const DefaultLoadTimeout = 15 * time.Second

// Option configures the Bridge.
type Option func(*Bridge)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// WithBufferCapacity sets the size of the prompt and output buffers.
func WithBufferCapacity(n int) Option {
	return func(b *Bridge) {
		b.capacity = n
	}
}

// WithLoadTimeout overrides DefaultLoadTimeout.
func WithLoadTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		if d > 0 {
			b.loadTimeout = d
		}
	}
}

// WithMetrics records load and execute metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(b *Bridge) {
		b.metrics = m
	}
}
