package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/aretw0/bustub-shell/internal/logging"
	"github.com/aretw0/bustub-shell/pkg/arena"
	"github.com/aretw0/bustub-shell/pkg/domain"
	"github.com/aretw0/bustub-shell/pkg/observability"
	"github.com/aretw0/bustub-shell/pkg/ports"
)

// executor is the active call path: notReady, a binding or the fallback.
type executor interface {
	Execute(ctx context.Context, command string) domain.EngineResult
	Close(ctx context.Context) error
}

// Bridge is the engine gateway. It is safe for concurrent use.
type Bridge struct {
	rt          ports.Runtime
	logger      *slog.Logger
	capacity    int
	loadTimeout time.Duration
	metrics     *observability.Metrics

	group singleflight.Group

	mu     sync.RWMutex
	status domain.Status
	cause  error
	impl   executor

	// callMu serializes calls into the module.
	callMu sync.Mutex
}

var _ ports.Engine = (*Bridge)(nil)

// New creates an unloaded Bridge over the given runtime.
func New(rt ports.Runtime, opts ...Option) *Bridge {
	b := &Bridge{
		rt:          rt,
		logger:      logging.NewNop(),
		capacity:    arena.DefaultCapacity,
		loadTimeout: DefaultLoadTimeout,
		status:      domain.StatusUnloaded,
		impl:        notReady{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Status returns the current lifecycle state.
func (b *Bridge) Status() domain.Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// Cause returns why the bridge fell back, or nil.
func (b *Bridge) Cause() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cause
}

// Initialize loads the engine once and reports whether it is Ready.
// Concurrent callers share the same load. Cancelling ctx does not abort a
// load other callers may be waiting on.
func (b *Bridge) Initialize(ctx context.Context) bool {
	if st := b.Status(); st.Terminal() {
		return st == domain.StatusReady
	}
	v, _, _ := b.group.Do("load", func() (any, error) {
		return b.load(context.WithoutCancel(ctx)), nil
	})
	return v.(bool)
}

type loadResult struct {
	mod ports.Module
	err error
}

func (b *Bridge) load(parent context.Context) bool {
	b.mu.Lock()
	if b.status.Terminal() {
		ready := b.status == domain.StatusReady
		b.mu.Unlock()
		return ready
	}
	b.status = domain.StatusLoading
	b.mu.Unlock()

	b.logger.Info("loading engine", "timeout", b.loadTimeout)
	start := time.Now()

	ctx, cancel := context.WithTimeout(parent, b.loadTimeout)
	defer cancel()

	done := make(chan loadResult, 1)
	go func() {
		done <- b.instantiate(ctx)
	}()

	select {
	case res := <-done:
		if res.err != nil {
			if errors.Is(res.err, context.DeadlineExceeded) {
				res.err = fmt.Errorf("%w after %s", domain.ErrLoadTimeout, b.loadTimeout)
				return b.fallback(res.err, observability.OutcomeTimeout, start)
			}
			return b.fallback(res.err, observability.OutcomeFallback, start)
		}
		return b.ready(res.mod, start)
	case <-ctx.Done():
		// A module that shows up after the deadline is discarded.
		go func() {
			if res := <-done; res.mod != nil {
				_ = res.mod.Close(context.Background())
			}
		}()
		return b.fallback(fmt.Errorf("%w after %s", domain.ErrLoadTimeout, b.loadTimeout), observability.OutcomeTimeout, start)
	}
}

// instantiate fetches the module and runs its init export.
func (b *Bridge) instantiate(ctx context.Context) loadResult {
	mod, err := b.rt.Load(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return loadResult{err: err}
		}
		return loadResult{err: fmt.Errorf("%w: %w", domain.ErrLoadFailure, err)}
	}

	code, err := mod.Init(ctx)
	switch {
	case err != nil:
		err = fmt.Errorf("%w: init: %w", domain.ErrLoadFailure, err)
	case code != 0:
		err = fmt.Errorf("%w: init returned %d", domain.ErrLoadFailure, code)
	}
	if err != nil {
		_ = mod.Close(context.Background())
		return loadResult{err: err}
	}
	return loadResult{mod: mod}
}

func (b *Bridge) ready(mod ports.Module, start time.Time) bool {
	a := arena.New(mod, b.capacity, arena.WithUsageHook(b.metrics.SetBuffersInUse))

	b.mu.Lock()
	b.impl = newBinding(mod, a)
	b.status = domain.StatusReady
	b.cause = nil
	b.mu.Unlock()

	elapsed := time.Since(start)
	b.metrics.ObserveLoad(observability.OutcomeReady, elapsed)
	b.logger.Info("engine ready", "duration", elapsed)
	return true
}

func (b *Bridge) fallback(cause error, outcome string, start time.Time) bool {
	b.mu.Lock()
	b.impl = fallbackExecutor{Fallback{Cause: cause}}
	b.status = domain.StatusFallback
	b.cause = cause
	b.mu.Unlock()

	elapsed := time.Since(start)
	b.metrics.ObserveLoad(outcome, elapsed)
	b.logger.Warn("engine unavailable, using fallback", "error", cause, "duration", elapsed)
	return false
}

// Execute runs one command. Engine trouble is reported in the result.
func (b *Bridge) Execute(ctx context.Context, command string) (res domain.EngineResult) {
	if strings.TrimSpace(command) == "" {
		return domain.FailedResult(domain.ErrEmptyCommand)
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("engine call panicked", "panic", r)
			res = domain.FailedResult(fmt.Errorf("%w: %v", domain.ErrBridgeInternal, r))
		}
		res.Duration = time.Since(start)

		code := "none"
		if res.HasReturnCode {
			code = strconv.Itoa(res.ReturnCode)
		}
		b.metrics.ObserveExecute(code, res.Duration)
		if !res.Success {
			b.logger.Debug("command failed", "code", code, "error", res.Error)
		}
	}()

	b.callMu.Lock()
	defer b.callMu.Unlock()

	b.mu.RLock()
	impl := b.impl
	b.mu.RUnlock()

	return impl.Execute(ctx, command)
}

// Close releases the engine. The bridge returns to Unloaded.
func (b *Bridge) Close(ctx context.Context) error {
	b.callMu.Lock()
	defer b.callMu.Unlock()

	b.mu.Lock()
	impl := b.impl
	b.impl = notReady{}
	b.status = domain.StatusUnloaded
	b.cause = nil
	b.mu.Unlock()

	return impl.Close(ctx)
}
