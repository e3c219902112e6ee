package bridge

import (
	"context"

	"github.com/aretw0/bustub-shell/pkg/domain"
	"github.com/aretw0/bustub-shell/pkg/ports"
)

// Fallback is the engine used after a failed load. It answers every command
// with an "engine unavailable" failure and never loads anything.
type Fallback struct {
	Cause error
}

var _ ports.Engine = Fallback{}

// Initialize always reports failure.
func (Fallback) Initialize(context.Context) bool { return false }

// Execute returns a failed result without a return code.
func (Fallback) Execute(context.Context, string) domain.EngineResult {
	return domain.FailedResult(domain.ErrEngineUnavailable)
}

// Status is always StatusFallback.
func (Fallback) Status() domain.Status { return domain.StatusFallback }

// notReady answers commands sent before the engine finished loading.
type notReady struct{}

func (notReady) Execute(context.Context, string) domain.EngineResult {
	return domain.FailedResult(domain.ErrEngineNotReady)
}

func (notReady) Close(context.Context) error { return nil }

type fallbackExecutor struct{ Fallback }

func (fallbackExecutor) Close(context.Context) error { return nil }
