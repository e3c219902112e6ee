package ports

import (
	"context"

	"github.com/aretw0/bustub-shell/pkg/domain"
)

// Engine is the string-in/string-out surface of the execution engine.
// Implementations never return Go errors for engine trouble; failures are
// reported through the EngineResult and the Status.
type Engine interface {
	// Initialize loads the engine if needed and reports whether it is ready.
	Initialize(ctx context.Context) bool

	// Execute runs one statement and returns the decoded result.
	Execute(ctx context.Context, command string) domain.EngineResult

	// Status returns the current lifecycle state.
	Status() domain.Status
}

// CauseReporter is implemented by engines that remember why they are not ready.
type CauseReporter interface {
	Cause() error
}
