package domain

// Status is the lifecycle state of the engine bridge.
type Status string

const (
	StatusUnloaded Status = "unloaded" // Initialize has not been called yet
	StatusLoading  Status = "loading"  // A load attempt is in flight
	StatusReady    Status = "ready"    // Engine initialized, commands are forwarded
	StatusFallback Status = "fallback" // Load failed, commands get "engine unavailable"
)

// Terminal reports whether no further load attempt will happen.
func (s Status) Terminal() bool {
	return s == StatusReady || s == StatusFallback
}

// Label is the short human readable form shown in status bars.
func (s Status) Label() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusLoading:
		return "Loading"
	case StatusFallback:
		return "Engine unavailable"
	default:
		return "Not initialized"
	}
}
