package domain

import "errors"

// ErrLoadTimeout is the cause recorded when the engine does not become ready in time.
var ErrLoadTimeout = errors.New("engine load timed out")

// ErrLoadFailure is the cause recorded when the engine artifact cannot be fetched,
// instantiated or initialized.
var ErrLoadFailure = errors.New("engine load failed")

// ErrEngineNotReady is reported when a command is executed before the engine is ready.
var ErrEngineNotReady = errors.New("engine not initialized")

// ErrEngineUnavailable is reported by the fallback engine after a failed load.
var ErrEngineUnavailable = errors.New("engine unavailable")

// ErrEngineFailure is reported when the engine call itself fails.
var ErrEngineFailure = errors.New("engine reported failure")

// ErrBridgeInternal signals a broken bridge, e.g. a missing export after the engine claimed to be ready.
var ErrBridgeInternal = errors.New("bridge internal error")

// ErrEmptyCommand is reported when an empty command reaches the bridge.
var ErrEmptyCommand = errors.New("command is required")

// ErrBusy is returned when a statement is submitted while another one is in flight.
var ErrBusy = errors.New("session is busy")

// ErrArenaClosed is returned when a buffer is requested from a closed arena.
var ErrArenaClosed = errors.New("buffer arena closed")
