package ports

import "context"

// Memory is a view over the engine's linear memory.
// The method set matches wazero's api.Memory.
type Memory interface {
	Read(offset, byteCount uint32) ([]byte, bool)
	Write(offset uint32, v []byte) bool
}

// Allocator hands out regions of the engine's memory.
type Allocator interface {
	Malloc(ctx context.Context, size uint32) (uint32, error)
	Free(ctx context.Context, ptr uint32) error
	Memory() Memory
}

// Module is a loaded engine instance.
type Module interface {
	Allocator

	// Init calls the engine's init export. Zero means success.
	Init(ctx context.Context) (int32, error)

	// Execute calls the engine's execute export with a NUL-terminated command
	// and two output buffers of the given capacity.
	Execute(ctx context.Context, command, prompt, output, capacity uint32) (int32, error)

	Close(ctx context.Context) error
}

// Runtime produces ready modules. Load returns only after the engine's
// runtime-ready signal was observed; fetching the artifact alone is not enough.
type Runtime interface {
	Load(ctx context.Context) (Module, error)
}

// ArtifactSource fetches the engine binary.
type ArtifactSource interface {
	Fetch(ctx context.Context) ([]byte, error)
	Location() string
}
