package wasm

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/aretw0/bustub-shell/internal/logging"
	"github.com/aretw0/bustub-shell/pkg/domain"
	"github.com/aretw0/bustub-shell/pkg/ports"
)

// Exports names the module functions the bridge calls.
type Exports struct {
	Init    string `yaml:"init"`
	Execute string `yaml:"execute"`
	Malloc  string `yaml:"malloc"`
	Free    string `yaml:"free"`
}

// DefaultExports are the export names of the BusTub build.
func DefaultExports() Exports {
	return Exports{
		Init:    "init",
		Execute: "execute",
		Malloc:  "malloc",
		Free:    "free",
	}
}

// Option configures the Runtime.
type Option func(*Runtime)

// WithExports overrides the export names.
func WithExports(e Exports) Option {
	return func(r *Runtime) {
		r.exports = e
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithStdio routes the module's WASI stdout and stderr. Both are discarded
// by default.
func WithStdio(stdout, stderr io.Writer) Option {
	return func(r *Runtime) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// Runtime implements ports.Runtime on wazero.
type Runtime struct {
	src     ports.ArtifactSource
	exports Exports
	logger  *slog.Logger
	stdout  io.Writer
	stderr  io.Writer
}

var _ ports.Runtime = (*Runtime)(nil)

// NewRuntime creates a runtime loading the artifact from src.
func NewRuntime(src ports.ArtifactSource, opts ...Option) *Runtime {
	r := &Runtime{
		src:     src,
		exports: DefaultExports(),
		logger:  logging.NewNop(),
		stdout:  io.Discard,
		stderr:  io.Discard,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load fetches, compiles and instantiates the module and resolves its
// exports. ctx bounds the whole load.
func (r *Runtime) Load(ctx context.Context) (ports.Module, error) {
	r.logger.Debug("fetching engine artifact", "location", r.src.Location())
	bin, err := r.src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", r.src.Location(), err)
	}

	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithCloseOnContextDone(true))
	ok := false
	defer func() {
		if !ok {
			_ = rt.Close(context.Background())
		}
	}()

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		return nil, fmt.Errorf("instantiate wasi: %w", err)
	}

	compiled, err := rt.CompileModule(ctx, bin)
	if err != nil {
		return nil, fmt.Errorf("compile module: %w", err)
	}

	cfg := wazero.NewModuleConfig().
		WithName("bustub").
		WithStartFunctions("_initialize").
		WithStdout(r.stdout).
		WithStderr(r.stderr)
	mod, err := rt.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		return nil, fmt.Errorf("instantiate module: %w", err)
	}

	m, err := bind(rt, mod, r.exports)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("engine module instantiated", "size", len(bin))
	ok = true
	return m, nil
}

// Module is a loaded engine instance.
type Module struct {
	rt      wazero.Runtime
	mod     api.Module
	mem     api.Memory
	init    api.Function
	execute api.Function
	malloc  api.Function
	free    api.Function
}

var _ ports.Module = (*Module)(nil)

func bind(rt wazero.Runtime, mod api.Module, e Exports) (*Module, error) {
	m := &Module{rt: rt, mod: mod, mem: mod.Memory()}
	if m.mem == nil {
		return nil, fmt.Errorf("module exports no memory")
	}

	lookups := []struct {
		name string
		dst  *api.Function
	}{
		{e.Init, &m.init},
		{e.Execute, &m.execute},
		{e.Malloc, &m.malloc},
		{e.Free, &m.free},
	}
	for _, l := range lookups {
		fn := mod.ExportedFunction(l.name)
		if fn == nil {
			return nil, fmt.Errorf("missing export %q", l.name)
		}
		*l.dst = fn
	}
	return m, nil
}

// Init calls the init export.
func (m *Module) Init(ctx context.Context) (int32, error) {
	return m.call(ctx, m.init, "init")
}

// Execute calls the execute export. The call is not interrupted by ctx.
func (m *Module) Execute(ctx context.Context, command, prompt, output, capacity uint32) (int32, error) {
	return m.call(context.WithoutCancel(ctx), m.execute, "execute",
		api.EncodeU32(command),
		api.EncodeU32(prompt),
		api.EncodeU32(output),
		api.EncodeU32(capacity),
	)
}

// Malloc implements ports.Allocator.
func (m *Module) Malloc(ctx context.Context, size uint32) (uint32, error) {
	res, err := m.call(context.WithoutCancel(ctx), m.malloc, "malloc", api.EncodeU32(size))
	return uint32(res), err
}

// Free implements ports.Allocator.
func (m *Module) Free(ctx context.Context, ptr uint32) error {
	if m.free == nil {
		return fmt.Errorf("%w: free export unavailable", domain.ErrBridgeInternal)
	}
	_, err := m.free.Call(context.WithoutCancel(ctx), api.EncodeU32(ptr))
	return err
}

// Memory implements ports.Allocator.
func (m *Module) Memory() ports.Memory {
	return m.mem
}

// Close releases the module and its runtime.
func (m *Module) Close(ctx context.Context) error {
	return m.rt.Close(ctx)
}

func (m *Module) call(ctx context.Context, fn api.Function, name string, params ...uint64) (int32, error) {
	if fn == nil {
		return 0, fmt.Errorf("%w: %s export unavailable", domain.ErrBridgeInternal, name)
	}
	res, err := fn.Call(ctx, params...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if len(res) == 0 {
		return 0, fmt.Errorf("%w: %s returned no value", domain.ErrBridgeInternal, name)
	}
	return api.DecodeI32(res[0]), nil
}
