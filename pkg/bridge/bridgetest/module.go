// Package bridgetest provides an in-memory engine module for tests.
package bridgetest

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/bustub-shell/pkg/ports"
)

// Reply is what a scripted engine answers for one command.
type Reply struct {
	Code   int32
	Prompt string
	Output string
}

// Script decides the reply for a command.
type Script func(command string) Reply

// Echo answers every command with its own text and code 0.
func Echo(command string) Reply {
	return Reply{Code: 0, Output: command}
}

// Module is a fake ports.Module backed by a byte slice. Allocation is a bump
// pointer; frees are only counted.
type Module struct {
	mu     sync.Mutex
	mem    []byte
	next   uint32
	live   map[uint32]uint32
	script Script

	InitCode int32
	InitErr  error
	ExecErr  error

	mallocs  atomic.Int64
	frees    atomic.Int64
	inits    atomic.Int64
	commands []string
	closed   atomic.Bool
}

// NewModule creates a module with the given memory size and script.
// A nil script behaves like Echo.
func NewModule(memSize int, script Script) *Module {
	if script == nil {
		script = Echo
	}
	return &Module{
		mem:    make([]byte, memSize),
		next:   8, // keep 0 as the null pointer
		live:   make(map[uint32]uint32),
		script: script,
	}
}

var _ ports.Module = (*Module)(nil)

// Malloc implements ports.Allocator.
func (m *Module) Malloc(_ context.Context, size uint32) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if uint64(m.next)+uint64(size) > uint64(len(m.mem)) {
		return 0, errors.New("bridgetest: out of memory")
	}
	ptr := m.next
	m.next += size
	m.live[ptr] = size
	m.mallocs.Add(1)
	return ptr, nil
}

// Free implements ports.Allocator.
func (m *Module) Free(_ context.Context, ptr uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.live, ptr)
	m.frees.Add(1)
	return nil
}

// Memory implements ports.Allocator.
func (m *Module) Memory() ports.Memory {
	return memory{m}
}

// Init implements ports.Module.
func (m *Module) Init(context.Context) (int32, error) {
	m.inits.Add(1)
	return m.InitCode, m.InitErr
}

// Execute reads the command, runs the script and writes prompt and output
// back. Output that does not fit is truncated and reported with code 1.
func (m *Module) Execute(_ context.Context, command, prompt, output, capacity uint32) (int32, error) {
	if m.ExecErr != nil {
		return 0, m.ExecErr
	}

	m.mu.Lock()
	cmd := m.cstring(command)
	m.commands = append(m.commands, cmd)
	m.mu.Unlock()

	reply := m.script(cmd)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeCString(prompt, reply.Prompt, capacity)
	if m.writeCString(output, reply.Output, capacity) && reply.Code == 0 {
		return 1, nil
	}
	return reply.Code, nil
}

// Close implements ports.Module.
func (m *Module) Close(context.Context) error {
	m.closed.Store(true)
	return nil
}

// Mallocs returns the number of allocations made.
func (m *Module) Mallocs() int { return int(m.mallocs.Load()) }

// Frees returns the number of frees.
func (m *Module) Frees() int { return int(m.frees.Load()) }

// Inits returns how many times init was called.
func (m *Module) Inits() int { return int(m.inits.Load()) }

// Closed reports whether Close was called.
func (m *Module) Closed() bool { return m.closed.Load() }

// Live returns the number of allocations not yet freed.
func (m *Module) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// Commands returns the commands received so far.
func (m *Module) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.commands...)
}

func (m *Module) cstring(ptr uint32) string {
	if int(ptr) >= len(m.mem) {
		return ""
	}
	raw := m.mem[ptr:]
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	return string(raw)
}

// writeCString reports whether s had to be truncated.
func (m *Module) writeCString(ptr uint32, s string, capacity uint32) bool {
	if capacity == 0 || uint64(ptr)+uint64(capacity) > uint64(len(m.mem)) {
		return false
	}
	truncated := false
	if len(s) > int(capacity)-1 {
		s = s[:capacity-1]
		truncated = true
	}
	copy(m.mem[ptr:], s)
	m.mem[int(ptr)+len(s)] = 0
	return truncated
}

type memory struct{ m *Module }

func (mem memory) Read(offset, byteCount uint32) ([]byte, bool) {
	mem.m.mu.Lock()
	defer mem.m.mu.Unlock()
	end := uint64(offset) + uint64(byteCount)
	if end > uint64(len(mem.m.mem)) {
		return nil, false
	}
	return append([]byte(nil), mem.m.mem[offset:end]...), true
}

func (mem memory) Write(offset uint32, v []byte) bool {
	mem.m.mu.Lock()
	defer mem.m.mu.Unlock()
	if uint64(offset)+uint64(len(v)) > uint64(len(mem.m.mem)) {
		return false
	}
	copy(mem.m.mem[offset:], v)
	return true
}

// Runtime is a fake ports.Runtime returning a fixed module.
type Runtime struct {
	Module *Module
	Err    error
	// Delay postpones Load; a cancelled context wins over the delay.
	Delay time.Duration
	// Gate, when non-nil, blocks Load until it is closed or the context ends.
	Gate chan struct{}
	// IgnoreContext makes Load wait out Delay even when the context ends.
	IgnoreContext bool

	loads atomic.Int64
}

var _ ports.Runtime = (*Runtime)(nil)

// Load implements ports.Runtime.
func (r *Runtime) Load(ctx context.Context) (ports.Module, error) {
	r.loads.Add(1)

	if r.Gate != nil {
		select {
		case <-r.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if r.Delay > 0 {
		if r.IgnoreContext {
			time.Sleep(r.Delay)
		} else {
			select {
			case <-time.After(r.Delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	if r.Err != nil {
		return nil, r.Err
	}
	if r.Module == nil {
		return nil, errors.New("bridgetest: no module")
	}
	return r.Module, nil
}

// Loads returns how many times Load was called.
func (r *Runtime) Loads() int { return int(r.loads.Load()) }
