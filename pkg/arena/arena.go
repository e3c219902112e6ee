// Package arena implements the fixed-size scratch buffers used to pass strings
// across the engine boundary.
//
// Buffers live in the engine's own memory. They are allocated once, pooled and
// zeroed on every acquire and release, so a steady stream of calls causes no
// allocation churn on either side of the boundary.
package arena

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/aretw0/bustub-shell/pkg/domain"
	"github.com/aretw0/bustub-shell/pkg/ports"
)

const (
	// DefaultCapacity is the size of each scratch buffer (64 KiB).
	DefaultCapacity = 64 * 1024
	// MaxCapacity bounds the size of a single buffer (16 MiB).
	MaxCapacity = 16 << 20
)

// Stats counts buffer traffic. Acquired == Released whenever no call is in flight.
type Stats struct {
	Acquired  uint64
	Released  uint64
	Allocated int
	InUse     int
}

// Option configures the Arena.
type Option func(*Arena)

// WithUsageHook registers a callback invoked with the number of buffers in use
// after every acquire and release.
func WithUsageHook(fn func(inUse int)) Option {
	return func(a *Arena) {
		a.onUsage = fn
	}
}

// Arena pools fixed-capacity buffers inside an engine's memory.
type Arena struct {
	alloc    ports.Allocator
	capacity uint32
	zeros    []byte
	onUsage  func(inUse int)

	mu       sync.Mutex
	free     []*Buffer
	all      []*Buffer
	acquired uint64
	released uint64
	closed   bool
}

// New creates an arena handing out buffers of the given capacity.
// A capacity below 2 falls back to DefaultCapacity; one above MaxCapacity is
// clamped to it.
func New(alloc ports.Allocator, capacity int, opts ...Option) *Arena {
	switch {
	case capacity < 2:
		capacity = DefaultCapacity
	case capacity > MaxCapacity:
		capacity = MaxCapacity
	}
	a := &Arena{
		alloc:    alloc,
		capacity: uint32(capacity),
		zeros:    make([]byte, capacity),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Capacity returns the size of every buffer.
func (a *Arena) Capacity() int {
	return int(a.capacity)
}

// Acquire hands out a zeroed buffer, reusing a pooled one when possible.
func (a *Arena) Acquire(ctx context.Context) (*Buffer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, domain.ErrArenaClosed
	}

	var buf *Buffer
	if n := len(a.free); n > 0 {
		buf = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		ptr, err := a.alloc.Malloc(ctx, a.capacity)
		if err != nil {
			return nil, fmt.Errorf("allocate scratch buffer: %w", err)
		}
		if ptr == 0 {
			return nil, fmt.Errorf("allocate scratch buffer: engine returned a null pointer")
		}
		buf = &Buffer{arena: a, ptr: ptr}
		a.all = append(a.all, buf)
	}

	if err := a.zero(buf); err != nil {
		a.free = append(a.free, buf)
		return nil, err
	}
	buf.inUse = true
	a.acquired++
	a.notify()
	return buf, nil
}

// Release zeroes the buffer and returns it to the pool.
// Releasing a buffer twice is a no-op.
func (a *Arena) Release(buf *Buffer) {
	if buf == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if !buf.inUse {
		return
	}
	buf.inUse = false
	_ = a.zero(buf)
	a.free = append(a.free, buf)
	a.released++
	a.notify()
}

// Scope acquires n buffers, runs fn and releases the buffers on every path,
// including when fn fails or panics.
func (a *Arena) Scope(ctx context.Context, n int, fn func(bufs []*Buffer) error) error {
	bufs := make([]*Buffer, 0, n)
	defer func() {
		for _, b := range bufs {
			a.Release(b)
		}
	}()

	for i := 0; i < n; i++ {
		b, err := a.Acquire(ctx)
		if err != nil {
			return err
		}
		bufs = append(bufs, b)
	}
	return fn(bufs)
}

// Stats returns a snapshot of the counters.
func (a *Arena) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Stats{
		Acquired:  a.acquired,
		Released:  a.released,
		Allocated: len(a.all),
		InUse:     a.inUse(),
	}
}

// Close frees every pooled buffer. Buffers still in use are freed as well.
func (a *Arena) Close(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true

	var firstErr error
	for _, b := range a.all {
		if err := a.alloc.Free(ctx, b.ptr); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.all = nil
	a.free = nil
	return firstErr
}

func (a *Arena) zero(b *Buffer) error {
	if !a.alloc.Memory().Write(b.ptr, a.zeros) {
		return fmt.Errorf("zero scratch buffer at %#x: out of range", b.ptr)
	}
	return nil
}

func (a *Arena) inUse() int {
	return len(a.all) - len(a.free)
}

func (a *Arena) notify() {
	if a.onUsage != nil {
		a.onUsage(a.inUse())
	}
}

// Buffer is a fixed-capacity region of engine memory borrowed from an Arena.
type Buffer struct {
	arena *Arena
	ptr   uint32
	inUse bool
}

// Ptr is the buffer's offset in engine memory.
func (b *Buffer) Ptr() uint32 {
	return b.ptr
}

// Cap is the buffer's capacity in bytes, including the terminating NUL.
func (b *Buffer) Cap() int {
	return int(b.arena.capacity)
}

// WriteString stores s as a NUL-terminated string, truncated to at most
// Cap()-1 bytes on a character boundary. It returns the number of bytes of s
// that were written.
func (b *Buffer) WriteString(s string) (int, error) {
	s = Truncate(s, int(b.arena.capacity)-1)
	data := make([]byte, len(s)+1)
	copy(data, s)
	if !b.arena.alloc.Memory().Write(b.ptr, data) {
		return 0, fmt.Errorf("write scratch buffer at %#x: out of range", b.ptr)
	}
	return len(s), nil
}

// ReadString returns the contents up to the first NUL. Invalid UTF-8 left by
// a truncation in the middle of a character is dropped.
func (b *Buffer) ReadString() (string, error) {
	raw, ok := b.arena.alloc.Memory().Read(b.ptr, b.arena.capacity)
	if !ok {
		return "", fmt.Errorf("read scratch buffer at %#x: out of range", b.ptr)
	}
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	return strings.ToValidUTF8(string(raw), ""), nil
}

// Truncate cuts s to at most limit bytes without splitting a UTF-8 sequence.
func Truncate(s string, limit int) string {
	if limit < 0 {
		limit = 0
	}
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
