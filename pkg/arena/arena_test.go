package arena

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/bustub-shell/pkg/bridge/bridgetest"
	"github.com/aretw0/bustub-shell/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArena_AcquireReusesBuffers(t *testing.T) {
	mod := bridgetest.NewModule(1<<16, nil)
	a := New(mod, 64)
	ctx := context.Background()

	b1, err := a.Acquire(ctx)
	require.NoError(t, err)
	ptr := b1.Ptr()
	a.Release(b1)

	b2, err := a.Acquire(ctx)
	require.NoError(t, err)
	assert.Equal(t, ptr, b2.Ptr(), "released buffer should be reused")
	assert.Equal(t, 1, mod.Mallocs())
	a.Release(b2)

	stats := a.Stats()
	assert.Equal(t, uint64(2), stats.Acquired)
	assert.Equal(t, uint64(2), stats.Released)
	assert.Equal(t, 1, stats.Allocated)
	assert.Equal(t, 0, stats.InUse)
}

func TestArena_BuffersAreZeroedOnAcquire(t *testing.T) {
	mod := bridgetest.NewModule(1<<16, nil)
	a := New(mod, 32)
	ctx := context.Background()

	b, err := a.Acquire(ctx)
	require.NoError(t, err)
	_, err = b.WriteString("stale contents")
	require.NoError(t, err)

	// Dirty the memory behind the arena's back after release.
	a.Release(b)
	require.True(t, mod.Memory().Write(b.Ptr(), []byte("junk")))

	b, err = a.Acquire(ctx)
	require.NoError(t, err)
	got, err := b.ReadString()
	require.NoError(t, err)
	assert.Empty(t, got)
	a.Release(b)
}

func TestBuffer_WriteStringTruncates(t *testing.T) {
	mod := bridgetest.NewModule(1<<16, nil)
	a := New(mod, 8)

	b, err := a.Acquire(context.Background())
	require.NoError(t, err)
	defer a.Release(b)

	n, err := b.WriteString("abcdefghijkl")
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	got, err := b.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "abcdefg", got)
}

func TestBuffer_ReadStringDropsBrokenUTF8(t *testing.T) {
	mod := bridgetest.NewModule(1<<16, nil)
	a := New(mod, 16)

	b, err := a.Acquire(context.Background())
	require.NoError(t, err)
	defer a.Release(b)

	// "é" cut in half.
	require.True(t, mod.Memory().Write(b.Ptr(), []byte{'o', 'k', 0xc3, 0}))
	got, err := b.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestArena_ScopeReleasesOnEveryPath(t *testing.T) {
	mod := bridgetest.NewModule(1<<16, nil)
	a := New(mod, 16)
	ctx := context.Background()
	boom := errors.New("boom")

	err := a.Scope(ctx, 2, func(bufs []*Buffer) error {
		require.Len(t, bufs, 2)
		assert.NotEqual(t, bufs[0].Ptr(), bufs[1].Ptr())
		assert.Equal(t, 2, a.Stats().InUse)
		return nil
	})
	require.NoError(t, err)

	err = a.Scope(ctx, 2, func([]*Buffer) error { return boom })
	assert.ErrorIs(t, err, boom)

	assert.Panics(t, func() {
		_ = a.Scope(ctx, 2, func([]*Buffer) error { panic("engine trap") })
	})

	stats := a.Stats()
	assert.Equal(t, stats.Acquired, stats.Released)
	assert.Equal(t, uint64(6), stats.Acquired)
	assert.Equal(t, 0, stats.InUse)
	assert.Equal(t, 2, stats.Allocated)
}

func TestArena_ScopeReleasesPartialAcquire(t *testing.T) {
	// Room for exactly one buffer.
	mod := bridgetest.NewModule(8+16, nil)
	a := New(mod, 16)

	called := false
	err := a.Scope(context.Background(), 2, func([]*Buffer) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)

	stats := a.Stats()
	assert.Equal(t, stats.Acquired, stats.Released)
	assert.Equal(t, 0, stats.InUse)
}

func TestArena_UsageHook(t *testing.T) {
	mod := bridgetest.NewModule(1<<16, nil)
	var seen []int
	a := New(mod, 16, WithUsageHook(func(n int) { seen = append(seen, n) }))

	_ = a.Scope(context.Background(), 2, func([]*Buffer) error { return nil })
	assert.Equal(t, []int{1, 2, 1, 0}, seen)
}

func TestArena_Close(t *testing.T) {
	mod := bridgetest.NewModule(1<<16, nil)
	a := New(mod, 16)
	ctx := context.Background()

	require.NoError(t, a.Scope(ctx, 2, func([]*Buffer) error { return nil }))
	require.NoError(t, a.Close(ctx))
	assert.Equal(t, 2, mod.Frees())
	assert.Equal(t, 0, mod.Live())

	_, err := a.Acquire(ctx)
	assert.ErrorIs(t, err, domain.ErrArenaClosed)
	assert.NoError(t, a.Close(ctx), "second close is a no-op")
}

func TestArena_DefaultCapacity(t *testing.T) {
	mod := bridgetest.NewModule(1<<17, nil)
	a := New(mod, 0)
	assert.Equal(t, DefaultCapacity, a.Capacity())

	b, err := a.Acquire(context.Background())
	require.NoError(t, err)
	defer a.Release(b)

	n, err := b.WriteString(strings.Repeat("x", DefaultCapacity+10))
	require.NoError(t, err)
	assert.Equal(t, DefaultCapacity-1, n)
}

func TestArena_CapacityIsClamped(t *testing.T) {
	mod := bridgetest.NewModule(1<<16, nil)
	assert.Equal(t, MaxCapacity, New(mod, MaxCapacity+1).Capacity())
	assert.Equal(t, MaxCapacity, New(mod, int(^uint32(0))+2).Capacity())
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{"fits", "abc", 3, "abc"},
		{"ascii", "abcdef", 4, "abcd"},
		{"backs off a split character", "abé", 3, "ab"},
		{"keeps a whole character", "abé", 4, "abé"},
		{"three byte character", "a€b", 2, "a"},
		{"zero", "abc", 0, ""},
		{"negative", "abc", -1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.in, tt.limit))
		})
	}
}
