package opcache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSetRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "k", "v", 0))
	v, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestMemoryExpiryTreatedAsAbsent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "k", "v", time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileGetSetRoundTrip(t *testing.T) {
	f := NewFile(t.TempDir())
	ctx := context.Background()
	require.NoError(t, f.Set(ctx, "k", map[string]any{"a": float64(1)}, 0))
	v, ok, err := f.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"a": float64(1)}, v)
}

func TestFileMissingKeyIsAbsentNotError(t *testing.T) {
	f := NewFile(t.TempDir())
	_, ok, err := f.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBuildOnceRunsExactlyOnceUnderConcurrency(t *testing.T) {
	backend := NewMemory()
	bo := NewBuildOnce(backend)
	var builds int64

	build := func() (any, error) {
		atomic.AddInt64(&builds, 1)
		time.Sleep(20 * time.Millisecond)
		return "built", nil
	}

	const n = 20
	results := make(chan any, n)
	for i := 0; i < n; i++ {
		go func() {
			v, _, err := bo.GetOrBuild(context.Background(), "shared-key", time.Minute, build)
			assert.NoError(t, err)
			results <- v
		}()
	}
	for i := 0; i < n; i++ {
		assert.Equal(t, "built", <-results)
	}
	assert.Equal(t, int64(1), atomic.LoadInt64(&builds))
}

func TestBuildOnceUsesExistingEntryWithoutBuilding(t *testing.T) {
	backend := NewMemory()
	bo := NewBuildOnce(backend)
	require.NoError(t, backend.Set(context.Background(), "k", "cached", time.Minute))

	called := false
	v, built, err := bo.GetOrBuild(context.Background(), "k", time.Minute, func() (any, error) {
		called = true
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.False(t, called)
	assert.False(t, built)
	assert.Equal(t, "cached", v)
}

func TestBuildOncePropagatesBuildError(t *testing.T) {
	bo := NewBuildOnce(NewMemory())
	_, _, err := bo.GetOrBuild(context.Background(), "k", time.Minute, func() (any, error) {
		return nil, assert.AnError
	})
	assert.Error(t, err)
}
