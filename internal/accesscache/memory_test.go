package accesscache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jagadeesh/activity-router/internal/clock"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func counting(v bool, calls *atomic.Int32) func(context.Context) (bool, error) {
	return func(context.Context) (bool, error) {
		calls.Add(1)
		return v, nil
	}
}

func TestMemory_MemoizesWithinTTL(t *testing.T) {
	clk := clock.Fake(epoch)
	c := NewMemory(clk)
	ctx := context.Background()
	var calls atomic.Int32

	for range 3 {
		v, err := c.Fetch(ctx, "k", time.Minute, counting(true, &calls))
		require.NoError(t, err)
		assert.True(t, v)
	}
	assert.EqualValues(t, 1, calls.Load())

	// False results are cached too.
	for range 2 {
		v, err := c.Fetch(ctx, "other", time.Minute, counting(false, &calls))
		require.NoError(t, err)
		assert.False(t, v)
	}
	assert.EqualValues(t, 2, calls.Load())
}

func TestMemory_RecomputesAfterTTL(t *testing.T) {
	clk := clock.Fake(epoch)
	c := NewMemory(clk)
	ctx := context.Background()
	var calls atomic.Int32

	_, err := c.Fetch(ctx, "k", 10*time.Minute, counting(true, &calls))
	require.NoError(t, err)

	clk.Advance(9 * time.Minute)
	_, err = c.Fetch(ctx, "k", 10*time.Minute, counting(true, &calls))
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls.Load())

	clk.Advance(time.Minute)
	v, err := c.Fetch(ctx, "k", 10*time.Minute, counting(false, &calls))
	require.NoError(t, err)
	assert.False(t, v)
	assert.EqualValues(t, 2, calls.Load())
}

func TestMemory_ErrorsAreNotCached(t *testing.T) {
	c := NewMemory(clock.Fake(epoch))
	ctx := context.Background()
	boom := errors.New("github unavailable")

	_, err := c.Fetch(ctx, "k", time.Minute, func(context.Context) (bool, error) { return false, boom })
	require.ErrorIs(t, err, boom)

	var calls atomic.Int32
	v, err := c.Fetch(ctx, "k", time.Minute, counting(true, &calls))
	require.NoError(t, err)
	assert.True(t, v)
	assert.EqualValues(t, 1, calls.Load())
}

func TestMemory_ConcurrentCallersShareOneComputation(t *testing.T) {
	c := NewMemory(clock.Fake(epoch))
	ctx := context.Background()

	var calls atomic.Int32
	release := make(chan struct{})
	compute := func(context.Context) (bool, error) {
		calls.Add(1)
		<-release
		return true, nil
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([]bool, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Fetch(ctx, "shared", time.Minute, compute)
			assert.NoError(t, err)
			results[i] = v
		}()
	}

	// Give every caller a chance to block on the in-flight computation.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())
	for _, v := range results {
		assert.True(t, v)
	}
}

func TestMemory_KeysAreIndependent(t *testing.T) {
	c := NewMemory(clock.Fake(epoch))
	ctx := context.Background()
	var calls atomic.Int32

	_, err := c.Fetch(ctx, "creator-access#1:10", time.Minute, counting(true, &calls))
	require.NoError(t, err)
	v, err := c.Fetch(ctx, "creator-access#1:11", time.Minute, counting(false, &calls))
	require.NoError(t, err)
	assert.False(t, v)
	assert.EqualValues(t, 2, calls.Load())
}

func TestMemory_SweepsExpiredEntriesOnWrite(t *testing.T) {
	clk := clock.Fake(epoch)
	c := NewMemory(clk)
	ctx := context.Background()
	var calls atomic.Int32

	for i := range 1000 {
		_, err := c.Fetch(ctx, fmt.Sprintf("creator-access#%d:1", i), time.Minute, counting(true, &calls))
		require.NoError(t, err)
	}
	require.Equal(t, 1000, c.len())

	clk.Advance(time.Hour)
	_, err := c.Fetch(ctx, "fresh", time.Minute, counting(true, &calls))
	require.NoError(t, err)
	assert.Equal(t, 1, c.len())

	// Entries still within their ttl survive a sweep.
	clk.Advance(30 * time.Second)
	_, err = c.Fetch(ctx, "later", time.Hour, counting(true, &calls))
	require.NoError(t, err)
	clk.Advance(sweepInterval)
	_, err = c.Fetch(ctx, "last", time.Hour, counting(true, &calls))
	require.NoError(t, err)
	assert.Equal(t, 2, c.len())
}
