package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	positive int
	negative int
	err      error
	calls    int
}

func (f *fakeCounter) GetFeedbackCounts(ctx context.Context, documentID string, page int) (int, int, error) {
	f.calls++
	return f.positive, f.negative, f.err
}

func TestComputeBoost(t *testing.T) {
	tests := []struct {
		name     string
		positive int
		negative int
		want     float64
	}{
		{"no votes is neutral", 0, 0, 1.0},
		{"net positive", 3, 1, 1.2},
		{"net negative", 1, 4, 0.7},
		{"clamped at upper bound", 50, 0, 3.0},
		{"clamped at lower bound", 0, 50, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ComputeBoost(tt.positive, tt.negative), 1e-9)
		})
	}
}

func TestBoostCacheMemoizes(t *testing.T) {
	counter := &fakeCounter{positive: 3, negative: 1}
	cache := NewBoostCache(counter, time.Minute)

	for i := 0; i < 3; i++ {
		boost, err := cache.Boost(context.Background(), "doc-1", 2)
		require.NoError(t, err)
		assert.InDelta(t, 1.2, boost, 1e-9)
	}
	assert.Equal(t, 1, counter.calls)
}

func TestBoostCacheExpires(t *testing.T) {
	counter := &fakeCounter{positive: 1}
	cache := NewBoostCache(counter, time.Minute)

	current := time.Now()
	cache.now = func() time.Time { return current }

	_, err := cache.Boost(context.Background(), "doc-1", 1)
	require.NoError(t, err)
	require.Equal(t, 1, counter.calls)

	current = current.Add(2 * time.Minute)
	counter.positive = 5

	boost, err := cache.Boost(context.Background(), "doc-1", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, counter.calls)
	assert.InDelta(t, 1.5, boost, 1e-9)
}

func TestBoostCacheInvalidateWithinTTL(t *testing.T) {
	counter := &fakeCounter{positive: 2}
	cache := NewBoostCache(counter, time.Hour)

	boost, err := cache.Boost(context.Background(), "doc-1", 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.2, boost, 1e-9)

	// New feedback lands; the cached value must not outlive it.
	counter.positive = 4
	cache.Invalidate("doc-1", 1)

	boost, err = cache.Boost(context.Background(), "doc-1", 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.4, boost, 1e-9)
	assert.Equal(t, 2, counter.calls)
}

func TestBoostCachePropagatesStoreErrors(t *testing.T) {
	counter := &fakeCounter{err: errors.New("db down")}
	cache := NewBoostCache(counter, time.Minute)

	_, err := cache.Boost(context.Background(), "doc-1", 1)
	require.Error(t, err)
}

// Boost holds the cache mutex across its recompute, so a concurrent
// Invalidate can never interleave and leave a stale value behind. Run with
// the race detector enabled.
func TestBoostCacheConcurrentBoostAndInvalidate(t *testing.T) {
	counter := &fakeCounter{positive: 3, negative: 1}
	cache := NewBoostCache(counter, time.Minute)

	var wg sync.WaitGroup
	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				boost, err := cache.Boost(context.Background(), "doc-1", 1)
				assert.NoError(t, err)
				assert.InDelta(t, 1.2, boost, 1e-9)
			}
		}()
	}
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				cache.Invalidate("doc-1", 1)
			}
		}()
	}
	wg.Wait()

	// The counts never changed, so the surviving entry must be current.
	boost, err := cache.Boost(context.Background(), "doc-1", 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.2, boost, 1e-9)
}

func TestBoostCacheKeysPerPage(t *testing.T) {
	counter := &fakeCounter{positive: 1}
	cache := NewBoostCache(counter, time.Minute)

	_, err := cache.Boost(context.Background(), "doc-1", 1)
	require.NoError(t, err)
	_, err = cache.Boost(context.Background(), "doc-1", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, counter.calls)
}
