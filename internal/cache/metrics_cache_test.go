package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dmitrii6776/PersonalTradeAssist/internal/models"
)

type fakeFetcher struct {
	mu    sync.Mutex
	calls int32
	fail  bool
	delay time.Duration
	score float64
}

func (f *fakeFetcher) FetchSymbolMetrics(ctx context.Context, symbol string) (*models.SymbolMetrics, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("provider down")
	}
	score := f.score
	return &models.SymbolMetrics{
		CoinID:         symbol,
		FetchedAt:      time.Now(),
		CommunityScore: &score,
	}, nil
}

func (f *fakeFetcher) setFail(fail bool) {
	f.mu.Lock()
	f.fail = fail
	f.mu.Unlock()
}

func TestGetIdempotentWithinTTL(t *testing.T) {
	fetcher := &fakeFetcher{score: 70}
	c := New(fetcher, time.Hour)
	ctx := context.Background()

	first, err := c.Get(ctx, "BTC")
	require.NoError(t, err)
	second, err := c.Get(ctx, "BTC")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fetcher.calls))
}

func TestGetRefreshesAfterTTL(t *testing.T) {
	fetcher := &fakeFetcher{score: 70}
	c := New(fetcher, 10*time.Millisecond)
	ctx := context.Background()

	_, err := c.Get(ctx, "BTC")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	entry, err := c.Get(ctx, "BTC")
	require.NoError(t, err)
	assert.False(t, entry.Degraded)
	assert.Equal(t, int32(2), atomic.LoadInt32(&fetcher.calls))
}

func TestGetServesStaleOnRefreshFailure(t *testing.T) {
	fetcher := &fakeFetcher{score: 70}
	c := New(fetcher, 10*time.Millisecond)
	ctx := context.Background()

	fresh, err := c.Get(ctx, "BTC")
	require.NoError(t, err)
	require.False(t, fresh.Degraded)

	time.Sleep(20 * time.Millisecond)
	fetcher.setFail(true)

	stale, err := c.Get(ctx, "BTC")
	require.NoError(t, err)
	assert.True(t, stale.Degraded)
	require.NotNil(t, stale.CommunityScore)
	assert.Equal(t, *fresh.CommunityScore, *stale.CommunityScore)
}

func TestGetMissWithFailedFetchIsUnavailable(t *testing.T) {
	fetcher := &fakeFetcher{fail: true}
	c := New(fetcher, time.Hour)

	_, err := c.Get(context.Background(), "BTC")
	assert.Error(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestGetSingleFlight(t *testing.T) {
	fetcher := &fakeFetcher{score: 70, delay: 50 * time.Millisecond}
	c := New(fetcher, time.Hour)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry, err := c.Get(ctx, "BTC")
			assert.NoError(t, err)
			assert.NotNil(t, entry)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&fetcher.calls))
}

func TestGetDistinctSymbolsFetchSeparately(t *testing.T) {
	fetcher := &fakeFetcher{score: 70}
	c := New(fetcher, time.Hour)
	ctx := context.Background()

	_, err := c.Get(ctx, "BTC")
	require.NoError(t, err)
	_, err = c.Get(ctx, "ETH")
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&fetcher.calls))
	assert.Equal(t, 2, c.Len())
}
