// Package cache holds the symbol-detail cache that absorbs the most
// expensive and most tightly rate-limited per-symbol lookups.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/Dmitrii6776/PersonalTradeAssist/internal/models"
)

// MetricsCache caches SymbolMetrics per symbol with a TTL. A stale entry is
// still served, flagged as degraded, when the refresh fails: bounded
// staleness beats total loss for slow-moving community/developer scores.
// Concurrent requests for the same symbol share a single fetch.
type MetricsCache struct {
	fetcher models.MetricsFetcher
	ttl     time.Duration

	mu      sync.Mutex
	entries map[string]models.SymbolMetrics

	group  singleflight.Group
	logger zerolog.Logger
}

// New creates a cache over the given fetcher.
func New(fetcher models.MetricsFetcher, ttl time.Duration) *MetricsCache {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &MetricsCache{
		fetcher: fetcher,
		ttl:     ttl,
		entries: make(map[string]models.SymbolMetrics),
		logger:  log.With().Str("component", "metrics_cache").Logger(),
	}
}

// Get returns the metrics for a symbol. A fresh cached entry is returned
// as-is; otherwise the fetcher is called (once per symbol, however many
// goroutines ask) and the result stored. When the fetch fails and a stale
// entry exists, that entry is returned with Degraded set. Only a miss with a
// failed fetch yields an error.
func (c *MetricsCache) Get(ctx context.Context, symbol string) (*models.SymbolMetrics, error) {
	if entry, ok := c.lookup(symbol, false); ok {
		return entry, nil
	}

	v, err, _ := c.group.Do(symbol, func() (any, error) {
		// Another waiter may have refreshed while we queued.
		if entry, ok := c.lookup(symbol, false); ok {
			return entry, nil
		}

		metrics, err := c.fetcher.FetchSymbolMetrics(ctx, symbol)
		if err != nil {
			if stale, ok := c.lookup(symbol, true); ok {
				c.logger.Warn().Str("symbol", symbol).Err(err).
					Msg("Refresh failed, serving stale metrics")
				stale.Degraded = true
				return stale, nil
			}
			return nil, err
		}

		c.mu.Lock()
		c.entries[symbol] = *metrics
		c.mu.Unlock()

		out := *metrics
		return &out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.SymbolMetrics), nil
}

// lookup returns a copy of the cached entry. With allowStale false, entries
// older than the TTL are treated as missing.
func (c *MetricsCache) lookup(symbol string, allowStale bool) (*models.SymbolMetrics, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[symbol]
	if !ok {
		return nil, false
	}
	if !allowStale && time.Since(entry.FetchedAt) >= c.ttl {
		return nil, false
	}
	out := entry
	return &out, true
}

// Len reports how many symbols are cached, fresh or stale.
func (c *MetricsCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
