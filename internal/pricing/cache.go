// internal/pricing/cache.go
package pricing

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/solscope/dlmm-portfolio/internal/metrics"
)

const (
	// DefaultTTL bounds how long a fetched price keeps being served.
	DefaultTTL = 30 * time.Second

	// FallbackPrice is returned when the oracle cannot produce a price.
	// The dashboard prefers a plausible, clearly-approximate number over
	// an error; the entry is left unset so the next lookup retries.
	FallbackPrice = 1.0
)

// Source produces a USD price for a token id, typically over the network.
type Source interface {
	FetchPrice(ctx context.Context, tokenID string) (float64, error)
}

type entry struct {
	price     float64
	fetchedAt time.Time
}

// Config carries Cache construction dependencies. TTL and Clock default to
// DefaultTTL and time.Now; the clock is injectable so tests control expiry.
type Config struct {
	Source  Source
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	TTL     time.Duration
	Clock   func() time.Time
}

// Cache memoizes oracle prices for a bounded time. Entries are replaced
// whole, never mutated. Concurrent lookups for the same id may both hit the
// oracle; the last write wins, which is acceptable because both fetched the
// same quote within the TTL window.
type Cache struct {
	source  Source
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu      sync.RWMutex
	entries map[string]entry
}

// NewCache builds a price cache over the given source.
func NewCache(cfg Config) *Cache {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &Cache{
		source:  cfg.Source,
		ttl:     cfg.TTL,
		now:     cfg.Clock,
		logger:  cfg.Logger.Named("pricing"),
		metrics: cfg.Metrics,
		entries: make(map[string]entry),
	}
}

// GetPrice returns the USD price for tokenID, serving from the cache when a
// fresh entry exists. Oracle failures are absorbed: the caller gets
// FallbackPrice and no entry is stored, so the next call retries.
func (c *Cache) GetPrice(ctx context.Context, tokenID string) float64 {
	now := c.now()

	c.mu.RLock()
	e, ok := c.entries[tokenID]
	c.mu.RUnlock()

	if ok && now.Sub(e.fetchedAt) < c.ttl {
		c.metrics.PriceCacheHits.Inc()
		return e.price
	}
	c.metrics.PriceCacheMisses.Inc()

	price, err := c.source.FetchPrice(ctx, tokenID)
	if err != nil {
		c.metrics.PriceFallbacks.Inc()
		c.logger.Warn("price fetch failed, using fallback",
			zap.String("token_id", tokenID),
			zap.Float64("fallback", FallbackPrice),
			zap.Error(err))
		return FallbackPrice
	}

	c.mu.Lock()
	c.entries[tokenID] = entry{price: price, fetchedAt: now}
	c.mu.Unlock()

	c.logger.Debug("cached token price",
		zap.String("token_id", tokenID),
		zap.Float64("price", price))

	return price
}

// Len reports the number of cached entries, fresh or stale.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
