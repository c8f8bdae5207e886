package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

// fakeSource counts fetches and returns a scripted price or error per id.
type fakeSource struct {
	calls  map[string]int
	prices map[string]float64
	errs   map[string]error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		calls:  make(map[string]int),
		prices: make(map[string]float64),
		errs:   make(map[string]error),
	}
}

func (f *fakeSource) FetchPrice(_ context.Context, tokenID string) (float64, error) {
	f.calls[tokenID]++
	if err := f.errs[tokenID]; err != nil {
		return 0, err
	}
	return f.prices[tokenID], nil
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache(t *testing.T, src Source, clock *fakeClock) *Cache {
	t.Helper()
	return NewCache(Config{
		Source: src,
		Logger: zaptest.NewLogger(t),
		Clock:  clock.Now,
	})
}

func TestCache_SingleFetchWithinTTL(t *testing.T) {
	src := newFakeSource()
	src.prices["sol"] = 195.0
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	cache := newTestCache(t, src, clock)

	assert.Equal(t, 195.0, cache.GetPrice(context.Background(), "sol"))

	clock.Advance(29 * time.Second)
	assert.Equal(t, 195.0, cache.GetPrice(context.Background(), "sol"))
	assert.Equal(t, 1, src.calls["sol"], "second lookup within TTL must not hit the oracle")
}

func TestCache_ExpiredEntryRefetches(t *testing.T) {
	src := newFakeSource()
	src.prices["sol"] = 195.0
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	cache := newTestCache(t, src, clock)

	cache.GetPrice(context.Background(), "sol")

	src.prices["sol"] = 201.5
	clock.Advance(30 * time.Second)

	assert.Equal(t, 201.5, cache.GetPrice(context.Background(), "sol"))
	assert.Equal(t, 2, src.calls["sol"])
}

func TestCache_FallbackOnErrorAndRetry(t *testing.T) {
	src := newFakeSource()
	src.errs["sol"] = errors.New("oracle down")
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	cache := newTestCache(t, src, clock)

	assert.Equal(t, FallbackPrice, cache.GetPrice(context.Background(), "sol"))
	assert.Equal(t, 0, cache.Len(), "fallback must not be cached")

	// Oracle recovers; the very next lookup retries instead of serving 1.0.
	src.errs["sol"] = nil
	src.prices["sol"] = 190.0
	assert.Equal(t, 190.0, cache.GetPrice(context.Background(), "sol"))
	assert.Equal(t, 2, src.calls["sol"])
}

func TestCache_IndependentTokens(t *testing.T) {
	src := newFakeSource()
	src.prices["sol"] = 195.0
	src.prices["usdc"] = 1.0001
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	cache := newTestCache(t, src, clock)

	assert.Equal(t, 195.0, cache.GetPrice(context.Background(), "sol"))
	assert.Equal(t, 1.0001, cache.GetPrice(context.Background(), "usdc"))
	assert.Equal(t, 2, cache.Len())
	assert.Equal(t, 1, src.calls["sol"])
	assert.Equal(t, 1, src.calls["usdc"])
}
