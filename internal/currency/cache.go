package currency

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RateTTL is how long a fetched exchange rate stays valid. Each ordered
// currency pair caches independently.
const RateTTL = time.Hour

// Rate is one cached exchange rate.
type Rate struct {
	Value     float64   `json:"rate"`
	FetchedAt time.Time `json:"timestamp"`
}

// Cache stores rates per ordered currency pair with a TTL. Implementations:
// an in-process map and a Redis-backed variant for multi-instance deployments.
type Cache interface {
	Get(ctx context.Context, from, to string) (Rate, bool, error)
	Set(ctx context.Context, from, to string, rate Rate) error
}

func cacheKey(from, to string) string {
	return fmt.Sprintf("conversion_%s_%s", from, to)
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]Rate
	now     func() time.Time
}

func NewMemoryCache() Cache {
	return &memoryCache{entries: make(map[string]Rate), now: time.Now}
}

func (c *memoryCache) Get(_ context.Context, from, to string) (Rate, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rate, ok := c.entries[cacheKey(from, to)]
	if !ok {
		return Rate{}, false, nil
	}
	if c.now().Sub(rate.FetchedAt) >= RateTTL {
		delete(c.entries, cacheKey(from, to))
		return Rate{}, false, nil
	}
	return rate, true, nil
}

func (c *memoryCache) Set(_ context.Context, from, to string, rate Rate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(from, to)] = rate
	return nil
}
