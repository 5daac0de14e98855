package encoders

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL is how long a discovery result stays fresh. Hardware does not
// come and go often; re-probing on every API call would spawn trial
// encodes continuously.
const DefaultTTL = 5 * time.Minute

// Catalog caches discovery results behind a TTL with an explicit refresh
// escape hatch.
type Catalog struct {
	mu          sync.RWMutex
	list        []Encoder
	lastRefresh time.Time
	ttl         time.Duration

	discover func(ctx context.Context) []Encoder
}

// NewCatalog creates an empty catalog; the first Get runs discovery.
func NewCatalog(ttl time.Duration) *Catalog {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Catalog{ttl: ttl, discover: Discover}
}

// Get returns the cached encoder list, re-running discovery when the
// cache has expired or was never filled. Concurrent misses collapse into
// a single discovery run.
func (c *Catalog) Get(ctx context.Context) []Encoder {
	c.mu.RLock()
	if c.fresh() {
		defer c.mu.RUnlock()
		return c.list
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fresh() {
		return c.list
	}
	c.list = c.discover(ctx)
	c.lastRefresh = time.Now()
	return c.list
}

// Refresh re-probes immediately regardless of cache age. Discovery runs
// outside the lock so readers keep being served the previous list while
// trial encodes are in flight.
func (c *Catalog) Refresh(ctx context.Context) []Encoder {
	list := c.discover(ctx)

	c.mu.Lock()
	c.list = list
	c.lastRefresh = time.Now()
	c.mu.Unlock()
	return list
}

// Best returns the preferred available encoder, discovering if needed.
func (c *Catalog) Best(ctx context.Context) Encoder {
	return SelectBest(c.Get(ctx))
}

func (c *Catalog) fresh() bool {
	return c.list != nil && time.Since(c.lastRefresh) < c.ttl
}
