package cache

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/ironsheep/image-proxy/internal/origin"
)

// SingleFlight is an LRU cache that fetches misses outside its lock, with at
// most one fetch in flight per key. Concurrent misses for the same key wait
// for and share that fetch; misses for different keys run in parallel.
type SingleFlight struct {
	mu    sync.Mutex
	lru   *lru
	group singleflight.Group
}

// NewSingleFlight returns an empty SingleFlight cache holding up to capacity entries.
func NewSingleFlight(capacity int) (*SingleFlight, error) {
	if err := validateCapacity(capacity); err != nil {
		return nil, err
	}
	return &SingleFlight{lru: newLRU(capacity)}, nil
}

// GetOrFetch implements Cache.
//
// As with Serialized, the fetch ignores ctx cancellation so the result is
// cached even if every waiting caller has gone away.
func (c *SingleFlight) GetOrFetch(ctx context.Context, rawURL string, f origin.Fetcher) ([]byte, error) {
	key := Key(rawURL)

	if data, ok := c.lookup(key); ok {
		return data, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	leader := false
	v, err, shared := c.group.Do(strconv.FormatUint(key, 16), func() (interface{}, error) {
		leader = true
		// A flight for this key may have completed between the lookup above
		// and joining the group.
		if data, ok := c.lookup(key); ok {
			return data, nil
		}

		c.mu.Lock()
		c.lru.stats.Misses++
		c.mu.Unlock()
		log.Debug().Uint64("key", key).Str("url", rawURL).Msg("cache miss")

		data, err := f.Fetch(fetchCtx, strings.TrimSpace(rawURL))
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		return c.lru.add(key, data), nil
	})
	// Do reports shared to the leader as well when others joined its flight.
	if shared && !leader {
		c.mu.Lock()
		c.lru.stats.Coalesced++
		c.mu.Unlock()
	}
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *SingleFlight) lookup(key uint64) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.lru.get(key)
	if ok {
		c.lru.stats.Hits++
		log.Debug().Uint64("key", key).Msg("cache hit")
	}
	return data, ok
}

// Len implements Cache.
func (c *SingleFlight) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.len()
}

// Stats implements Cache.
func (c *SingleFlight) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.snapshot()
}
