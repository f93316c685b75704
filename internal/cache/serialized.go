package cache

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ironsheep/image-proxy/internal/origin"
)

// Serialized is an LRU cache guarded by a single mutex that stays locked
// while a miss is fetched. At most one fetch is in flight across the whole
// cache, and every other caller waits for it, whatever URL they want.
type Serialized struct {
	mu  sync.Mutex
	lru *lru
}

// NewSerialized returns an empty Serialized cache holding up to capacity entries.
func NewSerialized(capacity int) (*Serialized, error) {
	if err := validateCapacity(capacity); err != nil {
		return nil, err
	}
	return &Serialized{lru: newLRU(capacity)}, nil
}

// GetOrFetch implements Cache.
//
// The fetch runs detached from ctx cancellation: once started it completes
// and populates the cache even if the caller has gone away.
func (c *Serialized) GetOrFetch(ctx context.Context, rawURL string, f origin.Fetcher) ([]byte, error) {
	key := Key(rawURL)

	c.mu.Lock()
	defer c.mu.Unlock()

	if data, ok := c.lru.get(key); ok {
		c.lru.stats.Hits++
		log.Debug().Uint64("key", key).Msg("cache hit")
		return data, nil
	}

	c.lru.stats.Misses++
	log.Debug().Uint64("key", key).Str("url", rawURL).Msg("cache miss")

	data, err := f.Fetch(context.WithoutCancel(ctx), strings.TrimSpace(rawURL))
	if err != nil {
		return nil, err
	}
	return c.lru.add(key, data), nil
}

// Len implements Cache.
func (c *Serialized) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.len()
}

// Stats implements Cache.
func (c *Serialized) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.snapshot()
}
