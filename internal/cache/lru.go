package cache

import (
	"container/list"

	"github.com/rs/zerolog/log"
)

// lru is the bookkeeping shared by both cache variants. It is not safe for
// concurrent use; callers hold their own lock.
type lru struct {
	capacity int
	ll       *list.List // front = most recently used
	items    map[uint64]*list.Element
	stats    Stats
}

type entry struct {
	key   uint64
	value []byte
}

func newLRU(capacity int) *lru {
	return &lru{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[uint64]*list.Element, capacity),
		stats:    Stats{Capacity: capacity},
	}
}

// get returns the value for key and marks it most recently used.
func (c *lru) get(key uint64) ([]byte, bool) {
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*entry).value, true
}

// add stores value under key as the most recently used entry, evicting the
// least recently used entry first when full. An existing entry keeps its
// value; add then only refreshes its recency and returns the stored value.
func (c *lru) add(key uint64, value []byte) []byte {
	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		return el.Value.(*entry).value
	}

	if c.ll.Len() >= c.capacity {
		c.evictOldest()
	}
	c.items[key] = c.ll.PushFront(&entry{key: key, value: value})
	return value
}

func (c *lru) evictOldest() {
	el := c.ll.Back()
	if el == nil {
		return
	}
	e := c.ll.Remove(el).(*entry)
	delete(c.items, e.key)
	c.stats.Evictions++
	log.Debug().Uint64("key", e.key).Int("bytes", len(e.value)).Msg("cache evict")
}

func (c *lru) len() int { return c.ll.Len() }

func (c *lru) snapshot() Stats {
	s := c.stats
	s.Entries = c.ll.Len()
	return s
}
