// Package cache holds raw source images in a bounded, least-recently-used
// cache shared by all requests.
//
// # Keys
//
// Entries are keyed by a 64-bit FNV-1a hash of the normalized source URL.
// Collisions between distinct URLs are not detected: two URLs with the same
// hash share one entry. This is an accepted risk of the key scheme.
//
// # Variants
//
// Serialized holds one mutex across the whole lookup-fetch-insert sequence,
// so a slow origin blocks every other request, including hits and misses
// for unrelated URLs. SingleFlight holds the mutex only around cache
// bookkeeping and coordinates fetches per key: concurrent misses for the same
// key share one fetch, misses for different keys proceed in parallel.
//
// Both variants guarantee that a stored entry is never replaced while it is
// cached and that a failed fetch stores nothing.
//
// # Thread Safety
//
// All Cache implementations are safe for concurrent use. Returned byte slices
// are shared with the cache and must not be modified.
package cache

import (
	"context"
	"fmt"
	"hash/fnv"
	"net/url"
	"strings"

	"github.com/ironsheep/image-proxy/internal/origin"
)

// DefaultCapacity is the entry limit used when none is configured.
const DefaultCapacity = 100

// Cache resolves source bytes for a URL, fetching on a miss.
type Cache interface {
	// GetOrFetch returns the cached bytes for rawURL, or fetches them with f,
	// stores them and returns them. Fetch errors are returned unchanged and
	// nothing is stored.
	GetOrFetch(ctx context.Context, rawURL string, f origin.Fetcher) ([]byte, error)

	// Len returns the number of cached entries.
	Len() int

	// Stats returns a snapshot of the cache counters.
	Stats() Stats
}

// Stats are cumulative cache counters.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`    // fetches started
	Coalesced uint64 `json:"coalesced"` // requests that joined another request's fetch
	Evictions uint64 `json:"evictions"`
	Entries   int    `json:"entries"`
	Capacity  int    `json:"capacity"`
}

// Mode selects a Cache implementation.
type Mode string

const (
	ModeSerialized   Mode = "serialized"
	ModeSingleFlight Mode = "singleflight"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeSerialized, ModeSingleFlight:
		return m, nil
	default:
		return "", fmt.Errorf("unknown cache mode %q", s)
	}
}

// New returns a cache of the given mode and capacity.
func New(mode Mode, capacity int) (Cache, error) {
	switch mode {
	case ModeSerialized:
		return NewSerialized(capacity)
	case ModeSingleFlight:
		return NewSingleFlight(capacity)
	default:
		return nil, fmt.Errorf("unknown cache mode %q", mode)
	}
}

// NormalizeURL returns the form of rawURL that is hashed into a key.
//
// Surrounding whitespace and the fragment are removed and the scheme and
// host are lower-cased. Strings that do not parse as absolute URLs are only
// trimmed.
func NormalizeURL(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return s
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

// Key returns the cache key of rawURL.
func Key(rawURL string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(NormalizeURL(rawURL)))
	return h.Sum64()
}

func validateCapacity(capacity int) error {
	if capacity < 1 {
		return fmt.Errorf("cache capacity must be at least 1, got %d", capacity)
	}
	return nil
}
