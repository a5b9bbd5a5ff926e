package search

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/vmunix/vodgate/internal/media"
)

// SecondTier is an optional shared cache behind the in-memory tier.
type SecondTier interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type cacheEntry struct {
	items   []media.SearchResult
	expires time.Time
}

// sharedEntry is the second-tier payload. It carries the absolute expiry so
// an entry read back from the shared tier keeps its original deadline.
type sharedEntry struct {
	Expires time.Time            `json:"expires"`
	Items   []media.SearchResult `json:"items"`
}

// Cache holds merged search results keyed by (keyword, mode, source).
// Entries expire by TTL on lookup. When the entry cap is reached the
// in-memory tier is cleared wholesale. A nil *Cache is a no-op cache.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	ttl        time.Duration
	maxEntries int
	l2         SecondTier
	log        *slog.Logger
	now        func() time.Time
}

// NewCache creates a cache. l2 may be nil.
func NewCache(ttl time.Duration, maxEntries int, l2 SecondTier, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		entries:    make(map[string]cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		l2:         l2,
		log:        logger.With("component", "search-cache"),
		now:        time.Now,
	}
}

func cacheKey(parts ...string) string {
	joined := strings.Join(parts, "|")
	hash := sha256.Sum256([]byte(strings.ToLower(joined)))
	return fmt.Sprintf("vodgate:search:%x", hash[:12])
}

// Get returns a copy of the cached items for key.
func (c *Cache) Get(ctx context.Context, key string) ([]media.SearchResult, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok && c.now().After(entry.expires) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()
	if ok {
		return slices.Clone(entry.items), true
	}

	if c.l2 == nil {
		return nil, false
	}
	data, err := c.l2.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var shared sharedEntry
	if err := json.Unmarshal(data, &shared); err != nil || len(shared.Items) == 0 {
		return nil, false
	}
	if c.now().After(shared.Expires) {
		return nil, false
	}
	c.setLocal(key, shared.Items, shared.Expires)
	return slices.Clone(shared.Items), true
}

// Set stores items under key in both tiers. Empty results are not cached.
func (c *Cache) Set(ctx context.Context, key string, items []media.SearchResult) {
	if c == nil || len(items) == 0 {
		return
	}
	items = slices.Clone(items)
	expires := c.now().Add(c.ttl)
	c.setLocal(key, items, expires)

	if c.l2 == nil {
		return
	}
	data, err := json.Marshal(sharedEntry{Expires: expires, Items: items})
	if err != nil {
		return
	}
	if err := c.l2.Set(ctx, key, data, c.ttl); err != nil {
		c.log.Debug("second tier set failed", "error", err)
	}
}

func (c *Cache) setLocal(key string, items []media.SearchResult, expires time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.log.Debug("cache full, clearing", "entries", len(c.entries))
		clear(c.entries)
	}
	c.entries[key] = cacheEntry{
		items:   items,
		expires: expires,
	}
}

// Len returns the number of in-memory entries, including expired ones not yet looked up.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
