// Package bundlecache deduplicates persona-bundle reads within one
// formation request, so each actor hits the roster store at most once no
// matter how many trials touch them.
package bundlecache

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/internal/domain/scoring"
)

// Default cache configuration constants.
const (
	defaultMaxSize = 10_000
)

// Cache is a read-through bundle source. Lookups fill from the underlying
// source on miss, including negative (empty-bundle) results.
type Cache interface {
	scoring.BundleSource

	// Size returns the current number of cached actors.
	Size() int64
}

// Option applies a configuration option to the inMemoryCache.
type Option func(*inMemoryCache)

// WithMaxSize bounds the number of cached actors. A cache sized for one
// request never evicts in practice; the bound guards pathological rosters.
// maxSize <= 0 means unbounded.
func WithMaxSize(maxSize int) Option {
	return func(c *inMemoryCache) {
		c.maxSize = maxSize
	}
}

// inMemoryCache implements Cache with a mutex-guarded map and FIFO
// eviction through an insertion-ordered key list.
type inMemoryCache struct {
	mu      sync.RWMutex
	source  scoring.BundleSource
	entries map[string]model.PersonaBundle
	order   []string
	maxSize int
	size    atomic.Int64
}

// New creates a read-through cache over source with configuration options.
func New(source scoring.BundleSource, opts ...Option) Cache {
	c := &inMemoryCache{
		source:  source,
		entries: make(map[string]model.PersonaBundle),
		maxSize: defaultMaxSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BundleFor returns the actor's bundle, reading through to the source on
// the first lookup. Source errors are not cached so a transient failure
// can recover on the next lookup.
func (c *inMemoryCache) BundleFor(ctx context.Context, actorID string) (model.PersonaBundle, error) {
	c.mu.RLock()
	if b, ok := c.entries[actorID]; ok {
		c.mu.RUnlock()
		return b, nil
	}
	c.mu.RUnlock()

	b, err := c.source.BundleFor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Another goroutine may have filled this actor meanwhile.
	if cached, ok := c.entries[actorID]; ok {
		return cached, nil
	}
	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[actorID] = b
	c.order = append(c.order, actorID)
	c.size.Add(1)
	return b, nil
}

// evictOldest drops the earliest-inserted entry. Must be called with the
// write lock held.
func (c *inMemoryCache) evictOldest() {
	for len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		if _, ok := c.entries[oldest]; ok {
			delete(c.entries, oldest)
			c.size.Add(-1)
			return
		}
	}
}

// Size returns the current number of cached actors.
func (c *inMemoryCache) Size() int64 {
	return c.size.Load()
}
