package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/foxxcyber/nutrilog/internal/models"
)

// CachedCatalog memoizes catalog lookups for a short TTL. Flush must be
// called whenever the underlying foods change.
type CachedCatalog struct {
	next  Catalog
	cache *cache.Cache

	// generation is bumped by Flush so lookups that straddle a flush do
	// not store stale rows
	mu         sync.Mutex
	generation uint64
}

// NewCachedCatalog wraps a catalog with a lookup cache
func NewCachedCatalog(next Catalog, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (c *CachedCatalog) ExactMatch(ctx context.Context, name string) ([]models.Food, error) {
	return cachedLookup(c, "exact|"+name, func() ([]models.Food, error) {
		return c.next.ExactMatch(ctx, name)
	})
}

func (c *CachedCatalog) WholeWordMatch(ctx context.Context, name string) ([]models.Food, error) {
	return cachedLookup(c, "word|"+name, func() ([]models.Food, error) {
		return c.next.WholeWordMatch(ctx, name)
	})
}

func (c *CachedCatalog) FuzzyMatch(ctx context.Context, name string, threshold float64, limit int) ([]models.MatchCandidate, error) {
	key := fmt.Sprintf("fuzzy|%g|%d|%s", threshold, limit, name)
	return cachedLookup(c, key, func() ([]models.MatchCandidate, error) {
		return c.next.FuzzyMatch(ctx, name, threshold, limit)
	})
}

// Flush drops every cached lookup
func (c *CachedCatalog) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.cache.Flush()
}

func (c *CachedCatalog) currentGeneration() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// store caches rows unless a flush happened since generation was read
func (c *CachedCatalog) store(key string, rows any, generation uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation == generation {
		c.cache.SetDefault(key, rows)
	}
}

// Errors are never cached.
func cachedLookup[T any](c *CachedCatalog, key string, lookup func() ([]T, error)) ([]T, error) {
	if v, ok := c.cache.Get(key); ok {
		if rows, ok := v.([]T); ok {
			catalogCacheTotal.WithLabelValues("hit").Inc()
			return rows, nil
		}
	}
	catalogCacheTotal.WithLabelValues("miss").Inc()

	generation := c.currentGeneration()
	rows, err := lookup()
	if err != nil {
		return nil, err
	}

	c.store(key, rows, generation)
	return rows, nil
}
