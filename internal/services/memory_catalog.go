package services

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/foxxcyber/nutrilog/internal/models"
)

type indexedFood struct {
	food       models.Food
	normalized string
	trigrams   trigramSet
}

// MemoryCatalog is an in-memory Catalog with a trigram index. It backs
// fixtures, the seeder dry run and tests.
type MemoryCatalog struct {
	mu    sync.RWMutex
	foods []indexedFood
}

// NewMemoryCatalog creates a catalog holding the given foods
func NewMemoryCatalog(foods ...models.Food) *MemoryCatalog {
	c := &MemoryCatalog{}
	c.Add(foods...)
	return c
}

// Add indexes foods. A food with an id already present replaces it.
func (c *MemoryCatalog) Add(foods ...models.Food) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, f := range foods {
		normalized := NormalizeFoodName(f.Name)
		entry := indexedFood{
			food:       f,
			normalized: normalized,
			trigrams:   newTrigramSet(normalized),
		}

		idx := slices.IndexFunc(c.foods, func(e indexedFood) bool { return e.food.ID == f.ID })
		if idx >= 0 {
			c.foods[idx] = entry
			continue
		}
		c.foods = append(c.foods, entry)
	}
}

// Len returns the number of foods in the catalog
func (c *MemoryCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.foods)
}

func (c *MemoryCatalog) ExactMatch(ctx context.Context, name string) ([]models.Food, error) {
	return c.filter(ctx, func(e indexedFood) bool {
		return e.normalized == name
	})
}

func (c *MemoryCatalog) WholeWordMatch(ctx context.Context, name string) ([]models.Food, error) {
	return c.filter(ctx, func(e indexedFood) bool {
		return e.normalized != name && containsWholeWord(e.normalized, name)
	})
}

func (c *MemoryCatalog) FuzzyMatch(ctx context.Context, name string, threshold float64, limit int) ([]models.MatchCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := newTrigramSet(name)

	c.mu.RLock()
	var matches []models.MatchCandidate
	for _, e := range c.foods {
		score := query.similarity(e.trigrams)
		if score > threshold || strings.Contains(e.normalized, name) {
			matches = append(matches, models.MatchCandidate{
				Food:  e.food,
				Score: score,
				Tier:  models.TierFuzzy,
			})
		}
	}
	c.mu.RUnlock()

	slices.SortFunc(matches, func(a, b models.MatchCandidate) int {
		if n := cmp.Compare(b.Score, a.Score); n != 0 {
			return n
		}
		return cmp.Compare(a.Food.ID, b.Food.ID)
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (c *MemoryCatalog) filter(ctx context.Context, keep func(indexedFood) bool) ([]models.Food, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var foods []models.Food
	for _, e := range c.foods {
		if keep(e) {
			foods = append(foods, e.food)
		}
	}

	slices.SortFunc(foods, func(a, b models.Food) int { return cmp.Compare(a.ID, b.ID) })
	return foods, nil
}
