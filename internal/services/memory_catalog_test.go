package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxxcyber/nutrilog/internal/models"
)

func TestMemoryCatalogExactMatch(t *testing.T) {
	t.Parallel()

	catalog := NewMemoryCatalog(
		food(1, "Halfvolle Melk", 46, nil),
		food(2, "half-volle melk", 46, nil),
		food(3, "Halfvolle melk light", 35, nil),
	)

	foods, err := catalog.ExactMatch(t.Context(), "halfvolle melk")
	require.NoError(t, err)

	require.Len(t, foods, 2)
	assert.Equal(t, 1, foods[0].ID)
	assert.Equal(t, 2, foods[1].ID)
}

func TestMemoryCatalogWholeWordMatch(t *testing.T) {
	t.Parallel()

	catalog := NewMemoryCatalog(
		food(1, "Appel", 52, nil),
		food(2, "Appel (groen)", 50, nil),
		food(3, "Appelmoes", 70, nil),
		food(4, "Stoofpeer met appel", 80, nil),
	)

	foods, err := catalog.WholeWordMatch(t.Context(), "appel")
	require.NoError(t, err)

	var ids []int
	for _, f := range foods {
		ids = append(ids, f.ID)
	}
	assert.Equal(t, []int{2, 4}, ids, "exact and compound names excluded")
}

func TestMemoryCatalogFuzzyMatch(t *testing.T) {
	t.Parallel()

	catalog := NewMemoryCatalog(fixtureFoods()...)

	matches, err := catalog.FuzzyMatch(t.Context(), "appel", FuzzyThreshold, 10)
	require.NoError(t, err)

	require.Len(t, matches, 2)
	assert.Equal(t, "Appel", matches[0].Food.Name)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-9)
	assert.Equal(t, "Appelmoes", matches[1].Food.Name)

	limited, err := catalog.FuzzyMatch(t.Context(), "appel", FuzzyThreshold, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestMemoryCatalogAddReplacesByID(t *testing.T) {
	t.Parallel()

	catalog := NewMemoryCatalog(food(1, "Appel", 52, nil))
	catalog.Add(food(1, "Peer", 57, nil))

	assert.Equal(t, 1, catalog.Len())

	foods, err := catalog.ExactMatch(t.Context(), "peer")
	require.NoError(t, err)
	require.Len(t, foods, 1)

	foods, err = catalog.ExactMatch(t.Context(), "appel")
	require.NoError(t, err)
	assert.Empty(t, foods)
}

func TestMemoryCatalogHonoursContext(t *testing.T) {
	t.Parallel()

	catalog := NewMemoryCatalog(fixtureFoods()...)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := catalog.ExactMatch(ctx, "appel")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = catalog.WholeWordMatch(ctx, "appel")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = catalog.FuzzyMatch(ctx, "appel", FuzzyThreshold, 5)
	assert.ErrorIs(t, err, context.Canceled)
}

var _ Catalog = (*MemoryCatalog)(nil)
var _ Catalog = (*CachedCatalog)(nil)

func TestMemoryCatalogFoodsAreCopies(t *testing.T) {
	t.Parallel()

	catalog := NewMemoryCatalog(food(1, "Appel", 52, nil))

	foods, err := catalog.ExactMatch(t.Context(), "appel")
	require.NoError(t, err)
	foods[0].Name = "changed"

	again, err := catalog.ExactMatch(t.Context(), "appel")
	require.NoError(t, err)
	assert.Equal(t, "Appel", again[0].Name)
	assert.IsType(t, models.Food{}, again[0])
}
