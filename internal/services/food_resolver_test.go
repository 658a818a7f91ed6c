package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/foxxcyber/nutrilog/internal/config"
	"github.com/foxxcyber/nutrilog/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// go-cache starts a janitor that cannot be stopped
		goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"),
	)
}

func ptr[T any](v T) *T {
	return &v
}

func food(id int, name string, kcal float64, gramsPerPortion *float64) models.Food {
	return models.Food{
		ID:              id,
		Name:            name,
		Type:            models.MealSnack,
		KcalPer100:      kcal,
		GramsPerPortion: gramsPerPortion,
		Unit:            models.UnitGram,
	}
}

func fixtureFoods() []models.Food {
	appel := food(1, "Appel", 52, ptr(150.0))
	appel.ProteinPer100 = ptr(0.3)

	return []models.Food{
		appel,
		food(2, "Appelmoes", 70, nil),
		food(3, "Volkoren boterham", 250, ptr(35.0)),
		food(4, "Banaan", 89, ptr(120.0)),
		food(5, "Halfvolle melk", 46, ptr(250.0)),
		food(6, "Pindakaas", 600, nil),
	}
}

func testConfig() *config.Config {
	return &config.Config{
		ResolverConcurrency:   4,
		ResolverLookupTimeout: time.Second,
	}
}

func newTestResolver(catalog Catalog) *FoodResolver {
	return NewFoodResolver(catalog, testConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func names(candidates []models.MatchCandidate) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.Food.Name)
	}
	return out
}

// failingCatalog returns err from every lookup
type failingCatalog struct {
	err error
}

func (c failingCatalog) ExactMatch(context.Context, string) ([]models.Food, error) {
	return nil, c.err
}

func (c failingCatalog) WholeWordMatch(context.Context, string) ([]models.Food, error) {
	return nil, c.err
}

func (c failingCatalog) FuzzyMatch(context.Context, string, float64, int) ([]models.MatchCandidate, error) {
	return nil, c.err
}

// blockingCatalog waits until the context ends
type blockingCatalog struct{}

func (blockingCatalog) ExactMatch(ctx context.Context, _ string) ([]models.Food, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingCatalog) WholeWordMatch(ctx context.Context, _ string) ([]models.Food, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingCatalog) FuzzyMatch(ctx context.Context, _ string, _ float64, _ int) ([]models.MatchCandidate, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// delayedCatalog delays exact lookups per name to shuffle completion order
type delayedCatalog struct {
	*MemoryCatalog
	delays map[string]time.Duration
}

func (c delayedCatalog) ExactMatch(ctx context.Context, name string) ([]models.Food, error) {
	select {
	case <-time.After(c.delays[name]):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return c.MemoryCatalog.ExactMatch(ctx, name)
}

// fuzzyStub returns canned fuzzy rows and nothing for the other tiers
type fuzzyStub struct {
	exact     []models.Food
	rows      []models.MatchCandidate
	lastLimit atomic.Int64
}

func (s *fuzzyStub) ExactMatch(context.Context, string) ([]models.Food, error) {
	return s.exact, nil
}

func (s *fuzzyStub) WholeWordMatch(context.Context, string) ([]models.Food, error) {
	return nil, nil
}

func (s *fuzzyStub) FuzzyMatch(_ context.Context, _ string, _ float64, limit int) ([]models.MatchCandidate, error) {
	s.lastLimit.Store(int64(limit))
	return s.rows, nil
}

func TestSearchTiers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		catalog    []models.Food
		query      string
		wantNames  []string
		wantScores []float64
		wantTiers  []models.MatchTier
	}{
		{
			name:       "exact match only",
			catalog:    []models.Food{food(1, "Appel", 52, nil)},
			query:      "appel",
			wantNames:  []string{"Appel"},
			wantScores: []float64{1.0},
			wantTiers:  []models.MatchTier{models.TierExact},
		},
		{
			name:       "exact is not repeated by fuzzy",
			catalog:    fixtureFoods(),
			query:      "Appel",
			wantNames:  []string{"Appel", "Appelmoes"},
			wantScores: []float64{1.0, 5.0 / 11.0},
			wantTiers:  []models.MatchTier{models.TierExact, models.TierFuzzy},
		},
		{
			name:       "whole word beats fuzzy score",
			catalog:    fixtureFoods(),
			query:      "boterham",
			wantNames:  []string{"Volkoren boterham"},
			wantScores: []float64{WholeWordScore},
			wantTiers:  []models.MatchTier{models.TierWholeWord},
		},
		{
			name:       "fuzzy only, best first",
			catalog:    []models.Food{food(2, "Appelmoes", 70, nil), food(1, "Appel", 52, nil)},
			query:      "appels",
			wantNames:  []string{"Appel", "Appelmoes"},
			wantScores: []float64{5.0 / 8.0, 5.0 / 12.0},
			wantTiers:  []models.MatchTier{models.TierFuzzy, models.TierFuzzy},
		},
		{
			name:       "substring hit below threshold",
			catalog:    []models.Food{food(7, "Chocoladevlokken puur", 500, nil)},
			query:      "vlok",
			wantNames:  []string{"Chocoladevlokken puur"},
			wantTiers:  []models.MatchTier{models.TierFuzzy},
			wantScores: []float64{TrigramSimilarity("vlok", "chocoladevlokken puur")},
		},
		{
			name:    "no overlap",
			catalog: fixtureFoods(),
			query:   "pizza",
		},
		{
			name:    "empty query",
			catalog: fixtureFoods(),
			query:   " ( ) ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resolver := newTestResolver(NewMemoryCatalog(tt.catalog...))
			candidates, err := resolver.Search(t.Context(), tt.query)
			require.NoError(t, err)

			if len(tt.wantNames) == 0 {
				assert.Empty(t, candidates)
				return
			}

			assert.Equal(t, tt.wantNames, names(candidates))
			for i, c := range candidates {
				assert.InDelta(t, tt.wantScores[i], c.Score, 1e-9, c.Food.Name)
				assert.Equal(t, tt.wantTiers[i], c.Tier, c.Food.Name)
			}
		})
	}
}

func TestSearchDeduplicatesAcrossTiers(t *testing.T) {
	t.Parallel()

	appel := food(1, "Appel", 52, nil)
	stub := &fuzzyStub{
		exact: []models.Food{appel},
		rows: []models.MatchCandidate{
			{Food: appel, Score: 1.0},
			{Food: food(2, "Appelmoes", 70, nil), Score: 0.45},
		},
	}

	candidates, err := newTestResolver(stub).Search(t.Context(), "appel")
	require.NoError(t, err)

	require.Len(t, candidates, 2)
	assert.Equal(t, 1, candidates[0].Food.ID)
	assert.Equal(t, models.TierExact, candidates[0].Tier)
	assert.Equal(t, ExactScore, candidates[0].Score)
	assert.Equal(t, 2, candidates[1].Food.ID)

	// one extra row requested for the food already matched
	assert.EqualValues(t, MaxCandidates+1, stub.lastLimit.Load())
}

func TestSearchCapsFuzzyTier(t *testing.T) {
	t.Parallel()

	var rows []models.MatchCandidate
	for i := 1; i <= 8; i++ {
		rows = append(rows, models.MatchCandidate{
			Food:  food(i, fmt.Sprintf("kaas %d", i), 350, nil),
			Score: 0.3 + float64(i)/100,
		})
	}

	candidates, err := newTestResolver(&fuzzyStub{rows: rows}).Search(t.Context(), "kaas")
	require.NoError(t, err)

	require.Len(t, candidates, MaxCandidates)
	assert.Equal(t, 8, candidates[0].Food.ID)
	assert.Equal(t, 4, candidates[MaxCandidates-1].Food.ID)
}

func TestSearchLookupFailure(t *testing.T) {
	t.Parallel()

	dbErr := errors.New("connection refused")
	_, err := newTestResolver(failingCatalog{err: dbErr}).Search(t.Context(), "appel")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLookupFailed)
	assert.ErrorIs(t, err, dbErr)
}

func TestClassifyCandidates(t *testing.T) {
	t.Parallel()

	cand := func(id int, score float64) models.MatchCandidate {
		return models.MatchCandidate{Food: food(id, fmt.Sprintf("food %d", id), 100, nil), Score: score}
	}

	tests := []struct {
		name       string
		candidates []models.MatchCandidate
		wantStatus models.ResolutionStatus
		wantMatch  int
		wantIDs    []int
	}{
		{name: "empty", wantStatus: models.StatusNoMatch},
		{
			name:       "single exact",
			candidates: []models.MatchCandidate{cand(1, 1.0)},
			wantStatus: models.StatusMatched,
			wantMatch:  1,
		},
		{
			name:       "one strong among weak",
			candidates: []models.MatchCandidate{cand(2, 0.4), cand(1, 0.95), cand(3, 0.35)},
			wantStatus: models.StatusMatched,
			wantMatch:  1,
		},
		{
			name:       "strong boundary",
			candidates: []models.MatchCandidate{cand(1, 0.7), cand(2, 0.69)},
			wantStatus: models.StatusMatched,
			wantMatch:  1,
		},
		{
			name:       "lone weak candidate",
			candidates: []models.MatchCandidate{cand(1, 0.31)},
			wantStatus: models.StatusMatched,
			wantMatch:  1,
		},
		{
			name:       "two strong",
			candidates: []models.MatchCandidate{cand(1, 0.95), cand(2, 1.0)},
			wantStatus: models.StatusAmbiguous,
			wantIDs:    []int{2, 1},
		},
		{
			name:       "two weak",
			candidates: []models.MatchCandidate{cand(1, 0.4), cand(2, 0.6)},
			wantStatus: models.StatusAmbiguous,
			wantIDs:    []int{2, 1},
		},
		{
			name: "ambiguous capped at five",
			candidates: []models.MatchCandidate{
				cand(1, 0.31), cand(2, 0.32), cand(3, 0.33), cand(4, 0.34),
				cand(5, 0.35), cand(6, 0.36), cand(7, 0.37),
			},
			wantStatus: models.StatusAmbiguous,
			wantIDs:    []int{7, 6, 5, 4, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ClassifyCandidates(tt.candidates)
			assert.Equal(t, tt.wantStatus, got.Status)

			if tt.wantMatch != 0 {
				require.NotNil(t, got.Match)
				assert.Equal(t, tt.wantMatch, got.Match.Food.ID)
			} else {
				assert.Nil(t, got.Match)
			}

			var ids []int
			for _, c := range got.Candidates {
				ids = append(ids, c.Food.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestClassifyAmbiguousFromCatalog(t *testing.T) {
	t.Parallel()

	catalog := NewMemoryCatalog(food(1, "Appel", 52, nil), food(2, "Appelmoes", 70, nil))
	candidates, err := newTestResolver(catalog).Search(t.Context(), "appels")
	require.NoError(t, err)

	got := ClassifyCandidates(candidates)
	assert.Equal(t, models.StatusAmbiguous, got.Status)
	assert.Equal(t, []string{"Appel", "Appelmoes"}, names(got.Candidates))
	assert.Greater(t, got.Candidates[0].Score, got.Candidates[1].Score)
}

func TestResolveQuantity(t *testing.T) {
	t.Parallel()

	withPortion := food(1, "Appel", 52, ptr(150.0))
	noPortion := food(2, "Pindakaas", 600, nil)

	tests := []struct {
		name     string
		food     models.Food
		grams    *float64
		quantity *float64
		want     *float64
	}{
		{name: "quantity times portion", food: withPortion, quantity: ptr(2.0), want: ptr(300.0)},
		{name: "explicit grams win", food: withPortion, grams: ptr(SanitizeOrZero("120g")), quantity: ptr(2.0), want: ptr(120.0)},
		{name: "explicit zero grams", food: withPortion, grams: ptr(0.0), quantity: ptr(2.0), want: ptr(0.0)},
		{name: "grams without portion", food: noPortion, grams: ptr(30.0), want: ptr(30.0)},
		{name: "quantity without portion", food: noPortion, quantity: ptr(2.0)},
		{name: "nothing known", food: withPortion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ResolveQuantity(tt.food, tt.grams, tt.quantity)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestComputeNutrition(t *testing.T) {
	t.Parallel()

	f := food(1, "Kwark", 60, nil)
	f.ProteinPer100 = ptr(10.0)
	f.SugarPer100 = ptr(4.0)

	got := ComputeNutrition(f, 250)

	assert.InDelta(t, 150.0, got.Kcal, 1e-9)
	require.NotNil(t, got.Protein)
	assert.InDelta(t, 25.0, *got.Protein, 1e-9)
	require.NotNil(t, got.Sugar)
	assert.InDelta(t, 10.0, *got.Sugar, 1e-9)
	assert.Nil(t, got.Fats, "unknown macros stay unknown")
}

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		item         models.ExtractedItem
		wantStatus   models.ResolutionStatus
		wantFood     string
		wantGrams    *float64
		wantKcal     float64
		wantQuantity *float64
	}{
		{
			name:         "count from name",
			item:         models.ExtractedItem{Name: "2 Banaan"},
			wantStatus:   models.StatusMatched,
			wantFood:     "Banaan",
			wantGrams:    ptr(240.0),
			wantKcal:     213.6,
			wantQuantity: ptr(2.0),
		},
		{
			name:         "upstream quantity wins over name count",
			item:         models.ExtractedItem{Name: "2 banaan", Quantity: models.NewLooseNumber("3")},
			wantStatus:   models.StatusMatched,
			wantFood:     "Banaan",
			wantGrams:    ptr(360.0),
			wantKcal:     320.4,
			wantQuantity: ptr(3.0),
		},
		{
			name:         "explicit grams string",
			item:         models.ExtractedItem{Name: "appel", Grams: models.NewLooseNumber("120g"), Quantity: models.NewLooseNumber("2")},
			wantStatus:   models.StatusMatched,
			wantFood:     "Appel",
			wantGrams:    ptr(120.0),
			wantKcal:     62.4,
			wantQuantity: ptr(2.0),
		},
		{
			name:         "malformed quantity falls back to name count",
			item:         models.ExtractedItem{Name: "Halfvolle melk", Quantity: models.NewLooseNumber("een glas")},
			wantStatus:   models.StatusMatched,
			wantFood:     "Halfvolle melk",
			wantGrams:    ptr(250.0),
			wantKcal:     115,
			wantQuantity: ptr(1.0),
		},
		{
			name:         "negative grams are ignored",
			item:         models.ExtractedItem{Name: "appel", Grams: models.NewLooseNumber("-200")},
			wantStatus:   models.StatusMatched,
			wantFood:     "Appel",
			wantGrams:    ptr(150.0),
			wantKcal:     78,
			wantQuantity: ptr(1.0),
		},
		{
			name:         "negative quantity falls back to name count",
			item:         models.ExtractedItem{Name: "2 banaan", Quantity: models.NewLooseNumber("-3")},
			wantStatus:   models.StatusMatched,
			wantFood:     "Banaan",
			wantGrams:    ptr(240.0),
			wantKcal:     213.6,
			wantQuantity: ptr(2.0),
		},
		{
			name:         "negative grams without portion",
			item:         models.ExtractedItem{Name: "pindakaas", Grams: models.NewLooseNumber("-30")},
			wantStatus:   models.StatusMissingQuantity,
			wantFood:     "Pindakaas",
			wantQuantity: ptr(1.0),
		},
		{
			name:         "no portion size",
			item:         models.ExtractedItem{Name: "pindakaas"},
			wantStatus:   models.StatusMissingQuantity,
			wantFood:     "Pindakaas",
			wantQuantity: ptr(1.0),
		},
		{
			name:       "ambiguous",
			item:       models.ExtractedItem{Name: "appels"},
			wantStatus: models.StatusAmbiguous,
		},
		{
			name:       "no match",
			item:       models.ExtractedItem{Name: "pizza"},
			wantStatus: models.StatusNoMatch,
		},
	}

	resolver := newTestResolver(NewMemoryCatalog(fixtureFoods()...))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := resolver.Resolve(t.Context(), tt.item)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, tt.item.Name, res.Input)

			if tt.wantFood == "" {
				assert.Nil(t, res.Food)
			} else {
				require.NotNil(t, res.Food)
				assert.Equal(t, tt.wantFood, res.Food.Name)
			}

			if tt.wantQuantity == nil {
				assert.Nil(t, res.Quantity)
			} else {
				require.NotNil(t, res.Quantity)
				assert.InDelta(t, *tt.wantQuantity, *res.Quantity, 1e-9)
			}

			if tt.wantGrams == nil {
				assert.Nil(t, res.Grams)
				assert.Nil(t, res.Nutrition)
				return
			}
			require.NotNil(t, res.Grams)
			assert.InDelta(t, *tt.wantGrams, *res.Grams, 1e-9)
			require.NotNil(t, res.Nutrition)
			assert.InDelta(t, tt.wantKcal, res.Nutrition.Kcal, 1e-9)
		})
	}
}

func TestResolveNoMatchCarriesEstimate(t *testing.T) {
	t.Parallel()

	resolver := newTestResolver(NewMemoryCatalog(fixtureFoods()...))

	res, err := resolver.Resolve(t.Context(), models.ExtractedItem{
		Name:             "pizza margherita",
		EstimatedKcal:    models.NewLooseNumber("850 kcal"),
		EstimatedProtein: models.NewLooseNumber("32,5"),
		EstimatedSugar:   models.NewLooseNumber("onbekend"),
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusNoMatch, res.Status)
	require.NotNil(t, res.Estimate)
	assert.InDelta(t, 850.0, res.Estimate.Kcal, 1e-9)
	require.NotNil(t, res.Estimate.Protein)
	assert.InDelta(t, 32.5, *res.Estimate.Protein, 1e-9)
	assert.Nil(t, res.Estimate.Fats)
	assert.Nil(t, res.Estimate.Sugar)

	res, err = resolver.Resolve(t.Context(), models.ExtractedItem{Name: "pizza"})
	require.NoError(t, err)
	assert.Nil(t, res.Estimate, "no estimate without upstream kcal")

	res, err = resolver.Resolve(t.Context(), models.ExtractedItem{Name: "pizza", EstimatedKcal: models.NewLooseNumber("-850")})
	require.NoError(t, err)
	assert.Nil(t, res.Estimate, "negative kcal is not an estimate")
}

func TestResolveBatchPreservesOrder(t *testing.T) {
	t.Parallel()

	foods := make([]models.Food, 0, 20)
	delays := make(map[string]time.Duration)
	items := make([]models.ExtractedItem, 0, 20)
	for i := 1; i <= 20; i++ {
		name := fmt.Sprintf("product %02d", i)
		foods = append(foods, food(i, name, float64(i*10), ptr(100.0)))
		// earlier items finish last
		delays[name] = time.Duration(21-i) * time.Millisecond
		items = append(items, models.ExtractedItem{Name: name})
	}

	catalog := delayedCatalog{MemoryCatalog: NewMemoryCatalog(foods...), delays: delays}
	results, err := newTestResolver(catalog).ResolveBatch(t.Context(), items)
	require.NoError(t, err)

	require.Len(t, results, len(items))
	for i, res := range results {
		assert.Equal(t, items[i].Name, res.Input)
		require.NotNil(t, res.Food, items[i].Name)
		assert.Equal(t, i+1, res.Food.ID)
	}
}

func TestResolveBatchEmpty(t *testing.T) {
	t.Parallel()

	results, err := newTestResolver(NewMemoryCatalog()).ResolveBatch(t.Context(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestResolveBatchLookupFailure(t *testing.T) {
	t.Parallel()

	items := []models.ExtractedItem{{Name: "appel"}, {Name: "banaan"}}
	results, err := newTestResolver(failingCatalog{err: errors.New("pool closed")}).ResolveBatch(t.Context(), items)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLookupFailed)
	assert.Nil(t, results, "never downgraded to no_match")
}

func TestResolveBatchTimeout(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.ResolverLookupTimeout = 20 * time.Millisecond
	resolver := NewFoodResolver(blockingCatalog{}, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	start := time.Now()
	_, err := resolver.ResolveBatch(t.Context(), []models.ExtractedItem{{Name: "appel"}})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLookupFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestInvalidateFlushesCache(t *testing.T) {
	t.Parallel()

	memory := NewMemoryCatalog(food(1, "Appel", 52, nil))
	resolver := newTestResolver(NewCachedCatalog(memory, time.Minute))

	res, err := resolver.Resolve(t.Context(), models.ExtractedItem{Name: "peer"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusNoMatch, res.Status)

	memory.Add(food(2, "Peer", 57, ptr(180.0)))

	res, err = resolver.Resolve(t.Context(), models.ExtractedItem{Name: "peer"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusNoMatch, res.Status, "stale until invalidated")

	resolver.Invalidate()

	res, err = resolver.Resolve(t.Context(), models.ExtractedItem{Name: "peer"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusMatched, res.Status)
}
