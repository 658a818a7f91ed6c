package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/foxxcyber/nutrilog/internal/config"
	"github.com/foxxcyber/nutrilog/internal/models"
)

const (
	ExactScore     = 1.0
	WholeWordScore = 0.95

	// FuzzyThreshold is the minimum trigram similarity for the fuzzy tier
	FuzzyThreshold = 0.3
	// StrongScore is the minimum score of a candidate that wins on its own
	StrongScore = 0.7
	// MaxCandidates caps the fuzzy tier and ambiguous results
	MaxCandidates = 5
)

// ErrLookupFailed means the catalog could not be searched. It is never a
// "no match": callers must surface it as a server side failure.
var ErrLookupFailed = errors.New("catalog lookup failed")

// Catalog is the read-only food source searched by the resolver. Every
// method receives an already normalized name.
type Catalog interface {
	// ExactMatch returns foods whose normalized name equals name
	ExactMatch(ctx context.Context, name string) ([]models.Food, error)
	// WholeWordMatch returns foods whose normalized name contains name
	// delimited by word boundaries
	WholeWordMatch(ctx context.Context, name string) ([]models.Food, error)
	// FuzzyMatch returns foods whose trigram similarity with name is above
	// threshold or whose normalized name contains name, best first
	FuzzyMatch(ctx context.Context, name string, threshold float64, limit int) ([]models.MatchCandidate, error)
}

// FoodResolver matches extracted food mentions against the catalog
type FoodResolver struct {
	catalog       Catalog
	logger        *slog.Logger
	concurrency   int
	lookupTimeout time.Duration
}

// NewFoodResolver creates a new food resolver
func NewFoodResolver(catalog Catalog, cfg *config.Config, logger *slog.Logger) *FoodResolver {
	concurrency := cfg.ResolverConcurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &FoodResolver{
		catalog:       catalog,
		logger:        logger.With(slog.String("component", "food_resolver")),
		concurrency:   concurrency,
		lookupTimeout: cfg.ResolverLookupTimeout,
	}
}

// Search runs the exact, whole-word and fuzzy tiers in that order and
// unions the results. A food found by several tiers keeps its first score.
func (r *FoodResolver) Search(ctx context.Context, name string) ([]models.MatchCandidate, error) {
	normalized := NormalizeFoodName(name)
	if normalized == "" {
		return nil, nil
	}

	var candidates []models.MatchCandidate
	seen := make(map[int]bool)
	add := func(c models.MatchCandidate) bool {
		if seen[c.Food.ID] {
			return false
		}
		seen[c.Food.ID] = true
		candidates = append(candidates, c)
		return true
	}

	exact, err := timedLookup(ctx, r, models.TierExact, func(ctx context.Context) ([]models.Food, error) {
		return r.catalog.ExactMatch(ctx, normalized)
	})
	if err != nil {
		return nil, err
	}
	for _, f := range exact {
		add(models.MatchCandidate{Food: f, Score: ExactScore, Tier: models.TierExact})
	}

	wholeWord, err := timedLookup(ctx, r, models.TierWholeWord, func(ctx context.Context) ([]models.Food, error) {
		return r.catalog.WholeWordMatch(ctx, normalized)
	})
	if err != nil {
		return nil, err
	}
	for _, f := range wholeWord {
		add(models.MatchCandidate{Food: f, Score: WholeWordScore, Tier: models.TierWholeWord})
	}

	// Ask for enough rows that already matched foods cannot crowd out
	// fresh fuzzy candidates.
	fuzzy, err := timedLookup(ctx, r, models.TierFuzzy, func(ctx context.Context) ([]models.MatchCandidate, error) {
		return r.catalog.FuzzyMatch(ctx, normalized, FuzzyThreshold, MaxCandidates+len(seen))
	})
	if err != nil {
		return nil, err
	}
	fuzzy = slices.Clone(fuzzy)
	slices.SortStableFunc(fuzzy, func(a, b models.MatchCandidate) int {
		return cmp.Compare(b.Score, a.Score)
	})
	added := 0
	for _, c := range fuzzy {
		if added == MaxCandidates {
			break
		}
		c.Tier = models.TierFuzzy
		if add(c) {
			added++
		}
	}

	return candidates, nil
}

func timedLookup[T any](ctx context.Context, r *FoodResolver, tier models.MatchTier, lookup func(context.Context) ([]T, error)) ([]T, error) {
	start := time.Now()
	rows, err := lookup(ctx)
	lookupSeconds.WithLabelValues(string(tier)).Observe(time.Since(start).Seconds())

	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		lookupFailuresTotal.WithLabelValues(string(tier)).Inc()
		r.logger.Warn("catalog lookup failed",
			slog.String("tier", string(tier)),
			slog.Any("error", err))
		return nil, fmt.Errorf("%w: %s tier: %w", ErrLookupFailed, tier, err)
	}

	return rows, nil
}

// Classification is the verdict over a candidate list
type Classification struct {
	Status     models.ResolutionStatus
	Match      *models.MatchCandidate
	Candidates []models.MatchCandidate
}

// ClassifyCandidates decides between matched, ambiguous and no_match.
// A single strong candidate wins even next to weak ones; a lone candidate
// wins whatever its score; anything else is ambiguous.
func ClassifyCandidates(candidates []models.MatchCandidate) Classification {
	if len(candidates) == 0 {
		return Classification{Status: models.StatusNoMatch}
	}

	var strong []models.MatchCandidate
	for _, c := range candidates {
		if c.Score >= StrongScore {
			strong = append(strong, c)
		}
	}
	if len(strong) == 1 {
		match := strong[0]
		return Classification{Status: models.StatusMatched, Match: &match}
	}

	if len(candidates) == 1 {
		match := candidates[0]
		return Classification{Status: models.StatusMatched, Match: &match}
	}

	ranked := slices.Clone(candidates)
	slices.SortStableFunc(ranked, func(a, b models.MatchCandidate) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(ranked) > MaxCandidates {
		ranked = ranked[:MaxCandidates]
	}

	return Classification{Status: models.StatusAmbiguous, Candidates: ranked}
}

// ResolveQuantity computes the grams consumed of a matched food. Explicit
// grams win; otherwise quantity times the portion size is used. A nil
// result means the amount is unknown and the caller must ask for it.
func ResolveQuantity(food models.Food, grams, quantity *float64) *float64 {
	if grams != nil {
		g := *grams
		return &g
	}

	if quantity != nil && food.GramsPerPortion != nil {
		g := *food.GramsPerPortion * *quantity
		return &g
	}

	return nil
}

// ComputeNutrition scales the per-100 values of a food to an amount
func ComputeNutrition(food models.Food, grams float64) models.Nutrition {
	scale := func(per100 *float64) *float64 {
		if per100 == nil {
			return nil
		}
		v := *per100 * grams / 100
		return &v
	}

	return models.Nutrition{
		Kcal:    food.KcalPer100 * grams / 100,
		Protein: scale(food.ProteinPer100),
		Fats:    scale(food.FatsPer100),
		Sugar:   scale(food.SugarPer100),
	}
}

// Resolve runs the full pipeline for one extracted item
func (r *FoodResolver) Resolve(ctx context.Context, item models.ExtractedItem) (models.Resolution, error) {
	input := strings.TrimSpace(item.Name)
	count, searchName := ExtractQuantity(input)

	res := models.Resolution{
		Input:      item.Name,
		SearchName: NormalizeFoodName(searchName),
	}

	candidates, err := r.Search(ctx, searchName)
	if err != nil {
		return res, err
	}

	verdict := ClassifyCandidates(candidates)
	res.Status = verdict.Status

	switch verdict.Status {
	case models.StatusNoMatch:
		res.Estimate = upstreamEstimate(item)

	case models.StatusAmbiguous:
		res.Candidates = verdict.Candidates

	case models.StatusMatched:
		food := verdict.Match.Food
		res.Food = &food
		res.Score = verdict.Match.Score

		quantity := amountHint(item.Quantity)
		if quantity == nil {
			q := float64(count)
			quantity = &q
		}
		res.Quantity = quantity

		res.Grams = ResolveQuantity(food, amountHint(item.Grams), quantity)
		if res.Grams == nil {
			res.Status = models.StatusMissingQuantity
			break
		}
		nutrition := ComputeNutrition(food, *res.Grams)
		res.Nutrition = &nutrition
	}

	resolutionsTotal.WithLabelValues(string(res.Status)).Inc()
	return res, nil
}

// amountHint reads an upstream amount. Negative values are treated as
// absent.
func amountHint(n models.LooseNumber) *float64 {
	v := OptionalNumber(n)
	if v == nil || *v < 0 {
		return nil
	}
	return v
}

// upstreamEstimate returns the upstream nutrition figures, or nil when the
// upstream gave no usable kcal estimate
func upstreamEstimate(item models.ExtractedItem) *models.Nutrition {
	kcal := amountHint(item.EstimatedKcal)
	if kcal == nil {
		return nil
	}

	return &models.Nutrition{
		Kcal:    *kcal,
		Protein: amountHint(item.EstimatedProtein),
		Fats:    amountHint(item.EstimatedFats),
		Sugar:   amountHint(item.EstimatedSugar),
	}
}

// ResolveBatch resolves items concurrently. The output has the same length
// and order as the input. Each item gets its own lookup timeout and the
// first lookup failure cancels the rest of the batch.
func (r *FoodResolver) ResolveBatch(ctx context.Context, items []models.ExtractedItem) ([]models.Resolution, error) {
	results := make([]models.Resolution, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, item := range items {
		g.Go(func() error {
			itemCtx := gctx
			if r.lookupTimeout > 0 {
				var cancel context.CancelFunc
				itemCtx, cancel = context.WithTimeout(gctx, r.lookupTimeout)
				defer cancel()
			}

			res, err := r.Resolve(itemCtx, item)
			if err != nil {
				return fmt.Errorf("item %d (%q): %w", i, item.Name, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger.Debug("resolved batch", slog.Int("items", len(items)))
	return results, nil
}

// Invalidate drops cached lookups after foods were created, changed or
// removed. It is a no-op for catalogs without a cache.
func (r *FoodResolver) Invalidate() {
	if flusher, ok := r.catalog.(interface{ Flush() }); ok {
		flusher.Flush()
	}
}
