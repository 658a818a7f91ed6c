package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/foxxcyber/nutrilog/internal/middleware"
	"github.com/foxxcyber/nutrilog/internal/models"
	"github.com/foxxcyber/nutrilog/internal/services"
)

// ResolveFoods resolves a batch of extracted items against the catalog
// without logging anything
func (h *Handler) ResolveFoods(c *fiber.Ctx) error {
	var req models.ResolveRequest
	if msg := h.parseBody(c, &req); msg != "" {
		return Error(c, fiber.StatusBadRequest, msg)
	}

	requestID := uuid.NewString()
	resolutions, err := h.resolveBatch(c, requestID, req.Items)
	if err != nil {
		return resolveError(c, err)
	}

	return Success(c, models.ResolveResponse{
		RequestID:   requestID,
		Resolutions: resolutions,
	})
}

// MatchFood returns the ranked catalog candidates for ?q=
func (h *Handler) MatchFood(c *fiber.Ctx) error {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		return Error(c, fiber.StatusBadRequest, "search query is required")
	}

	_, name := services.ExtractQuantity(q)
	candidates, err := h.resolver.Search(c.UserContext(), name)
	if err != nil {
		h.logger.Error("candidate search failed", slog.String("query", q), slog.Any("error", err))
		return resolveError(c, err)
	}
	if candidates == nil {
		candidates = []models.MatchCandidate{}
	}

	return Success(c, candidates)
}

// ResolveAndLog resolves a batch and logs every item that has a known
// amount of kcal: matched foods and unmatched items with an upstream estimate
func (h *Handler) ResolveAndLog(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	date, err := h.entryDate(c)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
	}

	var req models.ResolveRequest
	if msg := h.parseBody(c, &req); msg != "" {
		return Error(c, fiber.StatusBadRequest, msg)
	}

	requestID := uuid.NewString()
	resolutions, err := h.resolveBatch(c, requestID, req.Items)
	if err != nil {
		return resolveError(c, err)
	}

	entries := entriesFromResolutions(resolutions)
	logged, err := h.db.CreateDailyEntries(c.UserContext(), userID, date, entries)
	if err != nil {
		h.logger.Error("failed to log resolved entries",
			slog.String("request_id", requestID),
			slog.Any("error", err))
		return Error(c, fiber.StatusInternalServerError, "failed to log entries")
	}

	return Created(c, models.ResolveAndLogResponse{
		RequestID:   requestID,
		Resolutions: resolutions,
		Logged:      logged,
	})
}

func (h *Handler) resolveBatch(c *fiber.Ctx, requestID string, items []models.ExtractedItem) ([]models.Resolution, error) {
	resolutions, err := h.resolver.ResolveBatch(c.UserContext(), items)
	if err != nil {
		h.logger.Error("resolve batch failed",
			slog.String("request_id", requestID),
			slog.Int("items", len(items)),
			slog.Any("error", err))
		return nil, err
	}

	h.logger.Info("resolved batch", slog.String("request_id", requestID), slog.Int("items", len(items)))
	return resolutions, nil
}

// resolveError maps a resolver failure to a response. Catalog lookup
// failures are reported as 503.
func resolveError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrLookupFailed) {
		return Error(c, fiber.StatusServiceUnavailable, "food catalog unavailable")
	}
	return Error(c, fiber.StatusInternalServerError, "failed to resolve foods")
}

func entriesFromResolutions(resolutions []models.Resolution) []models.CreateDailyEntryRequest {
	entries := make([]models.CreateDailyEntryRequest, 0, len(resolutions))
	for _, res := range resolutions {
		switch {
		case res.Status == models.StatusMatched && res.Food != nil && res.Nutrition != nil:
			foodID := res.Food.ID
			entries = append(entries, models.CreateDailyEntryRequest{
				FoodID:    &foodID,
				TotalKcal: res.Nutrition.Kcal,
				Amount:    *res.Grams,
				EntryType: models.EntryFood,
			})

		case res.Status == models.StatusNoMatch && res.Estimate != nil:
			name := strings.TrimSpace(res.Input)
			amount := 1.0
			if count, _ := services.ExtractQuantity(name); count > 0 {
				amount = float64(count)
			}
			entries = append(entries, models.CreateDailyEntryRequest{
				Name:      &name,
				TotalKcal: res.Estimate.Kcal,
				Amount:    amount,
				EntryType: models.EntryEstimate,
			})
		}
	}
	return entries
}
