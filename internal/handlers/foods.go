package handlers

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/nutrilog/internal/database"
	"github.com/foxxcyber/nutrilog/internal/models"
)

// ListFoods returns a paginated list of foods
func (h *Handler) ListFoods(c *fiber.Ctx) error {
	params := &models.FoodListParams{
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
		Search: c.Query("search"),
		Type:   c.Query("type"),
		Tag:    c.Query("tag"),
	}

	// Validate limits
	if params.Limit < 1 || params.Limit > 100 {
		params.Limit = 50
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	foods, total, err := h.db.ListFoods(c.UserContext(), params)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to list foods")
	}

	return SuccessWithMeta(c, foods, total, params.Limit, params.Offset)
}

// GetFood returns a single food by ID
func (h *Handler) GetFood(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid food id")
	}

	food, err := h.db.GetFoodByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, database.ErrFoodNotFound) {
			return Error(c, fiber.StatusNotFound, "food not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get food")
	}

	return Success(c, food)
}

// CreateFood creates a new food (admin only)
func (h *Handler) CreateFood(c *fiber.Ctx) error {
	var req models.CreateFoodRequest
	if msg := h.parseBody(c, &req); msg != "" {
		return Error(c, fiber.StatusBadRequest, msg)
	}

	food, err := h.db.CreateFood(c.UserContext(), &req)
	if err != nil {
		h.logger.Error("failed to create food", slog.String("name", req.Name), slog.Any("error", err))
		return Error(c, fiber.StatusInternalServerError, "failed to create food")
	}
	h.resolver.Invalidate()

	return Created(c, food)
}

// UpdateFood updates an existing food (admin only)
func (h *Handler) UpdateFood(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid food id")
	}

	var req models.UpdateFoodRequest
	if msg := h.parseBody(c, &req); msg != "" {
		return Error(c, fiber.StatusBadRequest, msg)
	}

	food, err := h.db.UpdateFood(c.UserContext(), id, &req)
	if err != nil {
		if errors.Is(err, database.ErrFoodNotFound) {
			return Error(c, fiber.StatusNotFound, "food not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to update food")
	}
	h.resolver.Invalidate()

	return Success(c, food)
}

// DeleteFood deletes a food (admin only). ?force=true also removes the
// daily entries that logged it.
func (h *Handler) DeleteFood(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid food id")
	}

	if c.QueryBool("force", false) {
		removed, err := h.db.ForceDeleteFood(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, database.ErrFoodNotFound) {
				return Error(c, fiber.StatusNotFound, "food not found")
			}
			return Error(c, fiber.StatusInternalServerError, "failed to delete food")
		}
		h.resolver.Invalidate()
		h.logger.Info("force deleted food", slog.Int("food_id", id), slog.Int64("entries_removed", removed))

		return Success(c, fiber.Map{
			"message":         "food deleted successfully",
			"entries_removed": removed,
		})
	}

	if err := h.db.DeleteFood(c.UserContext(), id); err != nil {
		switch {
		case errors.Is(err, database.ErrFoodNotFound):
			return Error(c, fiber.StatusNotFound, "food not found")
		case errors.Is(err, database.ErrFoodInUse):
			return Error(c, fiber.StatusConflict, "food is used in daily entries, delete with force=true")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to delete food")
	}
	h.resolver.Invalidate()

	return Success(c, fiber.Map{
		"message": "food deleted successfully",
	})
}
