package handlers

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/nutrilog/internal/database"
	"github.com/foxxcyber/nutrilog/internal/middleware"
	"github.com/foxxcyber/nutrilog/internal/models"
	"github.com/foxxcyber/nutrilog/internal/services"
)

const dateLayout = "2006-01-02"

// entryDate returns the ?date= query param, or today
func (h *Handler) entryDate(c *fiber.Ctx) (time.Time, error) {
	if s := c.Query("date"); s != "" {
		return time.Parse(dateLayout, s)
	}
	now := h.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
}

// GetDailyEntries returns the current user's entries for a day, grouped by
// food, recipe or estimate
func (h *Handler) GetDailyEntries(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	date, err := h.entryDate(c)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
	}

	details, err := h.db.ListEntriesForDate(c.UserContext(), userID, date)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to list entries")
	}

	var kcalGoal *int
	if user, err := h.db.GetUserByID(c.UserContext(), userID); err == nil {
		kcalGoal = user.KcalGoal
	}

	return Success(c, services.SummarizeDay(date.Format(dateLayout), kcalGoal, details))
}

// CreateDailyEntry logs a consumption for the current user
func (h *Handler) CreateDailyEntry(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	date, err := h.entryDate(c)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
	}

	var req models.CreateDailyEntryRequest
	if msg := h.parseBody(c, &req); msg != "" {
		return Error(c, fiber.StatusBadRequest, msg)
	}

	switch req.EntryType {
	case models.EntryFood:
		if req.FoodID == nil {
			return Error(c, fiber.StatusBadRequest, "food_id is required for food entries")
		}
		if _, err := h.db.GetFoodByID(c.UserContext(), *req.FoodID); err != nil {
			if errors.Is(err, database.ErrFoodNotFound) {
				return Error(c, fiber.StatusBadRequest, "food not found")
			}
			return Error(c, fiber.StatusInternalServerError, "failed to get food")
		}
	case models.EntryRecipe:
		if req.RecipeID == nil {
			return Error(c, fiber.StatusBadRequest, "recipe_id is required for recipe entries")
		}
		recipe, err := h.db.GetRecipeByID(c.UserContext(), *req.RecipeID)
		if err != nil {
			if errors.Is(err, database.ErrRecipeNotFound) {
				return Error(c, fiber.StatusBadRequest, "recipe not found")
			}
			return Error(c, fiber.StatusInternalServerError, "failed to get recipe")
		}
		if !recipe.CanView(userID) {
			return Error(c, fiber.StatusBadRequest, "recipe not found")
		}
	case models.EntryEstimate:
		if req.Name == nil {
			return Error(c, fiber.StatusBadRequest, "name is required for estimate entries")
		}
	}

	entry, err := h.db.CreateDailyEntry(c.UserContext(), userID, date, &req)
	if err != nil {
		h.logger.Error("failed to log entry", slog.Int("user_id", userID), slog.Any("error", err))
		return Error(c, fiber.StatusInternalServerError, "failed to log entry")
	}

	return Created(c, entry)
}

// GetWeeklyTotals returns the kcal sums per day for the last ?days= days
func (h *Handler) GetWeeklyTotals(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	days := c.QueryInt("days", 7)
	if days < 1 || days > 366 {
		days = 7
	}

	until, err := h.entryDate(c)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
	}

	totals, err := h.db.DailyTotals(c.UserContext(), userID, until, days)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to get totals")
	}

	return Success(c, totals)
}

// DeleteDailyEntry deletes one of the current user's entries
func (h *Handler) DeleteDailyEntry(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid entry id")
	}

	if err := h.db.DeleteDailyEntry(c.UserContext(), middleware.GetUserID(c), id); err != nil {
		if errors.Is(err, database.ErrEntryNotFound) {
			return Error(c, fiber.StatusNotFound, "entry not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to delete entry")
	}

	return Success(c, fiber.Map{
		"message": "entry deleted successfully",
	})
}
