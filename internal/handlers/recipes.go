package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/nutrilog/internal/database"
	"github.com/foxxcyber/nutrilog/internal/middleware"
	"github.com/foxxcyber/nutrilog/internal/models"
	"github.com/foxxcyber/nutrilog/internal/services"
)

// ListRecipes returns recipes. The scope comes from the route: all, mine,
// shared or available (mine plus shared).
func (h *Handler) ListRecipes(scope database.RecipeScope) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := middleware.GetUserID(c)

		recipes, err := h.db.ListRecipes(c.UserContext(), scope, userID)
		if err != nil {
			return Error(c, fiber.StatusInternalServerError, "failed to list recipes")
		}
		if recipes == nil {
			recipes = []*models.Recipe{}
		}

		return Success(c, recipes)
	}
}

// GetRecipe returns a recipe the user owns or has shared with them
func (h *Handler) GetRecipe(c *fiber.Ctx) error {
	recipe, err := h.loadRecipe(c)
	if err != nil {
		return err
	}
	if recipe == nil {
		return nil
	}

	if !recipe.CanView(middleware.GetUserID(c)) && middleware.GetUserRole(c) != models.RoleAdmin {
		return Error(c, fiber.StatusNotFound, "recipe not found")
	}

	return Success(c, recipe)
}

// CreateRecipe creates a recipe for the current user
func (h *Handler) CreateRecipe(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.CreateRecipeRequest
	if msg := h.parseBody(c, &req); msg != "" {
		return Error(c, fiber.StatusBadRequest, msg)
	}

	req.UserIDs = withoutOwner(req.UserIDs, userID)
	if msg, err := h.checkUsers(c, req.UserIDs); err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to check users")
	} else if msg != "" {
		return Error(c, fiber.StatusBadRequest, msg)
	}

	var totals models.Nutrition
	if req.TotalKcal != nil {
		totals = models.Nutrition{
			Kcal:    *req.TotalKcal,
			Protein: req.TotalProtein,
			Fats:    req.TotalFats,
			Sugar:   req.TotalSugar,
		}
	} else {
		computed, status, msg := h.recipeTotals(c, req.FoodQuantities)
		if msg != "" {
			return Error(c, status, msg)
		}
		totals = computed
	}

	recipe, err := h.db.CreateRecipe(c.UserContext(), userID, &req, totals)
	if err != nil {
		h.logger.Error("failed to create recipe", slog.Int("user_id", userID), slog.Any("error", err))
		return Error(c, fiber.StatusInternalServerError, "failed to create recipe")
	}

	return Created(c, recipe)
}

// UpdateRecipe updates a recipe (owner only)
func (h *Handler) UpdateRecipe(c *fiber.Ctx) error {
	recipe, err := h.loadOwnedRecipe(c)
	if err != nil || recipe == nil {
		return err
	}

	var req models.UpdateRecipeRequest
	if msg := h.parseBody(c, &req); msg != "" {
		return Error(c, fiber.StatusBadRequest, msg)
	}

	var totals *models.Nutrition
	switch {
	case req.TotalKcal != nil:
		totals = &models.Nutrition{
			Kcal:    *req.TotalKcal,
			Protein: req.TotalProtein,
			Fats:    req.TotalFats,
			Sugar:   req.TotalSugar,
		}
	case req.FoodQuantities != nil:
		computed, status, msg := h.recipeTotals(c, req.FoodQuantities)
		if msg != "" {
			return Error(c, status, msg)
		}
		totals = &computed
	}

	updated, err := h.db.UpdateRecipe(c.UserContext(), recipe.ID, &req, totals)
	if err != nil {
		if errors.Is(err, database.ErrRecipeNotFound) {
			return Error(c, fiber.StatusNotFound, "recipe not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to update recipe")
	}

	return Success(c, updated)
}

// UpdateRecipeUsers replaces the users a recipe is shared with (owner only)
func (h *Handler) UpdateRecipeUsers(c *fiber.Ctx) error {
	recipe, err := h.loadOwnedRecipe(c)
	if err != nil || recipe == nil {
		return err
	}

	var req models.UpdateRecipeUsersRequest
	if msg := h.parseBody(c, &req); msg != "" {
		return Error(c, fiber.StatusBadRequest, msg)
	}

	userIDs := withoutOwner(req.UserIDs, recipe.UserID)
	if msg, err := h.checkUsers(c, userIDs); err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to check users")
	} else if msg != "" {
		return Error(c, fiber.StatusBadRequest, msg)
	}

	updated, err := h.db.UpdateRecipeUserIDs(c.UserContext(), recipe.ID, userIDs)
	if err != nil {
		if errors.Is(err, database.ErrRecipeNotFound) {
			return Error(c, fiber.StatusNotFound, "recipe not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to update recipe users")
	}

	return Success(c, updated)
}

// DeleteRecipe deletes a recipe (owner or admin)
func (h *Handler) DeleteRecipe(c *fiber.Ctx) error {
	recipe, err := h.loadOwnedRecipe(c)
	if err != nil || recipe == nil {
		return err
	}

	if err := h.db.DeleteRecipe(c.UserContext(), recipe.ID); err != nil {
		if errors.Is(err, database.ErrRecipeNotFound) {
			return Error(c, fiber.StatusNotFound, "recipe not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to delete recipe")
	}

	return Success(c, fiber.Map{
		"message": "recipe deleted successfully",
	})
}

// loadRecipe fetches the recipe named by the :id param. A nil recipe with a
// nil error means the response was already written.
func (h *Handler) loadRecipe(c *fiber.Ctx) (*models.Recipe, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return nil, Error(c, fiber.StatusBadRequest, "invalid recipe id")
	}

	recipe, err := h.db.GetRecipeByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, database.ErrRecipeNotFound) {
			return nil, Error(c, fiber.StatusNotFound, "recipe not found")
		}
		return nil, Error(c, fiber.StatusInternalServerError, "failed to get recipe")
	}
	return recipe, nil
}

func (h *Handler) loadOwnedRecipe(c *fiber.Ctx) (*models.Recipe, error) {
	recipe, err := h.loadRecipe(c)
	if err != nil || recipe == nil {
		return nil, err
	}

	if recipe.UserID != middleware.GetUserID(c) && middleware.GetUserRole(c) != models.RoleAdmin {
		return nil, Error(c, fiber.StatusForbidden, "only the owner can change this recipe")
	}
	return recipe, nil
}

// recipeTotals computes totals from the catalog. A non-empty message means
// the request must be rejected with status.
func (h *Handler) recipeTotals(c *fiber.Ctx, quantities []models.FoodQuantity) (models.Nutrition, int, string) {
	foods, err := h.db.GetFoodsByIDs(c.UserContext(), services.FoodIDs(quantities))
	if err != nil {
		return models.Nutrition{}, fiber.StatusInternalServerError, "failed to load foods"
	}

	totals, err := services.ComputeRecipeTotals(foods, quantities)
	if err != nil {
		if errors.Is(err, services.ErrUnknownFood) {
			return models.Nutrition{}, fiber.StatusBadRequest, err.Error()
		}
		return models.Nutrition{}, fiber.StatusInternalServerError, "failed to compute totals"
	}
	return totals, 0, ""
}

// checkUsers returns a message naming the ids that are not users
func (h *Handler) checkUsers(c *fiber.Ctx, ids []int) (string, error) {
	missing, err := h.db.MissingUserIDs(c.UserContext(), ids)
	if err != nil {
		return "", err
	}
	if len(missing) > 0 {
		return fmt.Sprintf("unknown user ids: %v", missing), nil
	}
	return "", nil
}

// withoutOwner drops the owner and duplicates from the shared user ids
func withoutOwner(ids []int, owner int) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if id != owner && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
