package models

import (
	"time"
)

// Recipe is a named combination of foods owned by a user and
// optionally shared with others
type Recipe struct {
	ID           int          `json:"id"`
	Name         string       `json:"name"`
	UserID       int          `json:"user_id"`
	UserIDs      []int        `json:"user_ids"`
	TotalKcal    float64      `json:"total_kcals"`
	TotalProtein *float64     `json:"total_proteine,omitempty"`
	TotalFats    *float64     `json:"total_fats,omitempty"`
	TotalSugar   *float64     `json:"total_sugar,omitempty"`
	Foods        []RecipeFood `json:"foods"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// RecipeFood is one ingredient line of a recipe. Quantity is in gr or ml.
type RecipeFood struct {
	FoodID     int     `json:"food_id"`
	Name       string  `json:"name"`
	Quantity   float64 `json:"quantity"`
	KcalPer100 float64 `json:"kcal_per_100"`
}

// FoodQuantity is a food id with the amount used in a recipe
type FoodQuantity struct {
	FoodID   int     `json:"food_id" validate:"required,gt=0"`
	Quantity float64 `json:"quantity" validate:"gt=0"`
}

// CreateRecipeRequest is the request body for creating a recipe.
// Totals are computed from the foods when left out.
type CreateRecipeRequest struct {
	Name           string         `json:"name" validate:"required,max=255"`
	FoodQuantities []FoodQuantity `json:"food_quantities" validate:"required,min=1,dive"`
	TotalKcal      *float64       `json:"total_kcals,omitempty" validate:"omitempty,gte=0"`
	TotalProtein   *float64       `json:"total_proteine,omitempty" validate:"omitempty,gte=0"`
	TotalFats      *float64       `json:"total_fats,omitempty" validate:"omitempty,gte=0"`
	TotalSugar     *float64       `json:"total_sugar,omitempty" validate:"omitempty,gte=0"`
	UserIDs        []int          `json:"user_ids,omitempty"`
}

// UpdateRecipeRequest is the request body for updating a recipe
type UpdateRecipeRequest struct {
	Name           *string        `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	FoodQuantities []FoodQuantity `json:"food_quantities,omitempty" validate:"omitempty,dive"`
	TotalKcal      *float64       `json:"total_kcals,omitempty" validate:"omitempty,gte=0"`
	TotalProtein   *float64       `json:"total_proteine,omitempty" validate:"omitempty,gte=0"`
	TotalFats      *float64       `json:"total_fats,omitempty" validate:"omitempty,gte=0"`
	TotalSugar     *float64       `json:"total_sugar,omitempty" validate:"omitempty,gte=0"`
}

// UpdateRecipeUsersRequest replaces the users a recipe is shared with
type UpdateRecipeUsersRequest struct {
	UserIDs []int `json:"user_ids" validate:"dive,gt=0"`
}

// IsSharedWith checks if the recipe is shared with the given user
func (r *Recipe) IsSharedWith(userID int) bool {
	for _, id := range r.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// CanView checks if a user owns the recipe or has it shared with them
func (r *Recipe) CanView(userID int) bool {
	return r.UserID == userID || r.IsSharedWith(userID)
}
