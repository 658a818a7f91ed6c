package models

import (
	"time"
)

// EntryType tells what a daily entry refers to
type EntryType string

const (
	EntryFood   EntryType = "food"
	EntryRecipe EntryType = "recipe"
	// EntryEstimate is logged from upstream estimates when no catalog food matched
	EntryEstimate EntryType = "estimate"
)

// DailyEntry is one logged consumption
type DailyEntry struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	FoodID    *int      `json:"food_id,omitempty"`
	RecipeID  *int      `json:"recipe_id,omitempty"`
	Name      *string   `json:"name,omitempty"`
	Date      time.Time `json:"date"`
	TotalKcal float64   `json:"total_kcal"`
	Amount    float64   `json:"amount"`
	EntryType EntryType `json:"entry_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateDailyEntryRequest is the request body for logging a consumption
type CreateDailyEntryRequest struct {
	FoodID    *int      `json:"food_id,omitempty" validate:"omitempty,gt=0"`
	RecipeID  *int      `json:"recipe_id,omitempty" validate:"omitempty,gt=0"`
	Name      *string   `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	TotalKcal float64   `json:"total_kcal" validate:"gte=0"`
	Amount    float64   `json:"amount" validate:"gte=0"`
	EntryType EntryType `json:"entry_type" validate:"required,oneof=food recipe estimate"`
}

// GroupedEntry sums today's entries that refer to the same food or recipe
type GroupedEntry struct {
	FoodID    *int      `json:"food_id,omitempty"`
	RecipeID  *int      `json:"recipe_id,omitempty"`
	Name      string    `json:"name"`
	Unit      *Unit     `json:"unit,omitempty"`
	TotalKcal float64   `json:"total_kcal"`
	Amount    float64   `json:"amount"`
	EntryType EntryType `json:"entry_type"`
}

// DailySummary is the view of a user's intake for one day
type DailySummary struct {
	Date          string         `json:"date"`
	TotalCalories float64        `json:"totalCalories"`
	KcalGoal      *int           `json:"kcal_goal,omitempty"`
	Entries       []GroupedEntry `json:"entries"`
	Separate      []DailyEntry   `json:"entriesSeparate"`
}

// DailyTotal is the kcal sum for one date
type DailyTotal struct {
	Date          string  `json:"date"`
	TotalCalories float64 `json:"totalCalories"`
}

// DailyEntryDetail is a daily entry joined with the food or recipe it refers to
type DailyEntryDetail struct {
	DailyEntry
	FoodName   *string `json:"food_name,omitempty"`
	FoodUnit   *Unit   `json:"food_unit,omitempty"`
	RecipeName *string `json:"recipe_name,omitempty"`
}
