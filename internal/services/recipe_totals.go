package services

import (
	"errors"
	"fmt"

	"github.com/foxxcyber/nutrilog/internal/models"
)

var ErrUnknownFood = errors.New("unknown food")

// ComputeRecipeTotals sums the nutrition of the food quantities of a recipe.
// A macro total stays nil when none of the foods carries that value.
func ComputeRecipeTotals(foods map[int]models.Food, quantities []models.FoodQuantity) (models.Nutrition, error) {
	var total models.Nutrition

	add := func(sum **float64, v *float64) {
		if v == nil {
			return
		}
		if *sum == nil {
			*sum = new(float64)
		}
		**sum += *v
	}

	for _, fq := range quantities {
		food, ok := foods[fq.FoodID]
		if !ok {
			return models.Nutrition{}, fmt.Errorf("%w: %d", ErrUnknownFood, fq.FoodID)
		}

		n := ComputeNutrition(food, fq.Quantity)
		total.Kcal += n.Kcal
		add(&total.Protein, n.Protein)
		add(&total.Fats, n.Fats)
		add(&total.Sugar, n.Sugar)
	}

	return total, nil
}

// FoodIDs returns the distinct food ids of a list of quantities
func FoodIDs(quantities []models.FoodQuantity) []int {
	seen := make(map[int]bool, len(quantities))
	ids := make([]int, 0, len(quantities))
	for _, fq := range quantities {
		if !seen[fq.FoodID] {
			seen[fq.FoodID] = true
			ids = append(ids, fq.FoodID)
		}
	}
	return ids
}
