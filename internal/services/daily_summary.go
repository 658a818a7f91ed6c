package services

import (
	"github.com/foxxcyber/nutrilog/internal/models"
)

const (
	unknownFoodName   = "Unknown Food"
	unknownRecipeName = "Unknown Recipe"
)

type entryKey struct {
	entryType models.EntryType
	foodID    int
	recipeID  int
	name      string
}

// SummarizeDay groups a day's entries by the food, recipe or estimate name
// they refer to, keeping the order in which each group was first logged
func SummarizeDay(date string, kcalGoal *int, details []models.DailyEntryDetail) models.DailySummary {
	summary := models.DailySummary{
		Date:     date,
		KcalGoal: kcalGoal,
		Entries:  []models.GroupedEntry{},
		Separate: make([]models.DailyEntry, 0, len(details)),
	}

	index := make(map[entryKey]int)
	for _, d := range details {
		summary.TotalCalories += d.TotalKcal
		summary.Separate = append(summary.Separate, d.DailyEntry)

		key := entryKey{entryType: d.EntryType}
		if d.FoodID != nil {
			key.foodID = *d.FoodID
		}
		if d.RecipeID != nil {
			key.recipeID = *d.RecipeID
		}
		if d.EntryType == models.EntryEstimate && d.Name != nil {
			key.name = NormalizeFoodName(*d.Name)
		}

		if i, ok := index[key]; ok {
			summary.Entries[i].TotalKcal += d.TotalKcal
			summary.Entries[i].Amount += d.Amount
			continue
		}

		index[key] = len(summary.Entries)
		summary.Entries = append(summary.Entries, models.GroupedEntry{
			FoodID:    d.FoodID,
			RecipeID:  d.RecipeID,
			Name:      entryName(d),
			Unit:      d.FoodUnit,
			TotalKcal: d.TotalKcal,
			Amount:    d.Amount,
			EntryType: d.EntryType,
		})
	}

	return summary
}

func entryName(d models.DailyEntryDetail) string {
	switch d.EntryType {
	case models.EntryFood:
		if d.FoodName != nil {
			return *d.FoodName
		}
		return unknownFoodName
	case models.EntryRecipe:
		if d.RecipeName != nil {
			return *d.RecipeName
		}
		return unknownRecipeName
	}

	if d.Name != nil {
		return *d.Name
	}
	return unknownFoodName
}
