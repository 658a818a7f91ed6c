package models

import (
	"time"
)

// MealType is the moment of the day a food is usually eaten
type MealType string

const (
	MealBreakfast MealType = "ochtend"
	MealLunch     MealType = "middag"
	MealDinner    MealType = "avond"
	MealSnack     MealType = "snack"
	MealDrink     MealType = "drinken"
)

// Unit is the measurement unit the per-100 values refer to
type Unit string

const (
	UnitGram       Unit = "gr"
	UnitMilliliter Unit = "ml"
)

// Food is a catalog entry. Nutrition values are per 100 gr or ml.
type Food struct {
	ID                 int       `json:"id"`
	Name               string    `json:"name"`
	Type               MealType  `json:"type"`
	Brand              *string   `json:"brand,omitempty"`
	KcalPer100         float64   `json:"kcal_per_100"`
	KcalPerPortion     *float64  `json:"kcal_per_portion,omitempty"`
	GramsPerPortion    *float64  `json:"grams_per_portion,omitempty"`
	ProteinPer100      *float64  `json:"proteine_per_100,omitempty"`
	FatsPer100         *float64  `json:"fats_per_100,omitempty"`
	SugarPer100        *float64  `json:"sugar_per_100,omitempty"`
	Unit               Unit      `json:"unit"`
	PortionDescription *string   `json:"portion_description,omitempty"`
	Tags               []string  `json:"tags"`
	MainCategory       *string   `json:"main_category,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// CreateFoodRequest is the request body for creating a food
type CreateFoodRequest struct {
	Name               string   `json:"name" validate:"required,max=255"`
	Type               MealType `json:"type" validate:"required,oneof=ochtend middag avond snack drinken"`
	Brand              *string  `json:"brand,omitempty" validate:"omitempty,max=100"`
	KcalPer100         float64  `json:"kcal_per_100" validate:"gte=0"`
	KcalPerPortion     *float64 `json:"kcal_per_portion,omitempty" validate:"omitempty,gte=0"`
	GramsPerPortion    *float64 `json:"grams_per_portion,omitempty" validate:"omitempty,gt=0"`
	ProteinPer100      *float64 `json:"proteine_per_100,omitempty" validate:"omitempty,gte=0"`
	FatsPer100         *float64 `json:"fats_per_100,omitempty" validate:"omitempty,gte=0"`
	SugarPer100        *float64 `json:"sugar_per_100,omitempty" validate:"omitempty,gte=0"`
	Unit               Unit     `json:"unit" validate:"omitempty,oneof=gr ml"`
	PortionDescription *string  `json:"portion_description,omitempty" validate:"omitempty,max=255"`
	Tags               []string `json:"tags,omitempty" validate:"max=10,dive,max=50"`
	MainCategory       *string  `json:"main_category,omitempty" validate:"omitempty,max=50"`
}

// UpdateFoodRequest is the request body for updating a food
type UpdateFoodRequest struct {
	Name               *string   `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Type               *MealType `json:"type,omitempty" validate:"omitempty,oneof=ochtend middag avond snack drinken"`
	Brand              *string   `json:"brand,omitempty" validate:"omitempty,max=100"`
	KcalPer100         *float64  `json:"kcal_per_100,omitempty" validate:"omitempty,gte=0"`
	KcalPerPortion     *float64  `json:"kcal_per_portion,omitempty" validate:"omitempty,gte=0"`
	GramsPerPortion    *float64  `json:"grams_per_portion,omitempty" validate:"omitempty,gt=0"`
	ProteinPer100      *float64  `json:"proteine_per_100,omitempty" validate:"omitempty,gte=0"`
	FatsPer100         *float64  `json:"fats_per_100,omitempty" validate:"omitempty,gte=0"`
	SugarPer100        *float64  `json:"sugar_per_100,omitempty" validate:"omitempty,gte=0"`
	Unit               *Unit     `json:"unit,omitempty" validate:"omitempty,oneof=gr ml"`
	PortionDescription *string   `json:"portion_description,omitempty" validate:"omitempty,max=255"`
	Tags               []string  `json:"tags,omitempty" validate:"omitempty,max=10,dive,max=50"`
	MainCategory       *string   `json:"main_category,omitempty" validate:"omitempty,max=50"`
}

// FoodListParams contains parameters for listing foods
type FoodListParams struct {
	Limit  int
	Offset int
	Search string
	Type   string
	Tag    string
}
