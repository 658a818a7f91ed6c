package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/foxxcyber/nutrilog/internal/models"
	"github.com/foxxcyber/nutrilog/internal/services"
)

// Catalog CSV columns. Only name, type and kcal_per_100 are required.
const (
	colName               = "name"
	colType               = "type"
	colBrand              = "brand"
	colKcalPer100         = "kcal_per_100"
	colKcalPerPortion     = "kcal_per_portion"
	colGramsPerPortion    = "grams_per_portion"
	colProteinPer100      = "proteine_per_100"
	colFatsPer100         = "fats_per_100"
	colSugarPer100        = "sugar_per_100"
	colUnit               = "unit"
	colPortionDescription = "portion_description"
	colTags               = "tags"
	colMainCategory       = "main_category"
)

var requiredColumns = []string{colName, colType, colKcalPer100}

// parseFoodsCSV reads catalog rows. Invalid rows are logged and skipped.
// Rows whose names normalize to the same value are merged, the last one wins.
func parseFoodsCSV(r io.Reader, log *slog.Logger) ([]models.CreateFoodRequest, int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, col := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := cols[col]; !ok {
			return nil, 0, fmt.Errorf("missing required column %q", col)
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	var foods []models.CreateFoodRequest
	index := make(map[string]int)
	skipped := 0
	line := 1

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			log.Warn("skipping malformed row", slog.Int("line", line), slog.Any("error", err))
			skipped++
			continue
		}

		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		optional := func(name string) *string {
			if v := field(name); v != "" {
				return &v
			}
			return nil
		}

		req := models.CreateFoodRequest{
			Name:               field(colName),
			Type:               models.MealType(strings.ToLower(field(colType))),
			Brand:              optional(colBrand),
			KcalPer100:         services.SanitizeOrZero(field(colKcalPer100)),
			KcalPerPortion:     services.SanitizeOrNil(field(colKcalPerPortion)),
			GramsPerPortion:    services.SanitizeOrNil(field(colGramsPerPortion)),
			ProteinPer100:      services.SanitizeOrNil(field(colProteinPer100)),
			FatsPer100:         services.SanitizeOrNil(field(colFatsPer100)),
			SugarPer100:        services.SanitizeOrNil(field(colSugarPer100)),
			Unit:               models.Unit(strings.ToLower(field(colUnit))),
			PortionDescription: optional(colPortionDescription),
			Tags:               splitTags(field(colTags)),
			MainCategory:       optional(colMainCategory),
		}
		if services.SanitizeOrNil(field(colKcalPer100)) == nil {
			log.Warn("skipping row without kcal_per_100", slog.Int("line", line), slog.String("name", req.Name))
			skipped++
			continue
		}
		if req.GramsPerPortion != nil && *req.GramsPerPortion == 0 {
			req.GramsPerPortion = nil
		}

		if err := validate.Struct(&req); err != nil {
			log.Warn("skipping invalid row",
				slog.Int("line", line),
				slog.String("name", req.Name),
				slog.Any("error", err))
			skipped++
			continue
		}

		key := services.NormalizeFoodName(req.Name)
		if i, ok := index[key]; ok {
			foods[i] = req
			continue
		}
		index[key] = len(foods)
		foods = append(foods, req)
	}

	return foods, skipped, nil
}

// splitTags splits a tag cell on ';' or ','
func splitTags(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' })
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.ToLower(strings.TrimSpace(p)); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// toFoods turns parsed rows into catalog foods with ids in file order
func toFoods(reqs []models.CreateFoodRequest) []models.Food {
	foods := make([]models.Food, 0, len(reqs))
	for i, req := range reqs {
		unit := req.Unit
		if unit == "" {
			unit = models.UnitGram
		}
		foods = append(foods, models.Food{
			ID:                 i + 1,
			Name:               req.Name,
			Type:               req.Type,
			Brand:              req.Brand,
			KcalPer100:         req.KcalPer100,
			KcalPerPortion:     req.KcalPerPortion,
			GramsPerPortion:    req.GramsPerPortion,
			ProteinPer100:      req.ProteinPer100,
			FatsPer100:         req.FatsPer100,
			SugarPer100:        req.SugarPer100,
			Unit:               unit,
			PortionDescription: req.PortionDescription,
			Tags:               req.Tags,
			MainCategory:       req.MainCategory,
		})
	}
	return foods
}
