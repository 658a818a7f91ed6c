package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/foxxcyber/nutrilog/internal/models"
)

var (
	ErrFoodNotFound = errors.New("food not found")
	ErrFoodInUse    = errors.New("food is referenced by daily entries")
)

const foodColumns = `
	id, name, type, brand, kcal_per_100, kcal_per_portion, grams_per_portion,
	proteine_per_100, fats_per_100, sugar_per_100, unit, portion_description,
	tags, main_category, created_at, updated_at`

func scanFood(row pgx.Row, extra ...any) (*models.Food, error) {
	food := &models.Food{}
	dest := []any{
		&food.ID, &food.Name, &food.Type, &food.Brand, &food.KcalPer100, &food.KcalPerPortion,
		&food.GramsPerPortion, &food.ProteinPer100, &food.FatsPer100, &food.SugarPer100,
		&food.Unit, &food.PortionDescription, &food.Tags, &food.MainCategory,
		&food.CreatedAt, &food.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if food.Tags == nil {
		food.Tags = []string{}
	}
	return food, nil
}

func collectFoods(rows pgx.Rows) ([]models.Food, error) {
	defer rows.Close()

	var foods []models.Food
	for rows.Next() {
		food, err := scanFood(rows)
		if err != nil {
			return nil, err
		}
		foods = append(foods, *food)
	}
	return foods, rows.Err()
}

// ListFoods lists foods with optional filters
func (db *DB) ListFoods(ctx context.Context, params *models.FoodListParams) ([]*models.Food, int, error) {
	var whereClauses []string
	var args []interface{}
	argIndex := 1

	if params.Search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf(
			"(LOWER(name) LIKE LOWER($%d) OR LOWER(brand) LIKE LOWER($%d))",
			argIndex, argIndex,
		))
		args = append(args, "%"+params.Search+"%")
		argIndex++
	}

	if params.Type != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("type = $%d", argIndex))
		args = append(args, params.Type)
		argIndex++
	}

	if params.Tag != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("LOWER($%d) = ANY(tags)", argIndex))
		args = append(args, params.Tag)
		argIndex++
	}

	whereClause := ""
	if len(whereClauses) > 0 {
		whereClause = "WHERE " + strings.Join(whereClauses, " AND ")
	}

	// Get total count
	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM foods %s", whereClause)
	if err := db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM foods
		%s
		ORDER BY name ASC
		LIMIT $%d OFFSET $%d
	`, foodColumns, whereClause, argIndex, argIndex+1)

	args = append(args, params.Limit, params.Offset)

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var foods []*models.Food
	for rows.Next() {
		food, err := scanFood(rows)
		if err != nil {
			return nil, 0, err
		}
		foods = append(foods, food)
	}

	return foods, total, rows.Err()
}

// GetFoodByID retrieves a food by ID
func (db *DB) GetFoodByID(ctx context.Context, id int) (*models.Food, error) {
	food, err := scanFood(db.Pool.QueryRow(ctx, `SELECT `+foodColumns+` FROM foods WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFoodNotFound
		}
		return nil, err
	}
	return food, nil
}

// GetFoodsByIDs retrieves foods keyed by ID. Unknown IDs are left out.
func (db *DB) GetFoodsByIDs(ctx context.Context, ids []int) (map[int]models.Food, error) {
	rows, err := db.Pool.Query(ctx, `SELECT `+foodColumns+` FROM foods WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}

	foods, err := collectFoods(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[int]models.Food, len(foods))
	for _, f := range foods {
		byID[f.ID] = f
	}
	return byID, nil
}

// CreateFood creates a new food
func (db *DB) CreateFood(ctx context.Context, req *models.CreateFoodRequest) (*models.Food, error) {
	unit := req.Unit
	if unit == "" {
		unit = models.UnitGram
	}
	tags := normalizeTags(req.Tags)

	return scanFood(db.Pool.QueryRow(ctx, `
		INSERT INTO foods (name, type, brand, kcal_per_100, kcal_per_portion, grams_per_portion,
			proteine_per_100, fats_per_100, sugar_per_100, unit, portion_description, tags, main_category)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+foodColumns,
		strings.TrimSpace(req.Name), req.Type, req.Brand, req.KcalPer100, req.KcalPerPortion, req.GramsPerPortion,
		req.ProteinPer100, req.FatsPer100, req.SugarPer100, unit, req.PortionDescription, tags, req.MainCategory,
	))
}

// UpdateFood updates the fields present in req
func (db *DB) UpdateFood(ctx context.Context, id int, req *models.UpdateFoodRequest) (*models.Food, error) {
	var tags []string
	if req.Tags != nil {
		tags = normalizeTags(req.Tags)
	}

	food, err := scanFood(db.Pool.QueryRow(ctx, `
		UPDATE foods
		SET name = COALESCE($2, name),
		    type = COALESCE($3, type),
		    brand = COALESCE($4, brand),
		    kcal_per_100 = COALESCE($5, kcal_per_100),
		    kcal_per_portion = COALESCE($6, kcal_per_portion),
		    grams_per_portion = COALESCE($7, grams_per_portion),
		    proteine_per_100 = COALESCE($8, proteine_per_100),
		    fats_per_100 = COALESCE($9, fats_per_100),
		    sugar_per_100 = COALESCE($10, sugar_per_100),
		    unit = COALESCE($11, unit),
		    portion_description = COALESCE($12, portion_description),
		    tags = COALESCE($13, tags),
		    main_category = COALESCE($14, main_category),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+foodColumns,
		id, req.Name, req.Type, req.Brand, req.KcalPer100, req.KcalPerPortion, req.GramsPerPortion,
		req.ProteinPer100, req.FatsPer100, req.SugarPer100, req.Unit, req.PortionDescription, tags, req.MainCategory,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFoodNotFound
		}
		return nil, err
	}
	return food, nil
}

// DeleteFood deletes a food. Foods still referenced by daily entries are
// refused with ErrFoodInUse.
func (db *DB) DeleteFood(ctx context.Context, id int) error {
	result, err := db.Pool.Exec(ctx, `DELETE FROM foods WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrFoodInUse
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrFoodNotFound
	}
	return nil
}

// ForceDeleteFood deletes a food together with the daily entries logging it
func (db *DB) ForceDeleteFood(ctx context.Context, id int) (int64, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	entries, err := tx.Exec(ctx, `DELETE FROM daily_entries WHERE food_id = $1`, id)
	if err != nil {
		return 0, err
	}

	result, err := tx.Exec(ctx, `DELETE FROM foods WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	if result.RowsAffected() == 0 {
		return 0, ErrFoodNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return entries.RowsAffected(), nil
}

// ExactMatch returns foods whose normalized name equals name
func (db *DB) ExactMatch(ctx context.Context, name string) ([]models.Food, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+foodColumns+`
		FROM foods
		WHERE normalize_food_name(name) = $1
		ORDER BY id
	`, name)
	if err != nil {
		return nil, err
	}
	return collectFoods(rows)
}

// WholeWordMatch returns foods containing name between word boundaries
func (db *DB) WholeWordMatch(ctx context.Context, name string) ([]models.Food, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+foodColumns+`
		FROM foods
		WHERE normalize_food_name(name) ~ $1
		  AND normalize_food_name(name) <> $2
		ORDER BY id
	`, wordBoundaryPattern(name), name)
	if err != nil {
		return nil, err
	}
	return collectFoods(rows)
}

// FuzzyMatch returns foods by pg_trgm similarity, plus plain substring hits
func (db *DB) FuzzyMatch(ctx context.Context, name string, threshold float64, limit int) ([]models.MatchCandidate, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+foodColumns+`, similarity(normalize_food_name(name), $1) AS score
		FROM foods
		WHERE similarity(normalize_food_name(name), $1) > $2
		   OR strpos(normalize_food_name(name), $1) > 0
		ORDER BY score DESC, id ASC
		LIMIT $3
	`, name, threshold, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []models.MatchCandidate
	for rows.Next() {
		var score float64
		food, err := scanFood(rows, &score)
		if err != nil {
			return nil, err
		}
		matches = append(matches, models.MatchCandidate{
			Food:  *food,
			Score: score,
			Tier:  models.TierFuzzy,
		})
	}
	return matches, rows.Err()
}

// wordBoundaryPattern builds a Postgres regular expression matching s with
// no word character directly before or after it. s may itself start or end
// with punctuation.
func wordBoundaryPattern(s string) string {
	var b strings.Builder
	b.WriteString(`(?:^|\W)`)
	for _, r := range s {
		if strings.ContainsRune(`\.^$|?*+()[]{}`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteString(`(?:\W|$)`)
	return b.String()
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
