package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/foxxcyber/nutrilog/internal/models"
)

var ErrRecipeNotFound = errors.New("recipe not found")

// RecipeScope selects which recipes a listing returns for a user
type RecipeScope int

const (
	RecipesAll RecipeScope = iota
	RecipesOwned
	RecipesShared
	RecipesOwnedOrShared
)

const recipeColumns = `id, name, user_id, user_ids, total_kcals, total_proteine, total_fats, total_sugar, created_at, updated_at`

func scanRecipe(row pgx.Row) (*models.Recipe, error) {
	recipe := &models.Recipe{}
	err := row.Scan(
		&recipe.ID, &recipe.Name, &recipe.UserID, &recipe.UserIDs,
		&recipe.TotalKcal, &recipe.TotalProtein, &recipe.TotalFats, &recipe.TotalSugar,
		&recipe.CreatedAt, &recipe.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if recipe.UserIDs == nil {
		recipe.UserIDs = []int{}
	}
	recipe.Foods = []models.RecipeFood{}
	return recipe, nil
}

// ListRecipes lists recipes visible in the given scope for userID
func (db *DB) ListRecipes(ctx context.Context, scope RecipeScope, userID int) ([]*models.Recipe, error) {
	var where string
	var args []any

	switch scope {
	case RecipesOwned:
		where, args = "WHERE user_id = $1", []any{userID}
	case RecipesShared:
		where, args = "WHERE $1 = ANY(user_ids)", []any{userID}
	case RecipesOwnedOrShared:
		where, args = "WHERE user_id = $1 OR $1 = ANY(user_ids)", []any{userID}
	}

	rows, err := db.Pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM recipes %s ORDER BY name ASC
	`, recipeColumns, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipes []*models.Recipe
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := db.loadRecipeFoods(ctx, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// GetRecipeByID retrieves a recipe with its foods
func (db *DB) GetRecipeByID(ctx context.Context, id int) (*models.Recipe, error) {
	recipe, err := scanRecipe(db.Pool.QueryRow(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}

	if err := db.loadRecipeFoods(ctx, []*models.Recipe{recipe}); err != nil {
		return nil, err
	}
	return recipe, nil
}

func (db *DB) loadRecipeFoods(ctx context.Context, recipes []*models.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}

	byID := make(map[int]*models.Recipe, len(recipes))
	ids := make([]int, 0, len(recipes))
	for _, r := range recipes {
		byID[r.ID] = r
		ids = append(ids, r.ID)
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT rf.recipe_id, rf.food_id, f.name, rf.quantity, f.kcal_per_100
		FROM recipe_foods rf
		JOIN foods f ON f.id = rf.food_id
		WHERE rf.recipe_id = ANY($1)
		ORDER BY f.name
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var recipeID int
		var rf models.RecipeFood
		if err := rows.Scan(&recipeID, &rf.FoodID, &rf.Name, &rf.Quantity, &rf.KcalPer100); err != nil {
			return err
		}
		if r, ok := byID[recipeID]; ok {
			r.Foods = append(r.Foods, rf)
		}
	}
	return rows.Err()
}

// CreateRecipe creates a recipe with its food quantities
func (db *DB) CreateRecipe(ctx context.Context, userID int, req *models.CreateRecipeRequest, totals models.Nutrition) (*models.Recipe, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	userIDs := req.UserIDs
	if userIDs == nil {
		userIDs = []int{}
	}

	var id int
	err = tx.QueryRow(ctx, `
		INSERT INTO recipes (name, user_id, user_ids, total_kcals, total_proteine, total_fats, total_sugar)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, req.Name, userID, userIDs, totals.Kcal, totals.Protein, totals.Fats, totals.Sugar).Scan(&id)
	if err != nil {
		return nil, err
	}

	if err := insertRecipeFoods(ctx, tx, id, req.FoodQuantities); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return db.GetRecipeByID(ctx, id)
}

// UpdateRecipe updates a recipe. Food quantities are replaced when given
// and totals overwrite the stored ones when not nil.
func (db *DB) UpdateRecipe(ctx context.Context, id int, req *models.UpdateRecipeRequest, totals *models.Nutrition) (*models.Recipe, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var kcal, protein, fats, sugar *float64
	if totals != nil {
		kcal, protein, fats, sugar = &totals.Kcal, totals.Protein, totals.Fats, totals.Sugar
	}

	result, err := tx.Exec(ctx, `
		UPDATE recipes
		SET name = COALESCE($2, name),
		    total_kcals = COALESCE($3, total_kcals),
		    total_proteine = COALESCE($4, total_proteine),
		    total_fats = COALESCE($5, total_fats),
		    total_sugar = COALESCE($6, total_sugar),
		    updated_at = NOW()
		WHERE id = $1
	`, id, req.Name, kcal, protein, fats, sugar)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected() == 0 {
		return nil, ErrRecipeNotFound
	}

	if req.FoodQuantities != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM recipe_foods WHERE recipe_id = $1`, id); err != nil {
			return nil, err
		}
		if err := insertRecipeFoods(ctx, tx, id, req.FoodQuantities); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return db.GetRecipeByID(ctx, id)
}

func insertRecipeFoods(ctx context.Context, tx pgx.Tx, recipeID int, quantities []models.FoodQuantity) error {
	for _, fq := range quantities {
		_, err := tx.Exec(ctx, `
			INSERT INTO recipe_foods (recipe_id, food_id, quantity)
			VALUES ($1, $2, $3)
			ON CONFLICT (recipe_id, food_id) DO UPDATE SET quantity = recipe_foods.quantity + EXCLUDED.quantity
		`, recipeID, fq.FoodID, fq.Quantity)
		if err != nil {
			return fmt.Errorf("failed to add food %d: %w", fq.FoodID, err)
		}
	}
	return nil
}

// UpdateRecipeUserIDs replaces the users a recipe is shared with
func (db *DB) UpdateRecipeUserIDs(ctx context.Context, id int, userIDs []int) (*models.Recipe, error) {
	if userIDs == nil {
		userIDs = []int{}
	}

	result, err := db.Pool.Exec(ctx, `
		UPDATE recipes SET user_ids = $2, updated_at = NOW() WHERE id = $1
	`, id, userIDs)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected() == 0 {
		return nil, ErrRecipeNotFound
	}

	return db.GetRecipeByID(ctx, id)
}

// DeleteRecipe deletes a recipe and its food lines
func (db *DB) DeleteRecipe(ctx context.Context, id int) error {
	result, err := db.Pool.Exec(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrRecipeNotFound
	}
	return nil
}
