package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/foxxcyber/nutrilog/internal/config"
	"github.com/foxxcyber/nutrilog/internal/database"
	"github.com/foxxcyber/nutrilog/internal/models"
	"github.com/foxxcyber/nutrilog/internal/services"
)

func importCommand(cfg *config.Config, log *slog.Logger) *cobra.Command {
	var (
		file      string
		dryRun    bool
		batchSize int
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import foods from a catalog CSV",
		Long: `Import foods from a CSV file with a header row. Foods whose normalized
name already exists are updated, others are inserted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", file, err)
			}
			defer f.Close()

			foods, skipped, err := parseFoodsCSV(f, log)
			if err != nil {
				return err
			}
			log.Info("parsed catalog",
				slog.String("file", file),
				slog.Int("foods", len(foods)),
				slog.Int("skipped", skipped))

			if dryRun {
				printPreview(cmd, foods, 20)
				return nil
			}

			db, err := database.Connect(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.RunMigrations(db); err != nil {
				return err
			}

			imported, updated, err := importFoods(cmd.Context(), db, foods, batchSize, log)
			if err != nil {
				return err
			}

			log.Info("import complete", slog.Int("new", imported), slog.Int("updated", updated))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the catalog CSV")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview changes without writing to database")
	cmd.Flags().IntVar(&batchSize, "batch-size", 500, "Foods per transaction")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// importFoods imports foods using batched transactions
func importFoods(ctx context.Context, db *database.DB, foods []models.CreateFoodRequest, batchSize int, log *slog.Logger) (imported, updated int, err error) {
	if batchSize < 1 {
		batchSize = 500
	}

	for i := 0; i < len(foods); i += batchSize {
		end := min(i+batchSize, len(foods))

		batchImported, batchUpdated, err := importBatch(ctx, db, foods[i:end])
		if err != nil {
			return imported, updated, err
		}
		imported += batchImported
		updated += batchUpdated

		log.Info("progress",
			slog.Int("processed", end),
			slog.Int("total", len(foods)),
			slog.Int("new", imported),
			slog.Int("updated", updated))
	}

	return imported, updated, nil
}

// importBatch imports a batch of foods in a single transaction
func importBatch(ctx context.Context, db *database.DB, foods []models.CreateFoodRequest) (imported, updated int, err error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, food := range foods {
		unit := food.Unit
		if unit == "" {
			unit = models.UnitGram
		}
		tags := food.Tags
		if tags == nil {
			tags = []string{}
		}

		// Check if the food already exists
		var existingID int
		err := tx.QueryRow(ctx, `
			SELECT id FROM foods WHERE normalize_food_name(name) = $1 ORDER BY id LIMIT 1
		`, services.NormalizeFoodName(food.Name)).Scan(&existingID)

		switch {
		case errors.Is(err, pgx.ErrNoRows):
			_, err = tx.Exec(ctx, `
				INSERT INTO foods (name, type, brand, kcal_per_100, kcal_per_portion, grams_per_portion,
					proteine_per_100, fats_per_100, sugar_per_100, unit, portion_description, tags, main_category)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			`, food.Name, food.Type, food.Brand, food.KcalPer100, food.KcalPerPortion, food.GramsPerPortion,
				food.ProteinPer100, food.FatsPer100, food.SugarPer100, unit, food.PortionDescription, tags, food.MainCategory)
			if err != nil {
				return imported, updated, fmt.Errorf("failed to insert %s: %w", food.Name, err)
			}
			imported++

		case err != nil:
			return imported, updated, fmt.Errorf("failed to check existing %s: %w", food.Name, err)

		default:
			_, err = tx.Exec(ctx, `
				UPDATE foods
				SET type = $2, brand = $3, kcal_per_100 = $4, kcal_per_portion = $5, grams_per_portion = $6,
				    proteine_per_100 = $7, fats_per_100 = $8, sugar_per_100 = $9, unit = $10,
				    portion_description = $11, tags = $12, main_category = $13, updated_at = NOW()
				WHERE id = $1
			`, existingID, food.Type, food.Brand, food.KcalPer100, food.KcalPerPortion, food.GramsPerPortion,
				food.ProteinPer100, food.FatsPer100, food.SugarPer100, unit, food.PortionDescription, tags, food.MainCategory)
			if err != nil {
				return imported, updated, fmt.Errorf("failed to update %s: %w", food.Name, err)
			}
			updated++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return imported, updated, nil
}

// printPreview shows a sample of the foods to be imported
func printPreview(cmd *cobra.Command, foods []models.CreateFoodRequest, limit int) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== Preview of foods to import ===")
	fmt.Fprintf(out, "Total: %d foods\n\n", len(foods))

	perType := make(map[models.MealType]int)
	for _, f := range foods {
		perType[f.Type]++
	}

	fmt.Fprintln(out, "Foods per type:")
	for _, t := range []models.MealType{models.MealBreakfast, models.MealLunch, models.MealDinner, models.MealSnack, models.MealDrink} {
		if n := perType[t]; n > 0 {
			fmt.Fprintf(out, "  %s: %d\n", t, n)
		}
	}

	fmt.Fprintf(out, "\nSample foods (first %d):\n", limit)
	for i, f := range foods {
		if i >= limit {
			break
		}
		fmt.Fprintf(out, "  %s (%s) - %.0f kcal/100\n", f.Name, f.Type, f.KcalPer100)
	}
}
