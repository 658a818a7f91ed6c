package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/foxxcyber/nutrilog/internal/config"
	"github.com/foxxcyber/nutrilog/internal/database"
	"github.com/foxxcyber/nutrilog/internal/models"
	"github.com/foxxcyber/nutrilog/internal/services"
)

func resolveCommand(cfg *config.Config, log *slog.Logger) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "resolve [name...]",
		Short: "Resolve food mentions against the catalog",
		Long: `Resolve one or more food mentions such as "2 appels" and print the
resolutions as JSON. With --file the catalog is read from a CSV instead of
the database.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var catalog services.Catalog

			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", file, err)
				}
				defer f.Close()

				foods, _, err := parseFoodsCSV(f, log)
				if err != nil {
					return err
				}
				catalog = services.NewMemoryCatalog(toFoods(foods)...)
			} else {
				db, err := database.Connect(cfg.DatabaseURL)
				if err != nil {
					return err
				}
				defer db.Close()
				catalog = db
			}

			items := make([]models.ExtractedItem, 0, len(args))
			for _, name := range args {
				items = append(items, models.ExtractedItem{Name: name})
			}

			resolutions, err := services.NewFoodResolver(catalog, cfg, log).ResolveBatch(cmd.Context(), items)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resolutions)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Resolve against a catalog CSV instead of the database")

	return cmd
}
