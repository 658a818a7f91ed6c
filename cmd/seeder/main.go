package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/foxxcyber/nutrilog/internal/config"
)

func main() {
	// Load .env
	_ = godotenv.Load()

	cfg := config.Load()
	log := config.NewLogger(cfg, os.Stderr)
	slog.SetDefault(log)

	if err := rootCommand(cfg, log).Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCommand(cfg *config.Config, log *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "seeder",
		Short:         "Food catalog tools for nutrilog",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(
		importCommand(cfg, log),
		resolveCommand(cfg, log),
	)

	return root
}
