package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/foxxcyber/nutrilog/internal/config"
	"github.com/foxxcyber/nutrilog/internal/database"
	"github.com/foxxcyber/nutrilog/internal/handlers"
	"github.com/foxxcyber/nutrilog/internal/services"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := config.Load()
	log := config.NewLogger(cfg, os.Stdout)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		return err
	}

	// Create admin user if it doesn't exist
	if err := database.EnsureAdminUser(db, cfg); err != nil {
		log.Warn("could not ensure admin user", slog.Any("error", err))
	}

	var catalog services.Catalog = db
	if cfg.CatalogCacheEnabled() {
		catalog = services.NewCachedCatalog(db, cfg.CatalogCacheTTL)
		log.Info("catalog cache enabled", slog.Duration("ttl", cfg.CatalogCacheTTL))
	}
	resolver := services.NewFoodResolver(catalog, cfg, log)

	app := fiber.New(fiber.Config{
		AppName:      "nutrilog",
		ErrorHandler: handlers.ErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	h := handlers.New(db, cfg, resolver, log)
	h.Mount(app)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Info("server starting", slog.String("port", cfg.Port), slog.String("environment", cfg.Environment))
		errc <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
