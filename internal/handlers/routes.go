package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/nutrilog/internal/database"
	"github.com/foxxcyber/nutrilog/internal/middleware"
)

// Mount registers the API routes on app
func (h *Handler) Mount(app *fiber.App) {
	app.Get("/health", h.Health)

	api := app.Group("/api")
	auth := middleware.AuthRequired(h.cfg)
	admin := middleware.AdminRequired()

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/register", h.Register)
	authGroup.Post("/login", h.Login)
	authGroup.Get("/me", auth, h.GetCurrentUser)
	authGroup.Put("/me", auth, h.UpdateCurrentUser)

	// Food routes
	foods := api.Group("/foods", auth)
	foods.Get("/", h.ListFoods)
	foods.Get("/match", h.MatchFood)
	foods.Post("/resolve", h.ResolveFoods)
	foods.Get("/:id", h.GetFood)
	foods.Post("/", admin, h.CreateFood)
	foods.Put("/:id", admin, h.UpdateFood)
	foods.Delete("/:id", admin, h.DeleteFood)

	// Recipe routes
	recipes := api.Group("/recipes", auth)
	recipes.Get("/", h.ListRecipes(database.RecipesAll))
	recipes.Get("/mine", h.ListRecipes(database.RecipesOwned))
	recipes.Get("/shared", h.ListRecipes(database.RecipesShared))
	recipes.Get("/available", h.ListRecipes(database.RecipesOwnedOrShared))
	recipes.Get("/:id", h.GetRecipe)
	recipes.Post("/", h.CreateRecipe)
	recipes.Put("/:id", h.UpdateRecipe)
	recipes.Put("/:id/users", h.UpdateRecipeUsers)
	recipes.Delete("/:id", h.DeleteRecipe)

	// Daily entry routes
	entries := api.Group("/daily-entries", auth)
	entries.Get("/", h.GetDailyEntries)
	entries.Get("/weekly", h.GetWeeklyTotals)
	entries.Post("/", h.CreateDailyEntry)
	entries.Post("/resolve", h.ResolveAndLog)
	entries.Delete("/:id", h.DeleteDailyEntry)
}
