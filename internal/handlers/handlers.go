package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/nutrilog/internal/config"
	"github.com/foxxcyber/nutrilog/internal/database"
	"github.com/foxxcyber/nutrilog/internal/models"
	"github.com/foxxcyber/nutrilog/internal/services"
)

// Store is the persistence the handlers need. *database.DB implements it.
type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, email, passwordHash, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, id int, req *models.UpdateUserRequest, passwordHash *string) (*models.User, error)
	UpdateUserLastLogin(ctx context.Context, id int) error
	MissingUserIDs(ctx context.Context, ids []int) ([]int, error)

	ListFoods(ctx context.Context, params *models.FoodListParams) ([]*models.Food, int, error)
	GetFoodByID(ctx context.Context, id int) (*models.Food, error)
	GetFoodsByIDs(ctx context.Context, ids []int) (map[int]models.Food, error)
	CreateFood(ctx context.Context, req *models.CreateFoodRequest) (*models.Food, error)
	UpdateFood(ctx context.Context, id int, req *models.UpdateFoodRequest) (*models.Food, error)
	DeleteFood(ctx context.Context, id int) error
	ForceDeleteFood(ctx context.Context, id int) (int64, error)

	ListRecipes(ctx context.Context, scope database.RecipeScope, userID int) ([]*models.Recipe, error)
	GetRecipeByID(ctx context.Context, id int) (*models.Recipe, error)
	CreateRecipe(ctx context.Context, userID int, req *models.CreateRecipeRequest, totals models.Nutrition) (*models.Recipe, error)
	UpdateRecipe(ctx context.Context, id int, req *models.UpdateRecipeRequest, totals *models.Nutrition) (*models.Recipe, error)
	UpdateRecipeUserIDs(ctx context.Context, id int, userIDs []int) (*models.Recipe, error)
	DeleteRecipe(ctx context.Context, id int) error

	ListEntriesForDate(ctx context.Context, userID int, date time.Time) ([]models.DailyEntryDetail, error)
	CreateDailyEntry(ctx context.Context, userID int, date time.Time, req *models.CreateDailyEntryRequest) (*models.DailyEntry, error)
	CreateDailyEntries(ctx context.Context, userID int, date time.Time, reqs []models.CreateDailyEntryRequest) ([]models.DailyEntry, error)
	DailyTotals(ctx context.Context, userID int, until time.Time, days int) ([]models.DailyTotal, error)
	DeleteDailyEntry(ctx context.Context, userID, id int) error
}

// Handler holds all handler dependencies
type Handler struct {
	db       Store
	cfg      *config.Config
	resolver *services.FoodResolver
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a new Handler instance
func New(db Store, cfg *config.Config, resolver *services.FoodResolver, logger *slog.Logger) *Handler {
	return &Handler{
		db:       db,
		cfg:      cfg,
		resolver: resolver,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
		now:      time.Now,
	}
}

// ErrorHandler is a custom error handler for Fiber
func ErrorHandler(c *fiber.Ctx, err error) error {
	// Default to 500
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	// Check if it's a Fiber error
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(APIResponse{
		Success: false,
		Error:   message,
	})
}

// APIResponse is a standard API response structure
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Meta contains pagination metadata
type Meta struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Success returns a successful response
func Success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(APIResponse{
		Success: true,
		Data:    data,
	})
}

// Created returns a successful response with status 201
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(APIResponse{
		Success: true,
		Data:    data,
	})
}

// SuccessWithMeta returns a successful response with pagination
func SuccessWithMeta(c *fiber.Ctx, data interface{}, total, limit, offset int) error {
	return c.JSON(APIResponse{
		Success: true,
		Data:    data,
		Meta: &Meta{
			Total:  total,
			Limit:  limit,
			Offset: offset,
		},
	})
}

// Error returns an error response
func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(APIResponse{
		Success: false,
		Error:   message,
	})
}

// parseBody decodes and validates a request body into req. The returned
// message is empty when the body is valid.
func (h *Handler) parseBody(c *fiber.Ctx, req interface{}) string {
	if err := c.BodyParser(req); err != nil {
		return "invalid request body"
	}
	if err := h.validate.Struct(req); err != nil {
		return validationMessage(err)
	}
	return ""
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request body"
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email")
		case "oneof":
			msgs = append(msgs, field+" must be one of: "+fe.Param())
		default:
			msgs = append(msgs, field+" failed "+fe.Tag()+" "+fe.Param())
		}
	}
	return strings.Join(msgs, "; ")
}

// Health reports whether the database is reachable
func (h *Handler) Health(c *fiber.Ctx) error {
	if err := h.db.Ping(c.UserContext()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   "unhealthy",
			"database": "disconnected",
		})
	}
	return c.JSON(fiber.Map{
		"status":   "healthy",
		"database": "connected",
	})
}
