package database

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/foxxcyber/nutrilog/internal/config"
)

// DB wraps the connection pool
type DB struct {
	Pool *pgxpool.Pool
}

// Connect creates a new database connection pool
func Connect(databaseURL string) (*DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database URL: %w", err)
	}

	// Configure pool
	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	slog.Info("database connected")
	return &DB{Pool: pool}, nil
}

// Close closes the database connection pool
func (db *DB) Close() {
	db.Pool.Close()
}

// Ping checks that the database is reachable
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// RunMigrations applies all pending migrations in version order
func RunMigrations(db *DB) error {
	ctx := context.Background()

	// Create migrations table if it doesn't exist
	_, err := db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, version := range migrationVersions() {
		// Check if migration already applied
		var exists bool
		err := db.Pool.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)",
			version,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check migration %d: %w", version, err)
		}

		if exists {
			continue
		}

		slog.Info("applying migration", slog.Int("version", version))
		_, err = db.Pool.Exec(ctx, migrations[version])
		if err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", version, err)
		}

		// Record migration
		_, err = db.Pool.Exec(ctx,
			"INSERT INTO schema_migrations (version) VALUES ($1)",
			version,
		)
		if err != nil {
			return fmt.Errorf("failed to record migration %d: %w", version, err)
		}
	}

	return nil
}

// EnsureAdminUser creates the admin user if it doesn't exist
func EnsureAdminUser(db *DB, cfg *config.Config) error {
	if cfg.AdminPassword == "" {
		slog.Info("ADMIN_PASSWORD not set, skipping admin user creation")
		return nil
	}

	ctx := context.Background()

	// Check if admin exists
	var exists bool
	err := db.Pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)",
		cfg.AdminEmail,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check for admin user: %w", err)
	}

	if exists {
		return nil
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	_, err = db.Pool.Exec(ctx, `
		INSERT INTO users (email, password_hash, username, role)
		VALUES ($1, $2, 'admin', 'admin')
	`, cfg.AdminEmail, string(hashedPassword))
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	slog.Info("admin user created", slog.String("email", cfg.AdminEmail))
	return nil
}

// migrations maps a version to its SQL
var migrations = map[int]string{
	1: migration001,
	2: migration002,
}

func migrationVersions() []int {
	versions := make([]int, 0, len(migrations))
	for v := range migrations {
		versions = append(versions, v)
	}
	slices.Sort(versions)
	return versions
}

const migration001 = `
-- Enable extensions
CREATE EXTENSION IF NOT EXISTS "pg_trgm";

-- Users table
CREATE TABLE IF NOT EXISTS users (
    id SERIAL PRIMARY KEY,
    email VARCHAR(255) UNIQUE NOT NULL,
    password_hash VARCHAR(255) NOT NULL,
    username VARCHAR(50) UNIQUE NOT NULL,
    role VARCHAR(20) NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
    kcal_goal INT,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW(),
    last_login_at TIMESTAMP
);

-- Food catalog
CREATE TABLE IF NOT EXISTS foods (
    id SERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL CHECK (name <> ''),
    type VARCHAR(20) NOT NULL CHECK (type IN ('ochtend', 'middag', 'avond', 'snack', 'drinken')),
    brand VARCHAR(100),
    kcal_per_100 DOUBLE PRECISION NOT NULL CHECK (kcal_per_100 >= 0),
    kcal_per_portion DOUBLE PRECISION CHECK (kcal_per_portion >= 0),
    grams_per_portion DOUBLE PRECISION CHECK (grams_per_portion > 0),
    proteine_per_100 DOUBLE PRECISION CHECK (proteine_per_100 >= 0),
    fats_per_100 DOUBLE PRECISION CHECK (fats_per_100 >= 0),
    sugar_per_100 DOUBLE PRECISION CHECK (sugar_per_100 >= 0),
    unit VARCHAR(2) NOT NULL DEFAULT 'gr' CHECK (unit IN ('gr', 'ml')),
    portion_description VARCHAR(255),
    tags TEXT[] NOT NULL DEFAULT ARRAY[]::TEXT[],
    main_category VARCHAR(50),
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);

-- Recipes
CREATE TABLE IF NOT EXISTS recipes (
    id SERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    user_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    user_ids INT[] NOT NULL DEFAULT ARRAY[]::INT[],
    total_kcals DOUBLE PRECISION NOT NULL DEFAULT 0,
    total_proteine DOUBLE PRECISION,
    total_fats DOUBLE PRECISION,
    total_sugar DOUBLE PRECISION,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS recipe_foods (
    recipe_id INT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
    food_id INT NOT NULL REFERENCES foods(id) ON DELETE CASCADE,
    quantity DOUBLE PRECISION NOT NULL CHECK (quantity > 0),
    PRIMARY KEY (recipe_id, food_id)
);

-- Daily consumption log
CREATE TABLE IF NOT EXISTS daily_entries (
    id SERIAL PRIMARY KEY,
    user_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    food_id INT REFERENCES foods(id),
    recipe_id INT REFERENCES recipes(id) ON DELETE SET NULL,
    name VARCHAR(255),
    date DATE NOT NULL DEFAULT CURRENT_DATE,
    total_kcal DOUBLE PRECISION NOT NULL,
    amount DOUBLE PRECISION NOT NULL DEFAULT 1,
    entry_type VARCHAR(10) NOT NULL CHECK (entry_type IN ('food', 'recipe', 'estimate')),
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_daily_entries_user_date ON daily_entries(user_id, date);
CREATE INDEX IF NOT EXISTS idx_recipes_user ON recipes(user_id);
CREATE INDEX IF NOT EXISTS idx_recipes_user_ids ON recipes USING GIN (user_ids);
CREATE INDEX IF NOT EXISTS idx_foods_tags ON foods USING GIN (tags);
`

const migration002 = `
-- Food name normalization, kept in step with services.NormalizeFoodName
CREATE OR REPLACE FUNCTION normalize_food_name(n TEXT) RETURNS TEXT AS $$
BEGIN
    RETURN NORMALIZE(
        BTRIM(
            REGEXP_REPLACE(
                REGEXP_REPLACE(LOWER(n), '[-()]', '', 'g'),
                '\s+', ' ', 'g')),
        NFC);
END;
$$ LANGUAGE plpgsql IMMUTABLE;

CREATE INDEX IF NOT EXISTS idx_foods_name_normalized ON foods (normalize_food_name(name));
CREATE INDEX IF NOT EXISTS idx_foods_name_trgm ON foods USING GIN (normalize_food_name(name) gin_trgm_ops);
`
