package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/foxxcyber/nutrilog/internal/models"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already exists")
	ErrUsernameExists     = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const userColumns = `id, email, password_hash, username, role, kcal_goal, created_at, updated_at, last_login_at`

func scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Username,
		&user.Role,
		&user.KcalGoal,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, uniqueViolation(err)
	}
	return user, nil
}

// uniqueViolation maps unique constraint errors on users to sentinel errors
func uniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}

	switch pgErr.ConstraintName {
	case "users_email_key":
		return ErrEmailExists
	case "users_username_key":
		return ErrUsernameExists
	}
	return err
}

// CreateUser creates a new user in the database
func (db *DB) CreateUser(ctx context.Context, email, passwordHash, username string) (*models.User, error) {
	return scanUser(db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, username, role, created_at, updated_at)
		VALUES ($1, $2, $3, 'user', NOW(), NOW())
		RETURNING `+userColumns,
		email, passwordHash, username,
	))
}

// GetUserByID retrieves a user by their ID
func (db *DB) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	return scanUser(db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetUserByEmail retrieves a user by their email
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email))
}

// UpdateUser updates a user's profile. passwordHash is only set when the
// password changes.
func (db *DB) UpdateUser(ctx context.Context, id int, req *models.UpdateUserRequest, passwordHash *string) (*models.User, error) {
	return scanUser(db.Pool.QueryRow(ctx, `
		UPDATE users
		SET username = COALESCE($2, username),
		    email = COALESCE($3, email),
		    kcal_goal = COALESCE($4, kcal_goal),
		    password_hash = COALESCE($5, password_hash),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns,
		id, req.Username, req.Email, req.KcalGoal, passwordHash,
	))
}

// UpdateUserLastLogin updates the user's last login timestamp
func (db *DB) UpdateUserLastLogin(ctx context.Context, id int) error {
	_, err := db.Pool.Exec(ctx, `
		UPDATE users SET last_login_at = NOW() WHERE id = $1
	`, id)
	return err
}

// MissingUserIDs returns the ids that do not belong to any user
func (db *DB) MissingUserIDs(ctx context.Context, ids []int) ([]int, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT wanted.id
		FROM unnest($1::INT[]) AS wanted(id)
		LEFT JOIN users u ON u.id = wanted.id
		WHERE u.id IS NULL
		ORDER BY wanted.id
	`, ids)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[int])
}
