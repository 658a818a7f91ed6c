package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/foxxcyber/nutrilog/internal/models"
)

var ErrEntryNotFound = errors.New("daily entry not found")

const entryColumns = `e.id, e.user_id, e.food_id, e.recipe_id, e.name, e.date, e.total_kcal, e.amount, e.entry_type, e.created_at, e.updated_at`

func scanEntry(row pgx.Row, extra ...any) (*models.DailyEntry, error) {
	entry := &models.DailyEntry{}
	dest := []any{
		&entry.ID, &entry.UserID, &entry.FoodID, &entry.RecipeID, &entry.Name, &entry.Date,
		&entry.TotalKcal, &entry.Amount, &entry.EntryType, &entry.CreatedAt, &entry.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return entry, nil
}

// ListEntriesForDate lists a user's entries for one date with the names of
// the foods and recipes they refer to
func (db *DB) ListEntriesForDate(ctx context.Context, userID int, date time.Time) ([]models.DailyEntryDetail, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+entryColumns+`, f.name, f.unit, r.name
		FROM daily_entries e
		LEFT JOIN foods f ON f.id = e.food_id
		LEFT JOIN recipes r ON r.id = e.recipe_id
		WHERE e.user_id = $1 AND e.date = $2
		ORDER BY e.created_at, e.id
	`, userID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []models.DailyEntryDetail
	for rows.Next() {
		var d models.DailyEntryDetail
		entry, err := scanEntry(rows, &d.FoodName, &d.FoodUnit, &d.RecipeName)
		if err != nil {
			return nil, err
		}
		d.DailyEntry = *entry
		details = append(details, d)
	}
	return details, rows.Err()
}

const insertEntry = `
	INSERT INTO daily_entries AS e (user_id, food_id, recipe_id, name, date, total_kcal, amount, entry_type)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING ` + entryColumns

// CreateDailyEntry logs a consumption for userID on date
func (db *DB) CreateDailyEntry(ctx context.Context, userID int, date time.Time, req *models.CreateDailyEntryRequest) (*models.DailyEntry, error) {
	return scanEntry(db.Pool.QueryRow(ctx, insertEntry,
		userID, req.FoodID, req.RecipeID, req.Name, date, req.TotalKcal, req.Amount, req.EntryType,
	))
}

// CreateDailyEntries logs several consumptions in one transaction
func (db *DB) CreateDailyEntries(ctx context.Context, userID int, date time.Time, reqs []models.CreateDailyEntryRequest) ([]models.DailyEntry, error) {
	if len(reqs) == 0 {
		return []models.DailyEntry{}, nil
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	entries := make([]models.DailyEntry, 0, len(reqs))
	for i := range reqs {
		req := &reqs[i]
		entry, err := scanEntry(tx.QueryRow(ctx, insertEntry,
			userID, req.FoodID, req.RecipeID, req.Name, date, req.TotalKcal, req.Amount, req.EntryType,
		))
		if err != nil {
			return nil, fmt.Errorf("failed to log entry %d: %w", i, err)
		}
		entries = append(entries, *entry)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return entries, nil
}

// DailyTotals sums a user's kcal per date for the days ending at until,
// oldest first. Days without entries are left out.
func (db *DB) DailyTotals(ctx context.Context, userID int, until time.Time, days int) ([]models.DailyTotal, error) {
	since := until.AddDate(0, 0, -(days - 1))

	rows, err := db.Pool.Query(ctx, `
		SELECT TO_CHAR(date, 'YYYY-MM-DD'), COALESCE(SUM(total_kcal), 0)
		FROM daily_entries
		WHERE user_id = $1 AND date BETWEEN $2 AND $3
		GROUP BY date
		ORDER BY date
	`, userID, since, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := []models.DailyTotal{}
	for rows.Next() {
		var t models.DailyTotal
		if err := rows.Scan(&t.Date, &t.TotalCalories); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// DeleteDailyEntry deletes one of the user's entries
func (db *DB) DeleteDailyEntry(ctx context.Context, userID, id int) error {
	result, err := db.Pool.Exec(ctx, `
		DELETE FROM daily_entries WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}
