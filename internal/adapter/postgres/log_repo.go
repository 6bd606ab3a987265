package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"foodpoints/internal/domain"
)

var _ domain.LogRepository = (*LogRepo)(nil)

// LogRepo implements log entry persistence on DB.
type LogRepo struct {
	db *DB
}

// NewLogRepo wraps a DB as a LogRepository.
func NewLogRepo(db *DB) *LogRepo {
	return &LogRepo{db: db}
}

// Insert stores an entry under a new UUID and returns the id.
func (r *LogRepo) Insert(ctx context.Context, e domain.LogEntry) (string, error) {
	id := uuid.NewString()
	_, err := r.db.sql.ExecContext(ctx,
		`INSERT INTO log_entries (id, owner, food_name, calories, saturated_fat, sugar, protein, points, logged_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, e.Owner, e.FoodName, e.Calories, e.SaturatedFat, e.Sugar, e.Protein, e.Points, e.LoggedAt.UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("insert log entry: %w", err)
	}
	return id, nil
}

// ListByOwner returns the owner's entries, newest first.
func (r *LogRepo) ListByOwner(ctx context.Context, owner string) ([]domain.LogEntry, error) {
	rows, err := r.db.sql.QueryContext(ctx,
		`SELECT id, owner, food_name, calories, saturated_fat, sugar, protein, points, logged_at
		 FROM log_entries WHERE owner = $1 ORDER BY logged_at DESC`,
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("list log entries: %w", err)
	}
	defer rows.Close()

	var out []domain.LogEntry
	for rows.Next() {
		var e domain.LogEntry
		if err := rows.Scan(&e.ID, &e.Owner, &e.FoodName, &e.Calories, &e.SaturatedFat, &e.Sugar, &e.Protein, &e.Points, &e.LoggedAt); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteByID deletes the owner's entry with the given id.
func (r *LogRepo) DeleteByID(ctx context.Context, owner, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.NotFound("log entry %s not found", id)
	}
	res, err := r.db.sql.ExecContext(ctx, "DELETE FROM log_entries WHERE id = $1 AND owner = $2", id, owner)
	if err != nil {
		return fmt.Errorf("delete log entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete log entry: %w", err)
	}
	if n == 0 {
		return domain.NotFound("log entry %s not found", id)
	}
	return nil
}
