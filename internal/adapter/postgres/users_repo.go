package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"foodpoints/internal/domain"
)

var _ domain.UserRepository = (*DB)(nil)

const userColumns = "username, name, password_hash, access, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var u domain.User
	var access string
	err := row.Scan(&u.Username, &u.Name, &u.PasswordHash, &access, &u.CreatedAt, &u.UpdatedAt)
	u.Access = domain.AccessLevel(access)
	return u, err
}

// FindByUsername retrieves a user by username.
func (d *DB) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	u, err := scanUser(d.sql.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = $1",
		username,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

// Insert creates a new user.
func (d *DB) Insert(ctx context.Context, u domain.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = d.now().UTC()
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}
	_, err := d.sql.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES ($1, $2, $3, $4, $5, $6)",
		u.Username, u.Name, u.PasswordHash, string(u.Access), u.CreatedAt, u.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return domain.Validation("username %q already exists", u.Username)
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Update changes name and access, and the digest when one is given.
func (d *DB) Update(ctx context.Context, username string, upd domain.UserUpdate) error {
	var (
		res sql.Result
		err error
	)
	if upd.PasswordHash != nil {
		res, err = d.sql.ExecContext(ctx,
			"UPDATE users SET name = $1, access = $2, password_hash = $3, updated_at = $4 WHERE username = $5",
			upd.Name, string(upd.Access), *upd.PasswordHash, d.now().UTC(), username,
		)
	} else {
		res, err = d.sql.ExecContext(ctx,
			"UPDATE users SET name = $1, access = $2, updated_at = $3 WHERE username = $4",
			upd.Name, string(upd.Access), d.now().UTC(), username,
		)
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n == 0 {
		return domain.NotFound("account %q not found", username)
	}
	return nil
}

// ListAll returns all users ordered by username.
func (d *DB) ListAll(ctx context.Context) ([]domain.User, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Count returns the total number of users.
func (d *DB) Count(ctx context.Context) (int, error) {
	var count int
	err := d.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}
