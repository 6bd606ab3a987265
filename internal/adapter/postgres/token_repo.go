package postgres

import (
	"context"
	"database/sql"
	"errors"

	"foodpoints/internal/domain"
)

var _ domain.TokenRepository = (*TokenRepo)(nil)

// TokenRepo implements login token operations on DB.
type TokenRepo struct {
	db *DB
}

// NewTokenRepo wraps a DB as a TokenRepository.
func NewTokenRepo(db *DB) *TokenRepo {
	return &TokenRepo{db: db}
}

// Create stores a new token.
func (r *TokenRepo) Create(ctx context.Context, t domain.Token) error {
	_, err := r.db.sql.ExecContext(ctx,
		"INSERT INTO tokens (token, username, user_agent, expires_at, created_at) VALUES ($1, $2, $3, $4, $5)",
		t.Value, t.Username, t.UserAgent, t.ExpiresAt, t.CreatedAt,
	)
	return err
}

// GetByToken retrieves a token.
func (r *TokenRepo) GetByToken(ctx context.Context, token string) (*domain.Token, error) {
	var t domain.Token
	err := r.db.sql.QueryRowContext(ctx,
		"SELECT token, username, user_agent, expires_at, created_at FROM tokens WHERE token = $1",
		token,
	).Scan(&t.Value, &t.Username, &t.UserAgent, &t.ExpiresAt, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Delete deletes a token.
func (r *TokenRepo) Delete(ctx context.Context, token string) error {
	_, err := r.db.sql.ExecContext(ctx, "DELETE FROM tokens WHERE token = $1", token)
	return err
}

// DeleteByUsername deletes every token issued to username.
func (r *TokenRepo) DeleteByUsername(ctx context.Context, username string) error {
	_, err := r.db.sql.ExecContext(ctx, "DELETE FROM tokens WHERE username = $1", username)
	return err
}

// DeleteExpired deletes all expired tokens.
func (r *TokenRepo) DeleteExpired(ctx context.Context) error {
	_, err := r.db.sql.ExecContext(ctx, "DELETE FROM tokens WHERE expires_at < $1", r.db.now())
	return err
}
