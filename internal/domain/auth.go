// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"
)

// AccessLevel is the per-account tier that gates administrative operations.
type AccessLevel string

const (
	AccessUser  AccessLevel = "user"
	AccessAdmin AccessLevel = "admin"
)

// Valid reports whether a is a known access level.
func (a AccessLevel) Valid() bool {
	return a == AccessUser || a == AccessAdmin
}

// User is a stored account. Username is the unique key.
type User struct {
	Username     string
	Name         string
	PasswordHash string
	Access       AccessLevel
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserUpdate carries the mutable fields of an account. A nil PasswordHash
// leaves the stored digest untouched.
type UserUpdate struct {
	Name         string
	Access       AccessLevel
	PasswordHash *string
}

// Token is an issued login token for the HTTP surface.
type Token struct {
	Value     string
	Username  string
	UserAgent string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// UserRepository is the credential store port.
// FindByUsername returns (nil, nil) when the account does not exist.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	Insert(ctx context.Context, u User) error
	Update(ctx context.Context, username string, upd UserUpdate) error
	ListAll(ctx context.Context) ([]User, error)
	Count(ctx context.Context) (int, error)
}

// TokenRepository persists login tokens.
// GetByToken returns (nil, nil) when the token is unknown.
type TokenRepository interface {
	Create(ctx context.Context, t Token) error
	GetByToken(ctx context.Context, token string) (*Token, error)
	Delete(ctx context.Context, token string) error
	DeleteByUsername(ctx context.Context, username string) error
	DeleteExpired(ctx context.Context) error
}
