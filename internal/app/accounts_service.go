package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"foodpoints/internal/domain"
)

// AccountsService manages user accounts. Every operation requires a session
// whose identity has admin access.
type AccountsService struct {
	users  domain.UserRepository
	tokens domain.TokenRepository
	digest Digester
	now    func() time.Time
}

// NewAccountsService creates an AccountsService.
func NewAccountsService(users domain.UserRepository, digest Digester) *AccountsService {
	return &AccountsService{users: users, digest: digest, now: time.Now}
}

// WithTokens makes a password change revoke the account's login tokens.
func (s *AccountsService) WithTokens(tokens domain.TokenRepository) *AccountsService {
	s.tokens = tokens
	return s
}

// NewUser holds the fields for account creation.
type NewUser struct {
	Name     string             `json:"name"`
	Username string             `json:"username"`
	Password string             `json:"password"`
	Access   domain.AccessLevel `json:"access"`
}

// AccountEdit holds the fields for an account edit. An empty Password keeps the
// stored digest.
type AccountEdit struct {
	Name     string             `json:"name"`
	Password string             `json:"password"`
	Access   domain.AccessLevel `json:"access"`
}

// Account is the public view of a stored account. It never carries the digest.
type Account struct {
	Username  string             `json:"username"`
	Name      string             `json:"name"`
	Access    domain.AccessLevel `json:"access"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// CreateUser digests the password and inserts a new account.
func (s *AccountsService) CreateUser(ctx context.Context, sess domain.Session, in NewUser) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	if in.Name == "" || in.Username == "" || in.Password == "" {
		return domain.Validation("name, username and password are required")
	}
	if !in.Access.Valid() {
		return domain.Validation("unknown access level %q", in.Access)
	}

	existing, err := s.users.FindByUsername(ctx, in.Username)
	if err != nil {
		return domain.Persistence("look up account", err)
	}
	if existing != nil {
		return domain.Validation("username %q already exists", in.Username)
	}

	hash, err := s.digest.Digest(in.Password)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	err = s.users.Insert(ctx, domain.User{
		Username:     in.Username,
		Name:         in.Name,
		PasswordHash: hash,
		Access:       in.Access,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return storeError("create account", err)
	}
	slog.InfoContext(ctx, "account created",
		slog.String("username", in.Username),
		slog.String("access", string(in.Access)),
		slog.String("by", sess.Username()))
	return nil
}

// EditUser updates name and access of an existing account, and its digest
// when a new password is given.
func (s *AccountsService) EditUser(ctx context.Context, sess domain.Session, username string, in AccountEdit) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return domain.Validation("name is required")
	}
	if !in.Access.Valid() {
		return domain.Validation("unknown access level %q", in.Access)
	}

	existing, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return domain.Persistence("look up account", err)
	}
	if existing == nil {
		return domain.NotFound("account %q not found", username)
	}

	upd := domain.UserUpdate{Name: in.Name, Access: in.Access}
	if in.Password != "" {
		hash, err := s.digest.Digest(in.Password)
		if err != nil {
			return err
		}
		upd.PasswordHash = &hash
	}
	if err := s.users.Update(ctx, username, upd); err != nil {
		return storeError("update account", err)
	}
	if upd.PasswordHash != nil && s.tokens != nil {
		if err := s.tokens.DeleteByUsername(ctx, username); err != nil {
			return domain.Persistence("revoke login tokens", err)
		}
	}
	slog.InfoContext(ctx, "account updated",
		slog.String("username", username),
		slog.Bool("password_changed", upd.PasswordHash != nil),
		slog.String("by", sess.Username()))
	return nil
}

// ListUsers returns every account without digests.
func (s *AccountsService) ListUsers(ctx context.Context, sess domain.Session) ([]Account, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, domain.Persistence("list accounts", err)
	}
	out := make([]Account, 0, len(users))
	for _, u := range users {
		out = append(out, Account{
			Username:  u.Username,
			Name:      u.Name,
			Access:    u.Access,
			CreatedAt: u.CreatedAt,
			UpdatedAt: u.UpdatedAt,
		})
	}
	return out, nil
}

func requireAdmin(sess domain.Session) error {
	if !sess.LoggedIn() {
		return domain.Authentication("login required")
	}
	if !sess.Identity.IsAdmin() {
		return domain.Forbidden("admin access required")
	}
	return nil
}
