package app

import (
	"context"
	"errors"
	"testing"

	"foodpoints/internal/domain"
)

func adminSession() domain.Session {
	return domain.Authenticated(domain.Identity{Name: "Admin", Username: "admin", Access: domain.AccessAdmin})
}

func userSession() domain.Session {
	return domain.Authenticated(domain.Identity{Name: "User", Username: "user", Access: domain.AccessUser})
}

func TestAccountsService_RequiresAdmin(t *testing.T) {
	users := &mockUserRepo{
		insertFn: func(context.Context, domain.User) error {
			t.Error("insert must not be called")
			return nil
		},
		updateFn: func(context.Context, string, domain.UserUpdate) error {
			t.Error("update must not be called")
			return nil
		},
	}
	svc := NewAccountsService(users, testDigest)
	ctx := context.Background()

	in := NewUser{Name: "N", Username: "n", Password: "p", Access: domain.AccessUser}
	if err := svc.CreateUser(ctx, userSession(), in); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("CreateUser: expected forbidden, got %v", err)
	}
	if err := svc.EditUser(ctx, userSession(), "n", AccountEdit{Name: "N", Access: domain.AccessUser}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("EditUser: expected forbidden, got %v", err)
	}
	if _, err := svc.ListUsers(ctx, domain.NewSession()); !errors.Is(err, domain.ErrAuthentication) {
		t.Errorf("ListUsers: expected authentication error, got %v", err)
	}
}

func TestAccountsService_CreateUser(t *testing.T) {
	var inserted domain.User
	users := &mockUserRepo{
		insertFn: func(_ context.Context, u domain.User) error {
			inserted = u
			return nil
		},
	}
	svc := NewAccountsService(users, testDigest)

	err := svc.CreateUser(context.Background(), adminSession(), NewUser{
		Name: "Carol", Username: "carol", Password: "pw", Access: domain.AccessUser,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inserted.Username != "carol" || inserted.Name != "Carol" || inserted.Access != domain.AccessUser {
		t.Errorf("unexpected account %+v", inserted)
	}
	if inserted.PasswordHash == "pw" || !testDigest.Matches(inserted.PasswordHash, "pw") {
		t.Error("expected a digest of the password to be stored")
	}
}

func TestAccountsService_CreateUser_Validation(t *testing.T) {
	users := &mockUserRepo{
		findByUsernameFn: func(_ context.Context, username string) (*domain.User, error) {
			if username == "taken" {
				return &domain.User{Username: "taken"}, nil
			}
			return nil, nil
		},
		insertFn: func(context.Context, domain.User) error {
			t.Error("insert must not be called")
			return nil
		},
	}
	svc := NewAccountsService(users, testDigest)

	tests := []struct {
		name string
		in   NewUser
	}{
		{"empty name", NewUser{Username: "u", Password: "p", Access: domain.AccessUser}},
		{"empty username", NewUser{Name: "N", Password: "p", Access: domain.AccessUser}},
		{"empty password", NewUser{Name: "N", Username: "u", Access: domain.AccessUser}},
		{"unknown access", NewUser{Name: "N", Username: "u", Password: "p", Access: "root"}},
		{"existing username", NewUser{Name: "N", Username: "taken", Password: "p", Access: domain.AccessUser}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.CreateUser(context.Background(), adminSession(), tc.in)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestAccountsService_CreateUser_InsertConflict(t *testing.T) {
	users := &mockUserRepo{
		insertFn: func(context.Context, domain.User) error {
			return domain.Validation("username already exists")
		},
	}
	svc := NewAccountsService(users, testDigest)

	err := svc.CreateUser(context.Background(), adminSession(), NewUser{
		Name: "N", Username: "race", Password: "p", Access: domain.AccessUser,
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAccountsService_EditUser_BlankPasswordKeepsDigest(t *testing.T) {
	var got domain.UserUpdate
	users := &mockUserRepo{
		findByUsernameFn: func(_ context.Context, username string) (*domain.User, error) {
			return &domain.User{Username: username, Name: "Old", PasswordHash: "old-digest", Access: domain.AccessUser}, nil
		},
		updateFn: func(_ context.Context, _ string, upd domain.UserUpdate) error {
			got = upd
			return nil
		},
	}
	tokens := &mockTokenRepo{
		deleteByUsernameFn: func(context.Context, string) error {
			t.Error("tokens must survive an edit without a new password")
			return nil
		},
	}
	svc := NewAccountsService(users, testDigest).WithTokens(tokens)

	err := svc.EditUser(context.Background(), adminSession(), "dave", AccountEdit{Name: "Dave", Access: domain.AccessAdmin})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.PasswordHash != nil {
		t.Error("blank password must leave the digest untouched")
	}
	if got.Name != "Dave" || got.Access != domain.AccessAdmin {
		t.Errorf("expected name and access updated, got %+v", got)
	}
}

func TestAccountsService_EditUser_NewPassword(t *testing.T) {
	var got domain.UserUpdate
	users := &mockUserRepo{
		findByUsernameFn: func(_ context.Context, username string) (*domain.User, error) {
			return &domain.User{Username: username}, nil
		},
		updateFn: func(_ context.Context, _ string, upd domain.UserUpdate) error {
			got = upd
			return nil
		},
	}
	var revoked string
	tokens := &mockTokenRepo{
		deleteByUsernameFn: func(_ context.Context, username string) error {
			revoked = username
			return nil
		},
	}
	svc := NewAccountsService(users, testDigest).WithTokens(tokens)

	err := svc.EditUser(context.Background(), adminSession(), "dave", AccountEdit{Name: "Dave", Password: "new", Access: domain.AccessUser})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.PasswordHash == nil || !testDigest.Matches(*got.PasswordHash, "new") {
		t.Error("expected digest of new password")
	}
	if revoked != "dave" {
		t.Errorf("expected dave's tokens revoked, got %q", revoked)
	}
}

func TestAccountsService_EditUser_NotFound(t *testing.T) {
	svc := NewAccountsService(&mockUserRepo{}, testDigest)
	err := svc.EditUser(context.Background(), adminSession(), "ghost", AccountEdit{Name: "G", Access: domain.AccessUser})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAccountsService_ListUsers(t *testing.T) {
	users := &mockUserRepo{
		listAllFn: func(context.Context) ([]domain.User, error) {
			return []domain.User{
				{Username: "a", Name: "A", PasswordHash: "x", Access: domain.AccessAdmin},
				{Username: "b", Name: "B", PasswordHash: "y", Access: domain.AccessUser},
			}, nil
		},
	}
	svc := NewAccountsService(users, testDigest)

	accounts, err := svc.ListUsers(context.Background(), adminSession())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(accounts) != 2 || accounts[0].Username != "a" || accounts[1].Access != domain.AccessUser {
		t.Errorf("unexpected accounts %+v", accounts)
	}
}
