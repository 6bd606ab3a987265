// Package memory implements in-memory repositories for development and testing.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"foodpoints/internal/domain"
)

// DB implements an in-memory database storage. A single mutex serializes
// every write, so each insert, update and delete is atomic.
type DB struct {
	mu     sync.Mutex
	users  map[string]domain.User
	logs   []domain.LogEntry
	tokens map[string]domain.Token
	now    func() time.Time
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		users:  make(map[string]domain.User),
		tokens: make(map[string]domain.Token),
		now:    time.Now,
	}
}

// Ensure interfaces are met.
var _ domain.UserRepository = (*DB)(nil)
var _ domain.LogRepository = (*LogRepo)(nil)
var _ domain.TokenRepository = (*TokenRepo)(nil)

// --- UserRepository ---

// FindByUsername returns a copy of the account, or nil if absent.
func (db *DB) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	u, ok := db.users[username]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// Insert stores a new account. The username must be unused.
func (db *DB) Insert(ctx context.Context, u domain.User) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.users[u.Username]; ok {
		return domain.Validation("username %q already exists", u.Username)
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = db.now().UTC()
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}
	db.users[u.Username] = u
	return nil
}

// Update applies upd to an existing account.
func (db *DB) Update(ctx context.Context, username string, upd domain.UserUpdate) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	u, ok := db.users[username]
	if !ok {
		return domain.NotFound("account %q not found", username)
	}
	u.Name = upd.Name
	u.Access = upd.Access
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	u.UpdatedAt = db.now().UTC()
	db.users[username] = u
	return nil
}

// ListAll returns every account ordered by username.
func (db *DB) ListAll(ctx context.Context) ([]domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.User, 0, len(db.users))
	for _, u := range db.users {
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b domain.User) int {
		return strings.Compare(a.Username, b.Username)
	})
	return out, nil
}

// Count returns the number of accounts.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), nil
}

// --- LogRepository ---

// LogRepo implements log entry persistence.
type LogRepo struct {
	db *DB
}

// NewLogRepo creates a new log repository.
func (db *DB) NewLogRepo() *LogRepo {
	return &LogRepo{db: db}
}

// Insert stores e under a new id and returns it.
func (r *LogRepo) Insert(ctx context.Context, e domain.LogEntry) (string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	e.ID = uuid.NewString()
	e.LoggedAt = e.LoggedAt.UTC()
	r.db.logs = append(r.db.logs, e)
	return e.ID, nil
}

// ListByOwner returns the owner's entries in insertion order.
func (r *LogRepo) ListByOwner(ctx context.Context, owner string) ([]domain.LogEntry, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []domain.LogEntry
	for _, e := range r.db.logs {
		if e.Owner == owner {
			out = append(out, e)
		}
	}
	return out, nil
}

// DeleteByID removes the owner's entry with the given id.
func (r *LogRepo) DeleteByID(ctx context.Context, owner, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	i := slices.IndexFunc(r.db.logs, func(e domain.LogEntry) bool {
		return e.ID == id && e.Owner == owner
	})
	if i < 0 {
		return domain.NotFound("log entry %s not found", id)
	}
	r.db.logs = slices.Delete(r.db.logs, i, i+1)
	return nil
}

// --- TokenRepository ---

// TokenRepo implements login token persistence.
type TokenRepo struct {
	db *DB
}

// NewTokenRepo creates a new token repository.
func (db *DB) NewTokenRepo() *TokenRepo {
	return &TokenRepo{db: db}
}

// Create stores a token.
func (r *TokenRepo) Create(ctx context.Context, t domain.Token) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.tokens[t.Value] = t
	return nil
}

// GetByToken returns the token, or nil if unknown.
func (r *TokenRepo) GetByToken(ctx context.Context, token string) (*domain.Token, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	t, ok := r.db.tokens[token]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// Delete removes a token.
func (r *TokenRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	delete(r.db.tokens, token)
	return nil
}

// DeleteByUsername removes every token issued to username.
func (r *TokenRepo) DeleteByUsername(ctx context.Context, username string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for k, t := range r.db.tokens {
		if t.Username == username {
			delete(r.db.tokens, k)
		}
	}
	return nil
}

// DeleteExpired removes all expired tokens.
func (r *TokenRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	now := r.db.now()
	for k, t := range r.db.tokens {
		if now.After(t.ExpiresAt) {
			delete(r.db.tokens, k)
		}
	}
	return nil
}
