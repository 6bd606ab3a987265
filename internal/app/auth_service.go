// Package app holds the application services and business logic.
package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"sync"
	"time"

	"foodpoints/internal/domain"
	"foodpoints/internal/metrics"
)

var (
	// ErrInvalidCredentials indicates that the provided username or password was incorrect.
	ErrInvalidCredentials error = domain.Authentication("invalid username or password")

	// ErrSessionNotFound indicates that the requested token does not exist.
	ErrSessionNotFound error = domain.Authentication("session not found")

	// ErrSessionExpired indicates that the token has expired.
	ErrSessionExpired error = domain.Authentication("session expired")

	// ErrUserNotFound indicates that the token's account no longer exists.
	ErrUserNotFound error = domain.Authentication("user not found")
)

// DefaultSessionTTL is the lifetime of an issued login token.
const DefaultSessionTTL = 24 * time.Hour

// AuthService is the authentication gate. It verifies credentials, issues
// login tokens and keeps each token's workflow session in a SessionStore.
type AuthService struct {
	users    domain.UserRepository
	tokens   domain.TokenRepository
	sessions domain.SessionStore
	digest   Digester
	ttl      time.Duration
	metrics  metrics.Recorder
	now      func() time.Time

	setupMu sync.Mutex
}

// NewAuthService creates a new authentication service.
func NewAuthService(users domain.UserRepository, tokens domain.TokenRepository, sessions domain.SessionStore, digest Digester, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &AuthService{
		users:    users,
		tokens:   tokens,
		sessions: sessions,
		digest:   digest,
		ttl:      ttl,
		metrics:  metrics.Noop{},
		now:      time.Now,
	}
}

// WithMetrics reports login outcomes to m.
func (s *AuthService) WithMetrics(m metrics.Recorder) *AuthService {
	s.metrics = m
	return s
}

// SessionTTL is the lifetime of issued tokens.
func (s *AuthService) SessionTTL() time.Duration { return s.ttl }

// Authenticate checks username and password against the credential store.
// A match yields an authenticated session; an unknown user or wrong password
// yields a failed session and ErrInvalidCredentials. A store error leaves
// prior unchanged.
func (s *AuthService) Authenticate(ctx context.Context, prior domain.Session, username, password string) (domain.Session, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		s.metrics.RecordLogin(metrics.OutcomeError)
		return prior, domain.Persistence("look up account", err)
	}
	if user == nil || !s.digest.Matches(user.PasswordHash, password) {
		s.metrics.RecordLogin(metrics.OutcomeInvalid)
		slog.WarnContext(ctx, "login rejected", slog.String("username", username))
		return domain.FailedLogin(), ErrInvalidCredentials
	}

	s.metrics.RecordLogin(metrics.OutcomeOK)
	return domain.Authenticated(identityOf(user)), nil
}

// Login authenticates and issues a token whose session is stored for later
// requests. On failure the returned session reports the failed status.
func (s *AuthService) Login(ctx context.Context, username, password, userAgent string) (string, domain.Session, error) {
	sess, err := s.Authenticate(ctx, domain.NewSession(), username, password)
	if err != nil {
		return "", sess, err
	}
	token, err := s.issue(ctx, sess, userAgent)
	if err != nil {
		return "", domain.NewSession(), err
	}
	slog.InfoContext(ctx, "user logged in", slog.String("username", username))
	return token, sess, nil
}

// LoginWithUser issues a token for an account already verified by an external
// identity provider. Accounts are never created here.
func (s *AuthService) LoginWithUser(ctx context.Context, username, userAgent string) (string, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return "", domain.Persistence("look up account", err)
	}
	if user == nil {
		s.metrics.RecordLogin(metrics.OutcomeRejected)
		slog.WarnContext(ctx, "sso login for unknown account", slog.String("username", username))
		return "", ErrInvalidCredentials
	}
	s.metrics.RecordLogin(metrics.OutcomeOK)
	return s.issue(ctx, domain.Authenticated(identityOf(user)), userAgent)
}

// Logout invalidates a token and discards its session. The returned session
// is the initial unauthenticated one.
func (s *AuthService) Logout(ctx context.Context, token string) (domain.Session, error) {
	if err := s.tokens.Delete(ctx, token); err != nil {
		return domain.NewSession(), domain.Persistence("delete token", err)
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		return domain.NewSession(), domain.Persistence("delete session", err)
	}
	return domain.NewSession(), nil
}

// Resolve checks that a token is valid for userAgent and returns its session.
// The identity is reloaded from the account on every call so access changes
// apply at once. A session missing from the store is rebuilt from the account.
func (s *AuthService) Resolve(ctx context.Context, token, userAgent string) (domain.Session, error) {
	t, err := s.tokens.GetByToken(ctx, token)
	if err != nil {
		return domain.NewSession(), domain.Persistence("look up token", err)
	}
	if t == nil {
		return domain.NewSession(), ErrSessionNotFound
	}

	if s.now().After(t.ExpiresAt) || t.UserAgent != userAgent {
		s.revoke(ctx, token)
		return domain.NewSession(), ErrSessionExpired
	}

	user, err := s.users.FindByUsername(ctx, t.Username)
	if err != nil {
		return domain.NewSession(), domain.Persistence("look up account", err)
	}
	if user == nil {
		s.revoke(ctx, token)
		return domain.NewSession(), ErrUserNotFound
	}
	identity := identityOf(user)

	sess, err := s.sessions.Load(ctx, token)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.NewSession(), domain.Persistence("load session", err)
	}
	if err != nil || !sess.LoggedIn() {
		return domain.Authenticated(identity), nil
	}
	sess = sess.Clone()
	sess.Identity = &identity
	return sess, nil
}

// Save stores the session reached by a transition under token.
func (s *AuthService) Save(ctx context.Context, token string, sess domain.Session) error {
	if err := s.sessions.Save(ctx, token, sess, s.ttl); err != nil {
		return domain.Persistence("save session", err)
	}
	return nil
}

// expiringStore is implemented by session stores that need an explicit sweep.
type expiringStore interface {
	DeleteExpired(ctx context.Context) error
}

// CleanupExpired removes expired tokens, and expired sessions when the store
// does not expire them itself.
func (s *AuthService) CleanupExpired(ctx context.Context) error {
	if err := s.tokens.DeleteExpired(ctx); err != nil {
		return err
	}
	if es, ok := s.sessions.(expiringStore); ok {
		return es.DeleteExpired(ctx)
	}
	return nil
}

// CreateInitialAdmin creates the first account, with admin access, if no
// accounts exist. Concurrent calls are serialized so only one can succeed.
func (s *AuthService) CreateInitialAdmin(ctx context.Context, name, username, password string) error {
	if name == "" || username == "" || password == "" {
		return domain.Validation("name, username and password are required")
	}
	s.setupMu.Lock()
	defer s.setupMu.Unlock()

	count, err := s.users.Count(ctx)
	if err != nil {
		return domain.Persistence("count accounts", err)
	}
	if count > 0 {
		return domain.Validation("accounts already exist")
	}

	hash, err := s.digest.Digest(password)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	err = s.users.Insert(ctx, domain.User{
		Username:     username,
		Name:         name,
		PasswordHash: hash,
		Access:       domain.AccessAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return storeError("create account", err)
	}
	slog.InfoContext(ctx, "initial admin created", slog.String("username", username))
	return nil
}

func (s *AuthService) issue(ctx context.Context, sess domain.Session, userAgent string) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}

	now := s.now()
	err = s.tokens.Create(ctx, domain.Token{
		Value:     token,
		Username:  sess.Username(),
		UserAgent: userAgent,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	})
	if err != nil {
		return "", domain.Persistence("create token", err)
	}
	if err := s.Save(ctx, token, sess); err != nil {
		return "", err
	}
	return token, nil
}

func (s *AuthService) revoke(ctx context.Context, token string) {
	_ = s.tokens.Delete(ctx, token)
	_ = s.sessions.Delete(ctx, token)
}

func identityOf(u *domain.User) domain.Identity {
	return domain.Identity{Name: u.Name, Username: u.Username, Access: u.Access}
}

// storeError keeps typed store errors (validation, not found) and wraps the
// rest as persistence failures.
func storeError(msg string, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	return domain.Persistence(msg, err)
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
