package domain

import (
	"context"
	"time"
)

// AuthStatus is the authentication state of a Session.
type AuthStatus string

const (
	StatusUnauthenticated AuthStatus = "unauthenticated"
	StatusAuthenticated   AuthStatus = "authenticated"
	StatusFailed          AuthStatus = "failed"
)

// WorkflowState is the position within one food-logging cycle.
type WorkflowState string

const (
	StateIdle     WorkflowState = "idle"
	StateSearched WorkflowState = "searched"
	StateSelected WorkflowState = "selected"
	StateScored   WorkflowState = "scored"
	StateLogged   WorkflowState = "logged"
)

// Identity is the authenticated principal held by a Session.
type Identity struct {
	Name     string      `json:"name"`
	Username string      `json:"username"`
	Access   AccessLevel `json:"access"`
}

// IsAdmin reports whether the identity may manage accounts.
func (i Identity) IsAdmin() bool { return i.Access == AccessAdmin }

// Session is the per-user interaction state. It is treated as a value:
// transitions take a Session and return the next one.
type Session struct {
	Status      AuthStatus      `json:"status"`
	Identity    *Identity       `json:"identity,omitempty"`
	State       WorkflowState   `json:"state"`
	Candidates  []FoodCandidate `json:"candidates,omitempty"`
	Selected    *FoodCandidate  `json:"selected,omitempty"`
	Inputs      Nutrients       `json:"inputs"`
	Points      *float64        `json:"points,omitempty"`
	LastEntryID string          `json:"lastEntryId,omitempty"`
}

// NewSession returns the initial unauthenticated session.
func NewSession() Session {
	return Session{Status: StatusUnauthenticated, State: StateIdle}
}

// Authenticated returns a fresh session for id.
func Authenticated(id Identity) Session {
	return Session{Status: StatusAuthenticated, Identity: &id, State: StateIdle}
}

// FailedLogin returns the session after a rejected login attempt.
func FailedLogin() Session {
	return Session{Status: StatusFailed, State: StateIdle}
}

// LoggedIn reports whether the session holds an authenticated identity.
func (s Session) LoggedIn() bool {
	return s.Status == StatusAuthenticated && s.Identity != nil
}

// PendingLog reports whether a computed score is waiting to be logged.
func (s Session) PendingLog() bool {
	return s.State == StateScored && s.Points != nil
}

// Username returns the identity's username, or "" when logged out.
func (s Session) Username() string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.Username
}

// Clone returns a copy that shares no mutable memory with s.
func (s Session) Clone() Session {
	out := s
	if s.Identity != nil {
		id := *s.Identity
		out.Identity = &id
	}
	if s.Candidates != nil {
		out.Candidates = append([]FoodCandidate(nil), s.Candidates...)
	}
	if s.Selected != nil {
		sel := *s.Selected
		out.Selected = &sel
	}
	if s.Points != nil {
		p := *s.Points
		out.Points = &p
	}
	return out
}

// SessionStore keeps workflow sessions between HTTP requests, keyed by login
// token. Load returns ErrNotFound for unknown keys.
type SessionStore interface {
	Load(ctx context.Context, key string) (Session, error)
	Save(ctx context.Context, key string, s Session, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
