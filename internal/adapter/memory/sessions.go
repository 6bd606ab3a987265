package memory

import (
	"context"
	"sync"
	"time"

	"foodpoints/internal/domain"
)

var _ domain.SessionStore = (*SessionStore)(nil)

// SessionStore keeps workflow sessions in process memory with a TTL.
type SessionStore struct {
	mu    sync.Mutex
	items map[string]storedSession
	now   func() time.Time
}

type storedSession struct {
	session   domain.Session
	expiresAt time.Time
}

// NewSessionStore creates an empty SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{items: make(map[string]storedSession), now: time.Now}
}

// Load returns a copy of the session stored under key.
func (s *SessionStore) Load(ctx context.Context, key string) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[key]
	if !ok {
		return domain.Session{}, domain.ErrNotFound
	}
	if !item.expiresAt.IsZero() && s.now().After(item.expiresAt) {
		delete(s.items, key)
		return domain.Session{}, domain.ErrNotFound
	}
	return item.session.Clone(), nil
}

// Save stores a copy of sess under key. A zero ttl never expires.
func (s *SessionStore) Save(ctx context.Context, key string, sess domain.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := storedSession{session: sess.Clone()}
	if ttl > 0 {
		item.expiresAt = s.now().Add(ttl)
	}
	s.items[key] = item
	return nil
}

// DeleteExpired drops every session whose TTL has passed.
func (s *SessionStore) DeleteExpired(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, item := range s.items {
		if !item.expiresAt.IsZero() && now.After(item.expiresAt) {
			delete(s.items, k)
		}
	}
	return nil
}

func (s *SessionStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Delete removes key.
func (s *SessionStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
	return nil
}
