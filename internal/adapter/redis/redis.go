// Package redis stores workflow sessions in Redis so they survive restarts
// and are shared between replicas.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"foodpoints/internal/domain"
)

// DefaultPrefix namespaces session keys.
const DefaultPrefix = "foodpoints:session:"

var _ domain.SessionStore = (*SessionStore)(nil)

// SessionStore implements domain.SessionStore as JSON values under prefixed
// keys. Each SET is atomic per key.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
}

// NewSessionStore creates a SessionStore. An empty prefix uses DefaultPrefix.
func NewSessionStore(client redis.UniversalClient, prefix string) *SessionStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &SessionStore{client: client, prefix: prefix}
}

// Load returns the session under key, or domain.ErrNotFound.
func (s *SessionStore) Load(ctx context.Context, key string) (domain.Session, error) {
	if key == "" {
		return domain.Session{}, errors.New("key cannot be empty")
	}
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("redis get: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return domain.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return sess, nil
}

// Save stores sess under key with ttl. A zero ttl never expires.
func (s *SessionStore) Save(ctx context.Context, key string, sess domain.Session, ttl time.Duration) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes key.
func (s *SessionStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
