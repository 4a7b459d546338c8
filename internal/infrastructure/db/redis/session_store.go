package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/secretkeeper/secretkeeper/internal/core/domain"
)

// SessionStore keeps session-id → user-id bindings in Redis.
// Key format: session:<session_id>; expiry rides on the key TTL, so an
// expired session simply stops resolving.
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a SessionStore wrapping the given Redis client.
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func (s *SessionStore) Put(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(sessionID), userID, ttl).Err(); err != nil {
		return fmt.Errorf("session put: %w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Get returns the bound user id, or "" when the session does not exist or
// has expired.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (string, error) {
	userID, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("session get: %w: %v", domain.ErrStoreUnavailable, err)
	}
	return userID, nil
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("session delete: %w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *SessionStore) key(sessionID string) string {
	return "session:" + sessionID
}
