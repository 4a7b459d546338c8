package ports

import (
	"context"
	"time"
)

// SessionStore persists the binding between an opaque session id and a user
// id. Implementations own expiry; a lookup past the TTL behaves like a
// missing session.
type SessionStore interface {
	Put(ctx context.Context, sessionID, userID string, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
}
