package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/secretkeeper/secretkeeper/internal/core/domain"
	"github.com/secretkeeper/secretkeeper/internal/core/ports"
)

// SessionService issues and resumes session tokens. All session state lives
// in the SessionStore; the token handed to the client is an HS256-signed JWT
// carrying only the opaque session id, so a tampered cookie fails signature
// verification before it ever reaches the store.
type SessionService struct {
	store  ports.SessionStore
	repo   ports.UserRepository
	secret string
	ttl    time.Duration
}

func NewSessionService(store ports.SessionStore, repo ports.UserRepository, secret string, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionService{store: store, repo: repo, secret: secret, ttl: ttl}
}

// Establish creates a server-side session for the user and returns the
// signed token to hand to the client.
func (s *SessionService) Establish(ctx context.Context, user *domain.User) (string, error) {
	sid := uuid.NewString()
	if err := s.store.Put(ctx, sid, user.ID, s.ttl); err != nil {
		return "", err
	}

	claims := jwt.MapClaims{
		"sid": sid,
		"exp": time.Now().Add(s.ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.secret))
}

// Resume resolves a presented token back to its user. Any defect in the
// chain (bad signature, expired token, revoked session, vanished user)
// collapses to domain.ErrNotAuthenticated.
func (s *SessionService) Resume(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrNotAuthenticated
	}

	sid, err := s.parseSessionID(token)
	if err != nil {
		return nil, domain.ErrNotAuthenticated
	}

	userID, err := s.store.Get(ctx, sid)
	if err != nil || userID == "" {
		return nil, domain.ErrNotAuthenticated
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, domain.ErrNotAuthenticated
	}
	return user, nil
}

// Terminate revokes the session behind the token. A malformed token is a
// no-op: there is nothing to revoke.
func (s *SessionService) Terminate(ctx context.Context, token string) error {
	sid, err := s.parseSessionID(token)
	if err != nil {
		return nil
	}
	return s.store.Delete(ctx, sid)
}

func (s *SessionService) parseSessionID(token string) (string, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.secret), nil
	})
	if err != nil || !tkn.Valid {
		return "", domain.ErrNotAuthenticated
	}

	sid, _ := claims["sid"].(string)
	if sid == "" {
		return "", domain.ErrNotAuthenticated
	}
	return sid, nil
}
