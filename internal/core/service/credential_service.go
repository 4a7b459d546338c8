package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/secretkeeper/secretkeeper/internal/core/domain"
	"github.com/secretkeeper/secretkeeper/internal/core/ports"
)

// dummyHash is a valid bcrypt digest compared against when the username does
// not exist, so the unknown-user and wrong-password paths cost the same.
var dummyHash = func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("credential-service-dummy"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return h
}()

// CredentialService implements local account registration and verification.
type CredentialService struct {
	repo ports.UserRepository
}

func NewCredentialService(repo ports.UserRepository) *CredentialService {
	return &CredentialService{repo: repo}
}

// Register creates a local account. Returns domain.ErrUserExists when the
// username is already taken; the plaintext password is hashed immediately and
// never retained.
func (s *CredentialService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	return s.repo.Create(ctx, user)
}

// Verify checks a username/password pair. Unknown usernames and wrong
// passwords both return domain.ErrInvalidCredentials so callers cannot tell
// which factor failed.
func (s *CredentialService) Verify(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if user.PasswordHash == "" {
		// Federated-only account, no local password to check.
		return nil, domain.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return user, nil
}
