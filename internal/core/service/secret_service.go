package service

import (
	"context"
	"time"

	"github.com/secretkeeper/secretkeeper/internal/core/domain"
	"github.com/secretkeeper/secretkeeper/internal/core/ports"
)

// SecretService persists submitted secrets and serves the shared listing.
type SecretService struct {
	repo ports.UserRepository
}

func NewSecretService(repo ports.UserRepository) *SecretService {
	return &SecretService{repo: repo}
}

// Submit stores the secret on the user's record, replacing any prior value.
func (s *SecretService) Submit(ctx context.Context, userID, secret string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	user.Secret = secret
	user.UpdatedAt = time.Now().UTC()
	return s.repo.Save(ctx, user)
}

// List returns every user that has submitted a non-empty secret.
func (s *SecretService) List(ctx context.Context) ([]*domain.User, error) {
	return s.repo.FindWithSecrets(ctx)
}
