package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/secretkeeper/secretkeeper/internal/core/domain"
	"github.com/secretkeeper/secretkeeper/internal/core/ports"
)

// FederationService maps provider subject ids to local users with
// find-or-create semantics. Existing records are returned untouched: only
// the id binding is trusted from the provider, never profile fields.
type FederationService struct {
	repo ports.UserRepository
}

func NewFederationService(repo ports.UserRepository) *FederationService {
	return &FederationService{repo: repo}
}

// Resolve returns the user bound to (provider, subjectID), creating one on
// first sight. Two concurrent first-time callbacks for the same subject id
// race on the insert; the loser's duplicate-key failure is resolved by
// re-reading the winner's record, so both calls settle on one user.
func (s *FederationService) Resolve(ctx context.Context, provider, subjectID string) (*domain.User, error) {
	if subjectID == "" {
		return nil, domain.ErrProviderHandshake
	}

	user, err := s.repo.FindByProviderID(ctx, provider, subjectID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	fresh := &domain.User{CreatedAt: now, UpdatedAt: now}
	switch provider {
	case domain.ProviderGoogle:
		fresh.GoogleID = subjectID
	case domain.ProviderFacebook:
		fresh.FacebookID = subjectID
	default:
		return nil, fmt.Errorf("unknown identity provider %q", provider)
	}

	created, err := s.repo.Create(ctx, fresh)
	if err == nil {
		return created, nil
	}
	if errors.Is(err, domain.ErrUserExists) {
		return s.repo.FindByProviderID(ctx, provider, subjectID)
	}
	return nil, err
}
