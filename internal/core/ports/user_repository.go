package ports

import (
	"context"

	"github.com/secretkeeper/secretkeeper/internal/core/domain"
)

// UserRepository defines the interface for user persistence.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByProviderID(ctx context.Context, provider, subjectID string) (*domain.User, error)
	FindWithSecrets(ctx context.Context) ([]*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Save(ctx context.Context, user *domain.User) error
}
