package ports

import (
	"context"

	"github.com/secretkeeper/secretkeeper/internal/core/domain"
)

// CredentialService registers and verifies local username/password accounts.
type CredentialService interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Verify(ctx context.Context, username, password string) (*domain.User, error)
}

// FederationService resolves an identity-provider subject id to a local user,
// creating the user on first sight (find-or-create).
type FederationService interface {
	Resolve(ctx context.Context, provider, subjectID string) (*domain.User, error)
}

// SessionService issues, resumes and revokes session tokens.
type SessionService interface {
	Establish(ctx context.Context, user *domain.User) (string, error)
	Resume(ctx context.Context, token string) (*domain.User, error)
	Terminate(ctx context.Context, token string) error
}

// SecretService handles secret submission and the shared listing.
type SecretService interface {
	Submit(ctx context.Context, userID, secret string) error
	List(ctx context.Context) ([]*domain.User, error)
}
