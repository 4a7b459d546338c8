package ports

import "context"

// IdentityProvider adapts one external OAuth2 provider. Implementations share
// a single shape; only credentials, endpoints and the subject lookup differ.
type IdentityProvider interface {
	// Name returns the provider key ("google", "facebook").
	Name() string
	// AuthCodeURL builds the provider redirect URL for the given state nonce.
	AuthCodeURL(state string) string
	// ResolveSubject exchanges the callback authorization code and returns
	// the provider's stable subject id for the authenticated user.
	ResolveSubject(ctx context.Context, code string) (string, error)
}
