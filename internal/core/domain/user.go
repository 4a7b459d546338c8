package domain

import (
	"errors"
	"time"
)

// Identity provider names, also used as route segments (/auth/google, …).
const (
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrProviderHandshake  = errors.New("identity provider handshake failed")
	ErrStoreUnavailable   = errors.New("store unavailable")
)

// User models an account. A record always carries at least one identity
// binding: Username for local accounts, GoogleID/FacebookID for federated
// ones. Secret is empty until the user submits one; a new submission
// overwrites the previous value.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username,omitempty"`
	PasswordHash string    `json:"-"`
	GoogleID     string    `json:"-"`
	FacebookID   string    `json:"-"`
	Secret       string    `json:"secret,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasIdentity reports whether at least one identity binding is set.
func (u *User) HasIdentity() bool {
	return u.Username != "" || u.GoogleID != "" || u.FacebookID != ""
}

// BindingFor returns the subject id stored for the given provider, or "".
func (u *User) BindingFor(provider string) string {
	switch provider {
	case ProviderGoogle:
		return u.GoogleID
	case ProviderFacebook:
		return u.FacebookID
	}
	return ""
}
