// Package oauth implements the identity-provider adapters. Each provider is
// the same machine with different credentials: an oauth2.Config for the
// redirect/exchange legs and a userinfo endpoint the stable subject id is
// read from. Nothing beyond the subject id is kept from the provider payload.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"

	"github.com/secretkeeper/secretkeeper/internal/core/domain"
	"github.com/secretkeeper/secretkeeper/internal/infrastructure/config"
)

const (
	googleUserinfoURL   = "https://www.googleapis.com/oauth2/v3/userinfo"
	facebookUserinfoURL = "https://graph.facebook.com/me?fields=id"
)

type Provider struct {
	name        string
	conf        *oauth2.Config
	userinfoURL string
	subjectKey  string
}

// NewGoogle builds the Google adapter. Scope "profile" is the minimum that
// makes the userinfo endpoint return a subject id.
func NewGoogle(cfg config.ProviderConfig) *Provider {
	return &Provider{
		name: domain.ProviderGoogle,
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       []string{"profile"},
			Endpoint:     google.Endpoint,
		},
		userinfoURL: googleUserinfoURL,
		subjectKey:  "sub",
	}
}

// NewFacebook builds the Facebook adapter.
func NewFacebook(cfg config.ProviderConfig) *Provider {
	return &Provider{
		name: domain.ProviderFacebook,
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Endpoint:     facebook.Endpoint,
		},
		userinfoURL: facebookUserinfoURL,
		subjectKey:  "id",
	}
}

func (p *Provider) Name() string {
	return p.name
}

// AuthCodeURL builds the provider redirect URL carrying the state nonce.
func (p *Provider) AuthCodeURL(state string) string {
	return p.conf.AuthCodeURL(state)
}

// ResolveSubject exchanges the callback code for a token and fetches the
// provider's stable subject id. Every failure along the way is a
// domain.ErrProviderHandshake: the caller only needs to know the handshake
// did not produce an identity.
func (p *Provider) ResolveSubject(ctx context.Context, code string) (string, error) {
	token, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%w: %s exchange: %v", domain.ErrProviderHandshake, p.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userinfoURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %s userinfo: %v", domain.ErrProviderHandshake, p.name, err)
	}

	resp, err := p.conf.Client(ctx, token).Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s userinfo: %v", domain.ErrProviderHandshake, p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s userinfo: status %d", domain.ErrProviderHandshake, p.name, resp.StatusCode)
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: %s userinfo decode: %v", domain.ErrProviderHandshake, p.name, err)
	}

	subject, _ := payload[p.subjectKey].(string)
	if subject == "" {
		return "", fmt.Errorf("%w: %s userinfo: missing subject", domain.ErrProviderHandshake, p.name)
	}
	return subject, nil
}
