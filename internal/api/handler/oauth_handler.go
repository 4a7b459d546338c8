package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/secretkeeper/secretkeeper/internal/api/metrics"
	"github.com/secretkeeper/secretkeeper/internal/core/ports"
)

const (
	stateCookie = "oauth_state"
	stateTTL    = 10 * time.Minute
)

// OAuthHandler drives the federated login flows: a begin leg that redirects
// to the provider and a callback leg that resolves the subject id to a local
// user. Every callback failure lands on /login; internal causes are logged,
// never shown.
type OAuthHandler struct {
	federation   ports.FederationService
	sessions     ports.SessionService
	sessionTTL   time.Duration
	secureCookie bool
	log          zerolog.Logger
}

func NewOAuthHandler(federation ports.FederationService, sessions ports.SessionService, sessionTTL time.Duration, secureCookie bool, log zerolog.Logger) *OAuthHandler {
	return &OAuthHandler{
		federation:   federation,
		sessions:     sessions,
		sessionTTL:   sessionTTL,
		secureCookie: secureCookie,
		log:          log,
	}
}

// Begin starts the provider handshake: a fresh state nonce goes into a
// short-lived cookie and into the provider redirect URL.
func (h *OAuthHandler) Begin(provider ports.IdentityProvider) echo.HandlerFunc {
	return func(c echo.Context) error {
		state := uuid.NewString()
		c.SetCookie(&http.Cookie{
			Name:     stateCookie,
			Value:    state,
			Path:     "/",
			Expires:  time.Now().Add(stateTTL),
			HttpOnly: true,
			Secure:   h.secureCookie,
			SameSite: http.SameSiteLaxMode,
		})
		return c.Redirect(http.StatusFound, provider.AuthCodeURL(state))
	}
}

// Callback completes the handshake: state check, code exchange, subject
// resolution, find-or-create, session. Success lands on /secrets.
func (h *OAuthHandler) Callback(provider ports.IdentityProvider) echo.HandlerFunc {
	return func(c echo.Context) error {
		name := provider.Name()

		cookie, err := c.Cookie(stateCookie)
		if err != nil || cookie.Value == "" || cookie.Value != c.QueryParam("state") {
			metrics.LoginsTotal.WithLabelValues(name, "rejected").Inc()
			h.log.Warn().Str("provider", name).Msg("oauth state mismatch")
			return c.Redirect(http.StatusFound, "/login")
		}
		h.clearStateCookie(c)

		code := c.QueryParam("code")
		if code == "" {
			// Provider denied or the visitor cancelled.
			metrics.LoginsTotal.WithLabelValues(name, "rejected").Inc()
			return c.Redirect(http.StatusFound, "/login")
		}

		subject, err := provider.ResolveSubject(c.Request().Context(), code)
		if err != nil {
			metrics.LoginsTotal.WithLabelValues(name, "error").Inc()
			h.log.Warn().Err(err).Str("provider", name).Msg("oauth handshake failed")
			return c.Redirect(http.StatusFound, "/login")
		}

		user, err := h.federation.Resolve(c.Request().Context(), name, subject)
		if err != nil {
			metrics.LoginsTotal.WithLabelValues(name, "error").Inc()
			return err
		}

		token, err := h.sessions.Establish(c.Request().Context(), user)
		if err != nil {
			metrics.LoginsTotal.WithLabelValues(name, "error").Inc()
			return err
		}
		metrics.LoginsTotal.WithLabelValues(name, "success").Inc()

		setSessionCookie(c, token, h.sessionTTL, h.secureCookie)
		return c.Redirect(http.StatusFound, "/secrets")
	}
}

func (h *OAuthHandler) clearStateCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     stateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
