package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/secretkeeper/secretkeeper/internal/api/metrics"
	"github.com/secretkeeper/secretkeeper/internal/api/middleware"
	"github.com/secretkeeper/secretkeeper/internal/core/domain"
	"github.com/secretkeeper/secretkeeper/internal/core/ports"
)

// AuthHandler drives the local registration, login and logout flows.
type AuthHandler struct {
	credentials  ports.CredentialService
	sessions     ports.SessionService
	sessionTTL   time.Duration
	secureCookie bool
	log          zerolog.Logger
}

func NewAuthHandler(credentials ports.CredentialService, sessions ports.SessionService, sessionTTL time.Duration, secureCookie bool, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		credentials:  credentials,
		sessions:     sessions,
		sessionTTL:   sessionTTL,
		secureCookie: secureCookie,
		log:          log,
	}
}

type credentialsForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// Register creates a local account and establishes a session. A taken
// username sends the visitor back to the registration form.
func (h *AuthHandler) Register(c echo.Context) error {
	var form credentialsForm
	if err := c.Bind(&form); err != nil {
		return c.Redirect(http.StatusFound, "/register")
	}
	if err := c.Validate(&form); err != nil {
		return c.Redirect(http.StatusFound, "/register")
	}

	user, err := h.credentials.Register(c.Request().Context(), form.Username, form.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserExists):
			metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
			return c.Redirect(http.StatusFound, "/register")
		case errors.Is(err, domain.ErrInvalidCredentials):
			metrics.RegistrationsTotal.WithLabelValues("rejected").Inc()
			return c.Redirect(http.StatusFound, "/register")
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.RegistrationsTotal.WithLabelValues("success").Inc()

	return h.startSession(c, user, "local")
}

// Login verifies local credentials and establishes a session. Rejections
// never distinguish an unknown username from a wrong password.
func (h *AuthHandler) Login(c echo.Context) error {
	var form credentialsForm
	if err := c.Bind(&form); err != nil {
		return c.Redirect(http.StatusFound, "/login")
	}
	if err := c.Validate(&form); err != nil {
		return c.Redirect(http.StatusFound, "/login")
	}

	user, err := h.credentials.Verify(c.Request().Context(), form.Username, form.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues("local", "rejected").Inc()
			h.log.Warn().Str("username", form.Username).Msg("failed login attempt")
			return c.Redirect(http.StatusFound, "/login")
		}
		metrics.LoginsTotal.WithLabelValues("local", "error").Inc()
		return err
	}
	metrics.LoginsTotal.WithLabelValues("local", "success").Inc()

	return h.startSession(c, user, "local")
}

// Logout terminates the session and clears the cookie. Safe to call while
// anonymous.
func (h *AuthHandler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(middleware.SessionCookie); err == nil && cookie.Value != "" {
		if err := h.sessions.Terminate(c.Request().Context(), cookie.Value); err != nil {
			h.log.Error().Err(err).Msg("terminate session")
		} else {
			metrics.SessionsTerminatedTotal.Inc()
		}
	}
	clearSessionCookie(c)
	return c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) startSession(c echo.Context, user *domain.User, method string) error {
	token, err := h.sessions.Establish(c.Request().Context(), user)
	if err != nil {
		h.log.Error().Err(err).Str("method", method).Msg("establish session")
		return err
	}
	setSessionCookie(c, token, h.sessionTTL, h.secureCookie)
	return c.Redirect(http.StatusFound, "/secrets")
}
