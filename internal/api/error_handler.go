package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/secretkeeper/secretkeeper/internal/core/domain"
)

// NewHTTPErrorHandler returns the backstop error handler for the HTML
// surface. The policy is "gate, don't crash": authorization and credential
// failures redirect back into the flow, while store and provider failures
// are logged with their real cause and rendered as a generic failure page
// that leaks no internal detail.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		switch {
		case errors.Is(err, domain.ErrNotAuthenticated):
			_ = c.Redirect(http.StatusFound, "/login")
			return
		case errors.Is(err, domain.ErrInvalidCredentials):
			_ = c.Redirect(http.StatusFound, "/login")
			return
		case errors.Is(err, domain.ErrProviderHandshake):
			log.Warn().Err(err).Str("path", c.Path()).Msg("provider handshake failed")
			_ = c.Redirect(http.StatusFound, "/login")
			return
		case errors.Is(err, domain.ErrUserExists):
			_ = c.Redirect(http.StatusFound, "/register")
			return
		}

		// Echo's own errors (404 from the router, bad form binds, …).
		var he *echo.HTTPError
		if errors.As(err, &he) {
			_ = c.String(he.Code, http.StatusText(he.Code))
			return
		}

		// Store failures and everything unexpected.
		log.Error().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("unhandled error")

		if renderErr := c.Render(http.StatusInternalServerError, "error.html", nil); renderErr != nil {
			_ = c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		}
	}
}
