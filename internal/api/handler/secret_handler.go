package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/secretkeeper/secretkeeper/internal/api/metrics"
	"github.com/secretkeeper/secretkeeper/internal/core/ports"
)

// SecretHandler persists submitted secrets for the current user.
type SecretHandler struct {
	secrets ports.SecretService
	log     zerolog.Logger
}

func NewSecretHandler(secrets ports.SecretService, log zerolog.Logger) *SecretHandler {
	return &SecretHandler{secrets: secrets, log: log}
}

type submitForm struct {
	Secret string `form:"secret" validate:"required"`
}

// Submit overwrites the current user's secret. An anonymous request is
// bounced to /login without persisting anything.
func (h *SecretHandler) Submit(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return c.Redirect(http.StatusFound, "/login")
	}

	var form submitForm
	if err := c.Bind(&form); err != nil {
		return c.Redirect(http.StatusFound, "/submit")
	}
	if err := c.Validate(&form); err != nil {
		return c.Redirect(http.StatusFound, "/submit")
	}

	if err := h.secrets.Submit(c.Request().Context(), user.ID, form.Secret); err != nil {
		h.log.Error().Err(err).Str("user_id", user.ID).Msg("persist secret")
		return err
	}
	metrics.SecretsSubmittedTotal.Inc()

	return c.Redirect(http.StatusFound, "/secrets")
}
