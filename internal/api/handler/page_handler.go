package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/secretkeeper/secretkeeper/internal/core/ports"
)

// PageHandler renders the static pages and the secrets listing.
type PageHandler struct {
	secrets ports.SecretService
}

func NewPageHandler(secrets ports.SecretService) *PageHandler {
	return &PageHandler{secrets: secrets}
}

func (h *PageHandler) Home(c echo.Context) error {
	return c.Render(http.StatusOK, "home.html", nil)
}

func (h *PageHandler) LoginForm(c echo.Context) error {
	return c.Render(http.StatusOK, "login.html", nil)
}

func (h *PageHandler) RegisterForm(c echo.Context) error {
	return c.Render(http.StatusOK, "register.html", nil)
}

// SubmitForm renders the secret-submission form. Route gating (redirect to
// /login while anonymous) happens in the RequireSession middleware.
func (h *PageHandler) SubmitForm(c echo.Context) error {
	return c.Render(http.StatusOK, "submit.html", nil)
}

type secretsPage struct {
	Secrets []string
}

// Secrets lists every submitted secret with no attribution: readers never
// learn who posted what.
func (h *PageHandler) Secrets(c echo.Context) error {
	users, err := h.secrets.List(c.Request().Context())
	if err != nil {
		return err
	}

	page := secretsPage{Secrets: make([]string, 0, len(users))}
	for _, u := range users {
		page.Secrets = append(page.Secrets, u.Secret)
	}
	return c.Render(http.StatusOK, "secrets.html", page)
}
