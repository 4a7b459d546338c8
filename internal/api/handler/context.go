package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/secretkeeper/secretkeeper/internal/api/middleware"
	"github.com/secretkeeper/secretkeeper/internal/core/domain"
)

// currentUser returns the user the Session middleware resumed, or nil.
func currentUser(c echo.Context) *domain.User {
	return middleware.CurrentUser(c)
}

// setSessionCookie hands the signed session token to the client. Secure is
// toggled on the environment so local development over plain HTTP still works.
func setSessionCookie(c echo.Context, token string, ttl time.Duration, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie expires the session cookie on the client.
func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
