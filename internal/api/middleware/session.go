package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/secretkeeper/secretkeeper/internal/core/domain"
	"github.com/secretkeeper/secretkeeper/internal/core/ports"
)

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "session"

// userKey is the echo context key the resumed user is stored under.
const userKey = "current_user"

// Session resumes the session cookie into the request context on every
// request. An absent, invalid, or expired token leaves the request
// anonymous; the middleware never fails the request itself.
func Session(sessions ports.SessionService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookie)
			if err == nil && cookie.Value != "" {
				if user, err := sessions.Resume(c.Request().Context(), cookie.Value); err == nil {
					c.Set(userKey, user)
				}
			}
			return next(c)
		}
	}
}

// RequireSession gates protected routes: anonymous requests are redirected
// to the login page instead of reaching the handler.
func RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CurrentUser(c) == nil {
				return c.Redirect(http.StatusFound, "/login")
			}
			return next(c)
		}
	}
}

// CurrentUser returns the user resumed by the Session middleware, or nil for
// an anonymous request.
func CurrentUser(c echo.Context) *domain.User {
	user, _ := c.Get(userKey).(*domain.User)
	return user
}

// SetCurrentUser injects a user into the request context. Used by handlers
// that establish a session mid-request and by tests.
func SetCurrentUser(c echo.Context, user *domain.User) {
	c.Set(userKey, user)
}
