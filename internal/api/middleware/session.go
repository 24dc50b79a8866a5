package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Context keys set by RequireSession.
const (
	CtxUsername = "username"
	CtxRole     = "role"
)

// SessionReader is the part of the session service the gateway guards need.
type SessionReader interface {
	IsAuthenticated() bool
	Role() string
}

// RequireSession rejects requests while no authenticated session is held and
// injects the current username and role into the context.
func RequireSession(session SessionReader, username func() string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !session.IsAuthenticated() {
				return echo.NewHTTPError(http.StatusUnauthorized, "not logged in")
			}
			role := session.Role()
			if role == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "session has no profile loaded")
			}

			c.Set(CtxRole, role)
			if username != nil {
				c.Set(CtxUsername, username())
			}
			return next(c)
		}
	}
}
