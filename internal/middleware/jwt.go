package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/score-leaderboard/internal/utils"
)

// UserIDKey is the echo context key holding the authenticated user id as a
// uint64.
const UserIDKey = "user_id"

// TokenVerifier resolves a raw session token to a user id.
type TokenVerifier interface {
	Verify(raw string) (uint64, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer session token
// and stores its subject under UserIDKey.  Requests without a valid token
// are answered with 401 before the handler runs.
func JWTAuth(tokens TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(auth, "Bearer ")
			raw = strings.TrimSpace(raw)
			if !ok || raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error":  "missing_token",
					"detail": "missing bearer token",
				})
			}

			uid, err := tokens.Verify(raw)
			if err != nil {
				if errors.Is(err, utils.ErrTokenExpired) {
					return c.JSON(http.StatusUnauthorized, echo.Map{
						"error":  "token_expired",
						"detail": "Token expired",
					})
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error":  "invalid_token",
					"detail": "Invalid token",
				})
			}

			c.Set(UserIDKey, uid)
			return next(c)
		}
	}
}

// UserID returns the id stored by JWTAuth.
func UserID(c echo.Context) (uint64, bool) {
	uid, ok := c.Get(UserIDKey).(uint64)
	return uid, ok && uid != 0
}
