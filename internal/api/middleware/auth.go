package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/darkr4m/5StarK9/internal/core/domain"
	"github.com/darkr4m/5StarK9/internal/core/ports"
)

// Context keys set by the auth middleware.
const (
	UserKey  = "user"
	TokenKey = "token"
)

// Authenticator resolves a token key to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, tokenKey string) (*domain.User, error)
}

var _ Authenticator = (ports.AccountService)(nil)

// Auth requires a valid "Token <key>" or "Bearer <key>" header and injects
// the resolved user and key into the context.
func Auth(auth Authenticator) echo.MiddlewareFunc {
	return authenticate(auth, false)
}

// OptionalAuth behaves like Auth when the header is present and lets the
// request through anonymously when it is not.
func OptionalAuth(auth Authenticator) echo.MiddlewareFunc {
	return authenticate(auth, true)
}

func authenticate(auth Authenticator, optional bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				if optional {
					return next(c)
				}
				return unauthorized(c, "authentication credentials were not provided")
			}

			key, ok := parseAuthorization(authHeader)
			if !ok {
				return unauthorized(c, "invalid authorization header")
			}

			user, err := auth.Authenticate(c.Request().Context(), key)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthenticated) {
					return unauthorized(c, "invalid token")
				}
				return err
			}

			c.Set(UserKey, user)
			c.Set(TokenKey, key)
			return next(c)
		}
	}
}

// parseAuthorization accepts both schemes, case-insensitively.
func parseAuthorization(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "token") && !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(c echo.Context, msg string) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Token")
	return echo.NewHTTPError(http.StatusUnauthorized, msg)
}

// CurrentUser returns the authenticated user, or nil for anonymous requests.
func CurrentUser(c echo.Context) *domain.User {
	u, _ := c.Get(UserKey).(*domain.User)
	return u
}

// CurrentToken returns the key the request authenticated with.
func CurrentToken(c echo.Context) string {
	k, _ := c.Get(TokenKey).(string)
	return k
}
