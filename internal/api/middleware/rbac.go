package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/darkr4m/5StarK9/internal/core/domain"
)

// RBAC admits active users whose user_type is one of allowed. Must run after Auth.
func RBAC(allowed ...domain.Role) echo.MiddlewareFunc {
	set := make(map[domain.Role]struct{}, len(allowed))
	for _, r := range allowed {
		set[r] = struct{}{}
	}

	return guard(func(u *domain.User) bool {
		_, ok := set[u.UserType]
		return ok
	})
}

// RequireStaff admits users allowed to manage client profiles: the
// is_staff_member flag or an ADMIN role.
func RequireStaff() echo.MiddlewareFunc {
	return guard((*domain.User).CanManageClients)
}

func guard(allow func(*domain.User) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication credentials were not provided")
			}
			if !user.IsActive || !allow(user) {
				return echo.NewHTTPError(http.StatusForbidden, "you do not have permission to perform this action")
			}
			return next(c)
		}
	}
}
