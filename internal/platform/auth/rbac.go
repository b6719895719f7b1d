package auth

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/23f2004399/hms-tool/internal/platform/apperr"
)

// RequireRole returns middleware that checks the session holds one of the
// given roles. Anonymous requests are rejected as unauthenticated.
func RequireRole(roles ...Role) echo.MiddlewareFunc {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.String()
	}
	detail := fmt.Sprintf("required role: %s", strings.Join(names, " or "))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := SessionFromContext(c.Request().Context())
			if sess == nil {
				return apperr.ErrUnauthorized
			}
			if HasRole(sess.Role, roles...) {
				return next(c)
			}
			return apperr.New(apperr.ErrForbidden, detail)
		}
	}
}

// HasRole reports whether role is one of allowed.
func HasRole(role Role, allowed ...Role) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
