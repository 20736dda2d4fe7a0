package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/respond"
)

// RequireRole returns middleware that restricts a route group to the given
// roles. Admin always passes. This is only the coarse route gate; record
// ownership is still checked in the services via Authorize.
func RequireRole(roles ...Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := FromContext(c.Request().Context())
			if claims == nil || claims.Subject == "" {
				return respond.Unauthenticated("")
			}
			if claims.Role == RoleAdmin {
				return next(c)
			}
			for _, r := range roles {
				if claims.Role == r {
					return next(c)
				}
			}
			return respond.Denied()
		}
	}
}
