package auth

import (
	"errors"
	"net/http"

	"github.com/Skotchmaster/medorder/internal/service"
	"github.com/Skotchmaster/medorder/pkg/logging"
	"github.com/labstack/echo/v4"
)

// RequireRole must run after RequireLogin.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uc := UserFrom(c)
			if err := service.RequireRole(uc, roles...); err != nil {
				if errors.Is(err, service.ErrUnauthorized) {
					return unauthorized(c)
				}
				logging.FromContext(c.Request().Context()).Warn("auth_failed", "status", 403, "reason", "role not allowed", "role", uc.Role)
				return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
			}
			return next(c)
		}
	}
}
