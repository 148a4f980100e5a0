package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/Skotchmaster/medorder/internal/service"
	"github.com/Skotchmaster/medorder/pkg/logging"
	"github.com/labstack/echo/v4"
)

type Authenticator interface {
	Authenticate(ctx context.Context, bearer string) (*service.UserContext, error)
}

type Middleware struct {
	Guard Authenticator
}

func New(guard Authenticator) *Middleware {
	return &Middleware{Guard: guard}
}

func (m *Middleware) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("mw", "require_login")

		token, ok := service.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			l.Warn("auth_failed", "status", 401, "reason", "missing bearer token")
			return unauthorized(c)
		}

		uc, err := m.Guard.Authenticate(ctx, token)
		if err != nil {
			if errors.Is(err, service.ErrUnauthorized) {
				return unauthorized(c)
			}
			l.Error("auth_failed", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}

		setUser(c, uc)
		c.SetRequest(c.Request().WithContext(logging.IntoContext(ctx, l.With("username", uc.Username))))
		return next(c)
	}
}

func unauthorized(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return echo.NewHTTPError(http.StatusUnauthorized, "could not validate credentials")
}
