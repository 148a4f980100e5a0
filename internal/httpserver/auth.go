package httpserver

import (
	"net/http"

	authmw "github.com/Skotchmaster/medorder/internal/middleware/auth"
	"github.com/Skotchmaster/medorder/internal/service"
	"github.com/Skotchmaster/medorder/internal/transport"
	"github.com/Skotchmaster/medorder/pkg/logging"
	"github.com/labstack/echo/v4"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func tokenResponse(p *service.TokenPair) transport.TokenResponse {
	return transport.TokenResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(p.ExpiresIn.Seconds()),
	}
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return err
	}
	if err := req.Validate(); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	pair, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(c, l, "login_failed", err)
	}

	l.Info("login_successful")
	return c.JSON(http.StatusOK, tokenResponse(pair))
}

// Logout sits outside RequireLogin so an expired or already revoked token can still log out.
func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	token, ok := service.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if !ok {
		return fail(c, l, "logout_failed", service.ErrUnauthorized)
	}

	if err := h.Svc.Logout(ctx, token); err != nil {
		return fail(c, l, "logout_failed", err)
	}

	l.Info("successful_logout")
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Successfully logged out",
	})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	var req transport.RefreshRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("refresh_error", "status", 400, "error", err)
		return err
	}
	if err := req.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	pair, err := h.Svc.Refresh(ctx, req.RefreshToken, authmw.UserFrom(c).Username)
	if err != nil {
		return fail(c, l, "refresh_failed", err)
	}

	l.Info("refresh_successful")
	return c.JSON(http.StatusOK, tokenResponse(pair))
}
