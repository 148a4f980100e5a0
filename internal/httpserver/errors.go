package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Skotchmaster/medorder/internal/service"
	"github.com/labstack/echo/v4"
)

type errorMapping struct {
	target error
	status int
	msg    string
}

// the first match wins; an empty msg means the wrapped detail is shown
var errorMappings = []errorMapping{
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "incorrect email or password"},
	{service.ErrUnauthorized, http.StatusUnauthorized, "could not validate credentials"},
	{service.ErrInvalidOrExpiredToken, http.StatusUnauthorized, "invalid or expired refresh token"},
	{service.ErrTokenOwnershipMismatch, http.StatusForbidden, "refresh token does not belong to the current user"},
	{service.ErrForbidden, http.StatusForbidden, "not enough rights"},
	{service.ErrNotFound, http.StatusNotFound, ""},
	{service.ErrValidation, http.StatusBadRequest, ""},
	{service.ErrIncorrectPassword, http.StatusBadRequest, "incorrect current password"},
	{service.ErrConflict, http.StatusConflict, ""},
}

func detail(err, sentinel error) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
	if msg == "" {
		return sentinel.Error()
	}
	return msg
}

// fail maps a service error to an HTTP error and logs it under event.
// Anything unmapped becomes a 500 without leaking the cause.
func fail(c echo.Context, l *slog.Logger, event string, err error) error {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		msg := m.msg
		if msg == "" {
			msg = detail(err, m.target)
		}
		if m.status == http.StatusUnauthorized {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		}
		l.Warn(event, "status", m.status, "error", err)
		return echo.NewHTTPError(m.status, msg)
	}

	l.Error(event, "status", http.StatusInternalServerError, "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}
