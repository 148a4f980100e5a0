package httpserver

import (
	"net/http"

	authmw "github.com/Skotchmaster/medorder/internal/middleware/auth"
	"github.com/Skotchmaster/medorder/internal/service"
	"github.com/Skotchmaster/medorder/internal/transport"
	"github.com/Skotchmaster/medorder/internal/util"
	"github.com/Skotchmaster/medorder/pkg/logging"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type UserHTTP struct {
	Svc *service.UserService
}

func (h *UserHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users_register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return err
	}

	user, err := h.Svc.Register(ctx, req)
	if err != nil {
		return fail(c, l, "register_error", err)
	}

	l.Info("register_successful", "username", user.Username)
	return c.JSON(http.StatusOK, transport.NewUserView(user))
}

func (h *UserHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users_me")

	user, err := h.Svc.Me(ctx, authmw.UserFrom(c))
	if err != nil {
		return fail(c, l, "me_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewUserView(user))
}

func (h *UserHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users_list")

	page, size, err := util.ParsePage(c.QueryParam("page"), c.QueryParam("size"))
	if err != nil {
		l.Warn("list_users_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	users, err := h.Svc.List(ctx, page, size)
	if err != nil {
		return fail(c, l, "list_users_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewUserViews(users))
}

func (h *UserHTTP) ResetPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users_reset_password")

	var req transport.ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("reset_password_error", "status", 400, "error", err)
		return err
	}

	if err := h.Svc.ResetPassword(ctx, authmw.UserFrom(c), req); err != nil {
		return fail(c, l, "reset_password_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Password updated successfully",
	})
}

func userID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	return id, nil
}

func (h *UserHTTP) UpdateDetails(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users_update_details")

	id, err := userID(c)
	if err != nil {
		return err
	}
	var req transport.UpdateDetailsRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_details_error", "status", 400, "error", err)
		return err
	}

	user, err := h.Svc.UpdateDetails(ctx, id, req)
	if err != nil {
		return fail(c, l, "update_details_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewUserView(user))
}

func (h *UserHTTP) SetStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users_set_status")

	id, err := userID(c)
	if err != nil {
		return err
	}
	var req transport.SetStatusRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("set_status_error", "status", 400, "error", err)
		return err
	}
	if err := req.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.Svc.SetStatus(ctx, id, *req.Disabled)
	if err != nil {
		return fail(c, l, "set_status_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewUserView(user))
}
