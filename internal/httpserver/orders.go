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

type OrderHTTP struct {
	Svc *service.OrderService
}

func orderID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	return id, nil
}

func (h *OrderHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_order_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	order, err := h.Svc.Create(ctx, req, authmw.UserFrom(c))
	if err != nil {
		return fail(c, l, "create_order_error", err)
	}

	l.Info("create_order_success", "order_id", order.ID)
	return c.JSON(http.StatusCreated, transport.CreatedResponse{
		ID:      order.ID,
		Message: "Order created successfully",
	})
}

func (h *OrderHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_orders")

	page, size, err := util.ParsePage(c.QueryParam("page"), c.QueryParam("size"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	orders, err := h.Svc.List(ctx, page, size)
	if err != nil {
		return fail(c, l, "list_orders_error", err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.search_orders")

	orders, err := h.Svc.Search(ctx, c.QueryParam("q"))
	if err != nil {
		return fail(c, l, "search_orders_error", err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	id, err := orderID(c)
	if err != nil {
		return err
	}
	order, err := h.Svc.Get(ctx, id)
	if err != nil {
		return fail(c, l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	id, err := orderID(c)
	if err != nil {
		return err
	}
	var req transport.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_order_error", "status", 400, "error", err)
		return err
	}

	order, err := h.Svc.UpdateStatus(ctx, id, req)
	if err != nil {
		return fail(c, l, "update_order_error", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.delete_order")

	id, err := orderID(c)
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(ctx, id, authmw.UserFrom(c)); err != nil {
		return fail(c, l, "delete_order_error", err)
	}

	l.Info("delete_order_success", "order_id", id)
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Order deleted successfully",
	})
}
