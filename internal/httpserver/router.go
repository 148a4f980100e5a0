package httpserver

import (
	"context"
	"net/http"
	"time"

	authmw "github.com/Skotchmaster/medorder/internal/middleware/auth"
	"github.com/Skotchmaster/medorder/internal/models"
	"github.com/Skotchmaster/medorder/pkg/db"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type Deps struct {
	DB           *gorm.DB
	Auth         *authmw.Middleware
	AuthHandler  *AuthHTTP
	UserHandler  *UserHTTP
	OrderHandler *OrderHTTP
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"message": "Welcome to the medorder API"})
	})
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx, d.DB); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
		}
		return c.NoContent(http.StatusOK)
	})

	e.POST("/token", d.AuthHandler.Login)
	e.POST("/logout", d.AuthHandler.Logout)
	e.POST("/register", d.UserHandler.Register)

	// RequireLogin is attached per route so unknown paths stay 404 for anonymous callers.
	login := d.Auth.RequireLogin
	admin := authmw.RequireRole(models.RoleAdmin)

	e.POST("/refresh", d.AuthHandler.Refresh, login)

	users := e.Group("/users")
	users.GET("/me", d.UserHandler.Me, login)
	users.POST("/reset-password", d.UserHandler.ResetPassword, login)
	users.GET("", d.UserHandler.List, login, admin)
	users.PUT("/:id/update-details", d.UserHandler.UpdateDetails, login, admin)
	users.PUT("/:id/status", d.UserHandler.SetStatus, login, admin)

	orders := e.Group("/orders")
	orders.POST("", d.OrderHandler.Create, login)
	orders.GET("", d.OrderHandler.List, login)
	orders.GET("/search", d.OrderHandler.Search, login)
	orders.GET("/:id", d.OrderHandler.Get, login)
	orders.PATCH("/:id/status", d.OrderHandler.UpdateStatus, login, authmw.RequireRole(models.RoleAdmin, models.RoleDelivery))
	orders.DELETE("/:id", d.OrderHandler.Delete, login, admin)
}
