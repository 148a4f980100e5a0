package auth

import (
	"github.com/Skotchmaster/medorder/internal/service"
	"github.com/labstack/echo/v4"
)

const userContextKey = "auth.user"

func setUser(c echo.Context, uc *service.UserContext) {
	c.Set(userContextKey, uc)
}

// UserFrom returns the caller resolved by RequireLogin, or nil outside of it.
func UserFrom(c echo.Context) *service.UserContext {
	uc, _ := c.Get(userContextKey).(*service.UserContext)
	return uc
}
