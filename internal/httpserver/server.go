package httpserver

import (
	"log/slog"
	"time"

	loggingmw "github.com/Skotchmaster/medorder/pkg/middleware/logging"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Options struct {
	CORSAllowOrigins []string
	BodyLimit        string
}

// New builds the echo instance with the shared middleware stack; routes are added by Register.
func New(log *slog.Logger, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Binder = StrictBinder{}
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	origins := opts.CORSAllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	limit := opts.BodyLimit
	if limit == "" {
		limit = "1M"
	}

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(
		middleware.Recover(),
		middleware.RequestID(),
		middleware.Secure(),
		loggingmw.RequestLogger(log),
		middleware.BodyLimit(limit),
		middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderXRequestID},
		}),
	)
	return e
}
