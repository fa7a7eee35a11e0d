package api

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"storefront.GO/config"
	"storefront.GO/core/auth"
	"storefront.GO/core/logging"
	"storefront.GO/core/registry"
)

// NewServer builds the echo instance for the local storefront API with every
// registered route and module applied.
func NewServer(cfg *config.Config, deps *Deps) *echo.Echo {
	logger := zap.NewNop()
	if deps != nil {
		logger = logging.OrNop(deps.Logger)
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = ErrorHandler(logger)
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Gzip())
	e.Use(middleware.Decompress())
	e.Use(requestDuration(logger))

	ApplyRoutes(e, deps)

	apiGroup := e.Group("/api")
	apiGroup.Use(auth.Middleware(cfg))
	ApplyModules(apiGroup, deps)
	return e
}

func requestDuration(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			c.Set(registry.KeyRequestStart, start)
			c.Response().Before(func() {
				duration := time.Since(start).Milliseconds()
				c.Response().Header().Set("X-Request-Duration-ms", strconv.FormatInt(duration, 10))
			})
			err := next(c)
			logger.Debug("request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Duration("duration", time.Since(start)))
			return err
		}
	}
}
