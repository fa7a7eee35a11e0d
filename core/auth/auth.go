package auth

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"storefront.GO/config"
)

// KeyHeader carries the local API key.
const KeyHeader = "X-API-Key"

// Middleware protects the local storefront API with LOCAL_API_KEY.
// Without a configured key every request passes.
func Middleware(cfg *config.Config) echo.MiddlewareFunc {
	if cfg == nil || cfg.LocalAPIKey == "" {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return keyAuth(cfg.LocalAPIKey, buildSkipper())
}

func buildSkipper() middleware.Skipper {
	skipPaths := config.GetAuthSkipperPaths()
	return func(c echo.Context) bool {
		path := c.Path()
		for _, skip := range skipPaths {
			if path == skip {
				return true
			}
		}
		return false
	}
}

func keyAuth(apiKey string, skipper middleware.Skipper) echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup: "header:" + KeyHeader,
		Validator: func(key string, c echo.Context) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1, nil
		},
		Skipper: skipper,
	})
}
