package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func init() {
	RegisterRoute(func(e *echo.Echo, deps *Deps) {
		e.GET("/health", func(c echo.Context) error {
			body := echo.Map{"status": "ok"}
			if deps != nil && deps.Checkout != nil {
				body["checkoutReady"] = deps.Checkout.Ready()
			}
			if deps != nil && deps.Products != nil {
				body["catalogRevision"] = deps.Products.Catalog().Revision()
			}
			return c.JSON(http.StatusOK, body)
		})
	})
}
