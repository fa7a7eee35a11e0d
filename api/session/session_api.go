package session

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront.GO/api"
	"storefront.GO/core/apperror"
)

func init() {
	api.RegisterModule(RegisterSessionRoutes)
}

func RegisterSessionRoutes(apiGroup *echo.Group, deps *api.Deps) {
	g := apiGroup.Group("/session")

	// POST /api/session/login – adopt a backend token and its server cart
	g.POST("/login", func(c echo.Context) error {
		var body struct {
			Token string `json:"token"`
		}
		if err := c.Bind(&body); err != nil {
			return apperror.Validation("api.session.login", "malformed request body")
		}
		if err := deps.Cart.Login(c.Request().Context(), body.Token); err != nil {
			return err
		}
		lines, _ := deps.Cart.Snapshot()
		return c.JSON(http.StatusOK, echo.Map{"success": true, "count": lines.TotalQuantity()})
	})

	// POST /api/session/logout
	g.POST("/logout", func(c echo.Context) error {
		if err := deps.Cart.Logout(c.Request().Context()); err != nil {
			return err
		}
		deps.Checkout.Leave()
		deps.Checkout.ClearVouchers()
		return c.JSON(http.StatusOK, echo.Map{"success": true})
	})
}
