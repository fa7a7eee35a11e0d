package cart

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"storefront.GO/api"
	"storefront.GO/core/apperror"
	cartEntity "storefront.GO/model/entity/cart"
	"storefront.GO/service/pricing"
)

func init() {
	api.RegisterModule(RegisterCartRoutes)
}

type addItemRequest struct {
	ProductID  string            `json:"productId"`
	Quantity   int               `json:"quantity"`
	Variations map[string]string `json:"variations"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func lineKey(c echo.Context) (string, error) {
	key, err := url.PathUnescape(c.Param("key"))
	if err != nil || key == "" {
		return "", apperror.Validation("api.cart", "invalid cart key")
	}
	return key, nil
}

func RegisterCartRoutes(apiGroup *echo.Group, deps *api.Deps) {
	g := apiGroup.Group("/cart")

	// GET /api/cart – cart lines with live totals
	g.GET("", func(c echo.Context) error {
		lines, rev := deps.Cart.Snapshot()
		totals := pricing.CartTotals(lines, deps.Products.Catalog())
		return c.JSON(http.StatusOK, echo.Map{
			"success":       true,
			"authenticated": deps.Cart.Authenticated(),
			"revision":      rev,
			"items":         lines.Lines(),
			"count":         lines.TotalQuantity(),
			"amount":        totals.Amount,
			"weight":        pricing.CartWeight(lines, deps.Products.Catalog()),
			"unavailable":   totals.Stale,
		})
	})

	// POST /api/cart/items – add or overwrite a line
	g.POST("/items", func(c echo.Context) error {
		var body addItemRequest
		if err := c.Bind(&body); err != nil {
			return apperror.Validation("api.cart.add", "malformed request body")
		}
		line, err := deps.Cart.AddToCart(c.Request().Context(), body.ProductID, body.Quantity, cartEntity.Choices(body.Variations))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "item": line})
	})

	// PUT /api/cart/items/:key – set quantity, 0 removes
	g.PUT("/items/:key", func(c echo.Context) error {
		key, err := lineKey(c)
		if err != nil {
			return err
		}
		var body updateItemRequest
		if err := c.Bind(&body); err != nil {
			return apperror.Validation("api.cart.update", "malformed request body")
		}
		if err := deps.Cart.UpdateQuantity(c.Request().Context(), key, body.Quantity); err != nil {
			return err
		}
		line, ok := deps.Cart.Line(key)
		if !ok {
			return c.JSON(http.StatusOK, echo.Map{"success": true, "removed": true})
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "item": line})
	})

	// DELETE /api/cart/items/:key
	g.DELETE("/items/:key", func(c echo.Context) error {
		key, err := lineKey(c)
		if err != nil {
			return err
		}
		if err := deps.Cart.RemoveFromCart(c.Request().Context(), key); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true})
	})

	// DELETE /api/cart – clear the server and local cart
	g.DELETE("", func(c echo.Context) error {
		if err := deps.Cart.ClearCart(c.Request().Context()); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true})
	})
}
