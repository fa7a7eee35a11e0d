package checkout

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"storefront.GO/api"
	"storefront.GO/core/apperror"
	"storefront.GO/core/logging"
	cartEntity "storefront.GO/model/entity/cart"
	"storefront.GO/model/entity/order"
)

func init() {
	api.RegisterModule(RegisterCheckoutRoutes)
}

type buyNowRequest struct {
	ProductID  string            `json:"productId"`
	Quantity   int               `json:"quantity"`
	Variations map[string]string `json:"variations"`
}

func RegisterCheckoutRoutes(apiGroup *echo.Group, deps *api.Deps) {
	g := apiGroup.Group("/checkout")

	// POST /api/checkout/load – fetch catalog, regions and fee per kilo again
	g.POST("/load", func(c echo.Context) error {
		if err := deps.Checkout.Load(c.Request().Context()); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "ready": deps.Checkout.Ready()})
	})

	// GET /api/checkout/quote – priced breakdown for the cart or the buy-now item
	g.GET("/quote", func(c echo.Context) error {
		if err := deps.Checkout.EnsureLoaded(c.Request().Context()); err != nil {
			return err
		}
		q, err := deps.Checkout.Quote()
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "quote": q})
	})

	// PUT /api/checkout/region
	g.PUT("/region", func(c echo.Context) error {
		var body struct {
			Region string `json:"region"`
		}
		if err := c.Bind(&body); err != nil {
			return apperror.Validation("api.checkout.region", "malformed request body")
		}
		if err := deps.Checkout.SetRegion(body.Region); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "region": body.Region})
	})

	// POST /api/checkout/voucher – validate and apply now; an empty code removes vouchers
	g.POST("/voucher", func(c echo.Context) error {
		var body struct {
			Code string `json:"code"`
		}
		if err := c.Bind(&body); err != nil {
			return apperror.Validation("api.checkout.voucher", "malformed request body")
		}
		state, err := deps.Checkout.ApplyVoucher(c.Request().Context(), body.Code)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "vouchers": state})
	})

	// PUT /api/checkout/voucher-input – voucher field as typed; validated once typing pauses
	g.PUT("/voucher-input", func(c echo.Context) error {
		var body struct {
			Code string `json:"code"`
		}
		if err := c.Bind(&body); err != nil {
			return apperror.Validation("api.checkout.voucherInput", "malformed request body")
		}
		logger := logging.OrNop(deps.Logger)
		code := body.Code
		deps.Checkout.SubmitVoucherCode(code, func(_ cartEntity.VoucherState, err error) {
			if err != nil {
				logger.Info("voucher rejected", zap.String("code", code), zap.Error(err))
			}
		})
		return c.JSON(http.StatusAccepted, echo.Map{"success": true, "pending": true})
	})

	// POST /api/checkout/buy-now
	g.POST("/buy-now", func(c echo.Context) error {
		var body buyNowRequest
		if err := c.Bind(&body); err != nil {
			return apperror.Validation("api.checkout.buyNow", "malformed request body")
		}
		item, err := deps.Checkout.BuyNow(c.Request().Context(), body.ProductID, body.Quantity, cartEntity.Choices(body.Variations))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "item": item})
	})

	// DELETE /api/checkout/buy-now – leaving checkout drops the buy-now item
	g.DELETE("/buy-now", func(c echo.Context) error {
		deps.Checkout.Leave()
		return c.JSON(http.StatusOK, echo.Map{"success": true})
	})

	// POST /api/checkout/place – JSON {paymentMethod} or multipart with a "receipt" file
	g.POST("/place", func(c echo.Context) error {
		method, receipt, cleanup, err := placeRequest(c)
		if err != nil {
			return err
		}
		defer cleanup()
		res, q, err := deps.Checkout.PlaceOrder(c.Request().Context(), method, receipt)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "order": res, "quote": q})
	})
}

func placeRequest(c echo.Context) (order.PaymentMethod, *order.Receipt, func(), error) {
	const op = "api.checkout.place"
	noop := func() {}
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		var body struct {
			PaymentMethod string `json:"paymentMethod"`
		}
		if err := c.Bind(&body); err != nil {
			return "", nil, noop, apperror.Validation(op, "malformed request body")
		}
		return order.PaymentMethod(body.PaymentMethod), nil, noop, nil
	}

	method := order.PaymentMethod(c.FormValue("paymentMethod"))
	fh, err := c.FormFile("receipt")
	if err != nil {
		return method, nil, noop, nil
	}
	f, err := fh.Open()
	if err != nil {
		return "", nil, noop, apperror.Validation(op, "unreadable receipt upload")
	}
	return method, &order.Receipt{Filename: fh.Filename, Content: f}, func() { _ = f.Close() }, nil
}
