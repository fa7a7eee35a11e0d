// Package backendtest runs an in-process fake of the shop backend for tests.
package backendtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

// Product mirrors the backend JSON shape with plain numbers.
type Product struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Price           float64          `json:"price"`
	DiscountPercent float64          `json:"discountPercent,omitempty"`
	Weight          float64          `json:"weight"`
	Variations      []VariationGroup `json:"variations,omitempty"`
}

type VariationGroup struct {
	Name    string            `json:"name"`
	Options []VariationOption `json:"options"`
}

type VariationOption struct {
	Name              string  `json:"name"`
	PriceAdjustment   float64 `json:"priceAdjustment"`
	AvailableQuantity int     `json:"availableQuantity"`
}

type Region struct {
	Name string  `json:"name"`
	Fee  float64 `json:"fee"`
}

type FixedVoucher struct {
	Code            string  `json:"code"`
	Amount          float64 `json:"amount"`
	MinimumPurchase float64 `json:"minimumPurchase"`
}

// Request is a recorded call.
type Request struct {
	Method string
	Path   string
	Token  string
	Body   map[string]interface{}
	// Form holds multipart fields for receipt uploads.
	Form map[string]string
	File string
}

// Server is a fake backend. Exported fields may be changed between calls; guard with Lock.
type Server struct {
	sync.Mutex
	URL string

	Products       []Product
	Regions        []Region
	FeePerKilo     float64
	Carts          map[string]map[string]interface{} // token -> cartData
	PercentVoucher map[string]float64
	FixedVouchers  map[string]FixedVoucher
	// Fail makes the named route ("add", "update", "remove", "clear", "get", "order", ...) answer 500.
	Fail map[string]bool
	// Reject makes the named route answer {"success": false}.
	Reject map[string]bool
	// Delay holds the named route back until the delay passes or the client gives up.
	Delay map[string]time.Duration

	Requests []Request
}

// New starts the fake and stops it when the test ends.
func New(t testing.TB) *Server {
	s := &Server{
		Carts:          map[string]map[string]interface{}{},
		PercentVoucher: map[string]float64{},
		FixedVouchers:  map[string]FixedVoucher{},
		Fail:           map[string]bool{},
		Reject:         map[string]bool{},
		Delay:          map[string]time.Duration{},
	}
	e := echo.New()
	e.HideBanner = true
	s.routes(e)
	ts := httptest.NewServer(e)
	t.Cleanup(ts.Close)
	s.URL = ts.URL
	return s
}

// Count returns how many recorded calls hit path.
func (s *Server) Count(method, path string) int {
	s.Lock()
	defer s.Unlock()
	n := 0
	for _, r := range s.Requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Last returns the last recorded call to path.
func (s *Server) Last(path string) (Request, bool) {
	s.Lock()
	defer s.Unlock()
	for i := len(s.Requests) - 1; i >= 0; i-- {
		if s.Requests[i].Path == path {
			return s.Requests[i], true
		}
	}
	return Request{}, false
}

// CartOf returns a copy of the server cart for token.
func (s *Server) CartOf(token string) map[string]interface{} {
	s.Lock()
	defer s.Unlock()
	out := map[string]interface{}{}
	for k, v := range s.Carts[token] {
		out[k] = v
	}
	return out
}

func token(c echo.Context) string {
	return strings.TrimPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
}

func (s *Server) record(c echo.Context, body map[string]interface{}) {
	s.Requests = append(s.Requests, Request{
		Method: c.Request().Method,
		Path:   c.Request().URL.Path,
		Token:  token(c),
		Body:   body,
	})
}

func readBody(c echo.Context) map[string]interface{} {
	data, _ := io.ReadAll(c.Request().Body)
	body := map[string]interface{}{}
	_ = json.Unmarshal(data, &body)
	return body
}

// guard records the call and applies the delay and failure switches. Callers hold the
// lock. It returns false when the handler must stop.
func (s *Server) guard(c echo.Context, name string, body map[string]interface{}) (bool, error) {
	s.record(c, body)
	if d := s.Delay[name]; d > 0 {
		s.Unlock()
		select {
		case <-time.After(d):
		case <-c.Request().Context().Done():
		}
		s.Lock()
	}
	if s.Fail[name] {
		return false, c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": name + " failed"})
	}
	if s.Reject[name] {
		return false, c.JSON(http.StatusOK, echo.Map{"success": false, "message": name + " rejected"})
	}
	return true, nil
}

func (s *Server) authed(c echo.Context) (string, bool, error) {
	tok := token(c)
	if tok == "" {
		return "", false, c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "Not Authorized Login Again"})
	}
	return tok, true, nil
}

func (s *Server) routes(e *echo.Echo) {
	e.GET("/api/product/list", func(c echo.Context) error {
		s.Lock()
		defer s.Unlock()
		if ok, err := s.guard(c, "products", nil); !ok {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "products": s.Products})
	})

	e.GET("/api/product/:id", func(c echo.Context) error {
		s.Lock()
		defer s.Unlock()
		if ok, err := s.guard(c, "product", nil); !ok {
			return err
		}
		for _, p := range s.Products {
			if p.ID == c.Param("id") {
				return c.JSON(http.StatusOK, echo.Map{"success": true, "product": p})
			}
		}
		return c.JSON(http.StatusOK, echo.Map{"success": false, "message": "Product not found"})
	})

	e.GET("/api/regions", func(c echo.Context) error {
		s.Lock()
		defer s.Unlock()
		if ok, err := s.guard(c, "regions", nil); !ok {
			return err
		}
		return c.JSON(http.StatusOK, s.Regions)
	})

	e.GET("/api/weight/fee-per-kilo", func(c echo.Context) error {
		s.Lock()
		defer s.Unlock()
		if ok, err := s.guard(c, "fee", nil); !ok {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "fee": s.FeePerKilo})
	})

	e.POST("/api/cart/get", func(c echo.Context) error {
		s.Lock()
		defer s.Unlock()
		body := readBody(c)
		if ok, err := s.guard(c, "get", body); !ok {
			return err
		}
		tok, ok, err := s.authed(c)
		if !ok {
			return err
		}
		data := s.Carts[tok]
		if data == nil {
			data = map[string]interface{}{}
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "cartData": data})
	})

	e.POST("/api/cart/add", func(c echo.Context) error {
		s.Lock()
		defer s.Unlock()
		body := readBody(c)
		if ok, err := s.guard(c, "add", body); !ok {
			return err
		}
		tok, ok, err := s.authed(c)
		if !ok {
			return err
		}
		if s.Carts[tok] == nil {
			s.Carts[tok] = map[string]interface{}{}
		}
		key, _ := body["itemId"].(string)
		s.Carts[tok][key] = body
		return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Added To Cart"})
	})

	e.PUT("/api/cart/update", func(c echo.Context) error {
		s.Lock()
		defer s.Unlock()
		body := readBody(c)
		if ok, err := s.guard(c, "update", body); !ok {
			return err
		}
		tok, ok, err := s.authed(c)
		if !ok {
			return err
		}
		key, _ := body["itemId"].(string)
		qty, _ := body["quantity"].(float64)
		if line, ok := s.Carts[tok][key].(map[string]interface{}); ok {
			if qty <= 0 {
				delete(s.Carts[tok], key)
			} else {
				line["quantity"] = qty
			}
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Cart Updated"})
	})

	e.POST("/api/cart/remove", func(c echo.Context) error {
		s.Lock()
		defer s.Unlock()
		body := readBody(c)
		if ok, err := s.guard(c, "remove", body); !ok {
			return err
		}
		tok, ok, err := s.authed(c)
		if !ok {
			return err
		}
		key, _ := body["itemId"].(string)
		delete(s.Carts[tok], key)
		return c.JSON(http.StatusOK, echo.Map{"success": true})
	})

	e.DELETE("/api/cart/clear", func(c echo.Context) error {
		s.Lock()
		defer s.Unlock()
		if ok, err := s.guard(c, "clear", nil); !ok {
			return err
		}
		tok, ok, err := s.authed(c)
		if !ok {
			return err
		}
		delete(s.Carts, tok)
		return c.JSON(http.StatusOK, echo.Map{"success": true})
	})

	e.POST("/api/subscribers/validate-voucher", func(c echo.Context) error {
		s.Lock()
		defer s.Unlock()
		body := readBody(c)
		if ok, err := s.guard(c, "percent", body); !ok {
			return err
		}
		code, _ := body["code"].(string)
		if pct, ok := s.PercentVoucher[code]; ok {
			return c.JSON(http.StatusOK, echo.Map{"success": true, "discountPercent": pct})
		}
		return c.JSON(http.StatusOK, echo.Map{"success": false, "message": "Invalid voucher"})
	})

	e.POST("/api/voucher-amounts/apply", func(c echo.Context) error {
		s.Lock()
		defer s.Unlock()
		body := readBody(c)
		if ok, err := s.guard(c, "fixed", body); !ok {
			return err
		}
		code, _ := body["code"].(string)
		if v, ok := s.FixedVouchers[code]; ok {
			return c.JSON(http.StatusOK, echo.Map{"success": true, "voucherAmount": v})
		}
		return c.JSON(http.StatusOK, echo.Map{"success": false, "message": "Voucher not found"})
	})

	placed := func(c echo.Context, extra echo.Map) error {
		resp := echo.Map{"success": true, "message": "Order Placed", "orderId": "ord-" + c.Request().Header.Get("Idempotency-Key")[:8]}
		for k, v := range extra {
			resp[k] = v
		}
		return c.JSON(http.StatusOK, resp)
	}

	e.POST("/api/order/place", func(c echo.Context) error {
		s.Lock()
		defer s.Unlock()
		body := readBody(c)
		if ok, err := s.guard(c, "order", body); !ok {
			return err
		}
		if _, ok, err := s.authed(c); !ok {
			return err
		}
		return placed(c, nil)
	})

	e.POST("/api/order/stripe", func(c echo.Context) error {
		s.Lock()
		defer s.Unlock()
		body := readBody(c)
		if ok, err := s.guard(c, "order", body); !ok {
			return err
		}
		if _, ok, err := s.authed(c); !ok {
			return err
		}
		return placed(c, echo.Map{"session_url": "https://checkout.stripe.test/session"})
	})

	e.POST("/api/payment/gcash", func(c echo.Context) error {
		s.Lock()
		defer s.Unlock()
		body := readBody(c)
		if ok, err := s.guard(c, "order", body); !ok {
			return err
		}
		if _, ok, err := s.authed(c); !ok {
			return err
		}
		return placed(c, echo.Map{"checkout_url": "https://pay.gcash.test/checkout"})
	})

	e.POST("/api/order/receipt", func(c echo.Context) error {
		s.Lock()
		defer s.Unlock()
		orderJSON := c.FormValue("order")
		body := map[string]interface{}{}
		_ = json.Unmarshal([]byte(orderJSON), &body)
		if ok, err := s.guard(c, "order", body); !ok {
			return err
		}
		fh, err := c.FormFile("receipt")
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "receipt required"})
		}
		f, err := fh.Open()
		if err != nil {
			return err
		}
		defer f.Close()
		content, _ := io.ReadAll(f)
		last := &s.Requests[len(s.Requests)-1]
		last.Form = map[string]string{"order": orderJSON}
		last.File = string(content)
		return placed(c, nil)
	})
}

// Seed fills the fake with a small catalog shared by service and API tests:
// p1 is a shirt with Color and Size variations, p2 a discounted mug, p3 a poster.
func (s *Server) Seed() *Server {
	s.Lock()
	defer s.Unlock()
	s.Products = []Product{
		{ID: "p1", Name: "Shirt", Price: 100, Weight: 0.5, Variations: []VariationGroup{
			{Name: "Color", Options: []VariationOption{
				{Name: "Red", PriceAdjustment: 5, AvailableQuantity: 10},
				{Name: "Blue", PriceAdjustment: 0, AvailableQuantity: 0},
			}},
			{Name: "Size", Options: []VariationOption{
				{Name: "M", PriceAdjustment: 0, AvailableQuantity: 5},
				{Name: "L", PriceAdjustment: 10, AvailableQuantity: 2},
			}},
		}},
		{ID: "p2", Name: "Mug", Price: 50, DiscountPercent: 10, Weight: 1},
		{ID: "p3", Name: "Poster", Price: 20, Weight: 0},
	}
	s.Regions = []Region{{Name: "Luzon", Fee: 50}, {Name: "Visayas", Fee: 70}}
	s.FeePerKilo = 10
	return s
}
