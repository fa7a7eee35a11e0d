package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"storefront.GO/config"
)

func serve(cfg *config.Config, key string) int {
	e := echo.New()
	g := e.Group("/api", Middleware(cfg))
	g.GET("/cart", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	if key != "" {
		req.Header.Set(KeyHeader, key)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestMiddleware_OpenWithoutKey(t *testing.T) {
	if code := serve(&config.Config{}, ""); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
}

func TestMiddleware_KeyAuth(t *testing.T) {
	cfg := &config.Config{LocalAPIKey: "secret"}
	if code := serve(cfg, "secret"); code != http.StatusOK {
		t.Errorf("valid key: status = %d, want 200", code)
	}
	if code := serve(cfg, "wrong"); code != http.StatusUnauthorized {
		t.Errorf("wrong key: status = %d, want 401", code)
	}
	if code := serve(cfg, ""); code != http.StatusBadRequest {
		t.Errorf("missing key: status = %d, want 400", code)
	}
}
