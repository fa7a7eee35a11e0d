package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"storefront.GO/core/registry"
)

func TestRegistry_Register_Apply(t *testing.T) {
	registry.GlobalRegistry.UnlockForTesting(registry.KeyRegistryRoutes)
	RegisterGET("/test/registry/check", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	e := echo.New()
	ApplyRoutes(e, nil)

	req := httptest.NewRequest(http.MethodGet, "/test/registry/check", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRegistry_LockedPanics(t *testing.T) {
	ApplyModules(echo.New().Group("/api"), nil)
	defer registry.GlobalRegistry.UnlockForTesting(registry.KeyRegistryAPI)
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic after ApplyModules")
		}
	}()
	RegisterModule(func(*echo.Group, *Deps) {})
}
