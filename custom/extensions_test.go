package custom_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront.GO/api"
	"storefront.GO/config"
	_ "storefront.GO/custom"
	"storefront.GO/service/storefront"
	"storefront.GO/tests/backendtest"
)

func TestRegionsRoute(t *testing.T) {
	t.Setenv("GORM_LOG", "off")
	srv := backendtest.New(t).Seed()
	cfg := &config.Config{APIBaseURL: srv.URL, HTTPTimeout: 5 * time.Second, StoreDSN: config.MemoryDSN, CatalogTTL: time.Minute}
	app, err := storefront.New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	e := api.NewServer(cfg, &api.Deps{Cart: app.Cart, Checkout: app.Checkout, Products: app.Products})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/regions", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	require.NoError(t, app.Checkout.Load(context.Background()))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/regions", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Regions    map[string]string `json:"regions"`
		FeePerKilo string            `json:"feePerKilo"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "50", resp.Regions["Luzon"])
	assert.Equal(t, "70", resp.Regions["Visayas"])
	assert.Equal(t, "10", resp.FeePerKilo)
}
