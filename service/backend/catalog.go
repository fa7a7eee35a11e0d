package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront.GO/core/apperror"
	"storefront.GO/model/entity/catalog"
)

const (
	cacheKeyProducts   = "products"
	cacheKeyRegions    = "regions"
	cacheKeyFeePerKilo = "fee-per-kilo"
	// CatalogTag groups every cached catalog entry so a refresh can drop them together.
	CatalogTag = "catalog"
)

// cached serves key from cache or calls fetch and stores the result.
// Cache failures only cost a round trip, so they are logged and ignored.
func cached[T any](ctx context.Context, c *Client, key string, fetch func() (T, error)) (T, error) {
	var v T
	if ok, err := c.cache.Get(ctx, key, &v); err != nil {
		c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return v, nil
	}
	v, err := fetch()
	if err != nil {
		return v, err
	}
	if err := c.cache.Set(ctx, key, v, c.ttl, CatalogTag); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return v, nil
}

// ListProducts fetches GET /api/product/list.
func (c *Client) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	return cached(ctx, c, cacheKeyProducts, func() ([]catalog.Product, error) {
		var resp struct {
			Products []catalog.Product `json:"products"`
		}
		if err := c.do(ctx, http.MethodGet, "/api/product/list", "", nil, &resp); err != nil {
			return nil, err
		}
		return resp.Products, nil
	})
}

// GetProduct fetches GET /api/product/:id, bypassing the cache.
func (c *Client) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	var resp struct {
		Product *catalog.Product `json:"product"`
	}
	err := c.do(ctx, http.MethodGet, "/api/product/"+url.PathEscape(id), "", nil, &resp)
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return catalog.Product{}, apperror.New(apperror.KindNotFound, rejected.Op, rejected.Message)
	}
	if err != nil {
		return catalog.Product{}, err
	}
	if resp.Product == nil {
		return catalog.Product{}, apperror.NotFound("backend.GetProduct", "product "+id+" not found")
	}
	return *resp.Product, nil
}

// Regions fetches GET /api/regions.
func (c *Client) Regions(ctx context.Context) ([]catalog.Region, error) {
	return cached(ctx, c, cacheKeyRegions, func() ([]catalog.Region, error) {
		var regions []catalog.Region
		if err := c.do(ctx, http.MethodGet, "/api/regions", "", nil, &regions); err != nil {
			return nil, err
		}
		return regions, nil
	})
}

// FeePerKilo fetches GET /api/weight/fee-per-kilo.
func (c *Client) FeePerKilo(ctx context.Context) (decimal.Decimal, error) {
	return cached(ctx, c, cacheKeyFeePerKilo, func() (decimal.Decimal, error) {
		var resp struct {
			Fee decimal.Decimal `json:"fee"`
		}
		if err := c.do(ctx, http.MethodGet, "/api/weight/fee-per-kilo", "", nil, &resp); err != nil {
			return decimal.Zero, err
		}
		return resp.Fee, nil
	})
}

// InvalidateCatalog drops every cached catalog response.
func (c *Client) InvalidateCatalog(ctx context.Context) error {
	return c.cache.DeleteByTag(ctx, CatalogTag)
}
