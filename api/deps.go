package api

import (
	"go.uber.org/zap"

	cartService "storefront.GO/service/cart"
	catalogService "storefront.GO/service/catalog"
	"storefront.GO/service/checkout"
)

// Deps are the services the local API exposes.
type Deps struct {
	Cart     *cartService.Manager
	Checkout *checkout.Session
	Products *catalogService.Service
	Logger   *zap.Logger
}
