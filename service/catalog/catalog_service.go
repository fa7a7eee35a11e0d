// Package catalog keeps the live product catalog: wholesale refreshes from the backend,
// in-place patches from product-update events and a per-product fallback fetch.
package catalog

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"storefront.GO/core/apperror"
	"storefront.GO/core/logging"
	catalogEntity "storefront.GO/model/entity/catalog"
)

// Source is the subset of the backend client the catalog needs.
type Source interface {
	ListProducts(ctx context.Context) ([]catalogEntity.Product, error)
	GetProduct(ctx context.Context, id string) (catalogEntity.Product, error)
	InvalidateCatalog(ctx context.Context) error
}

// Service publishes immutable catalog snapshots. Every change bumps the revision.
type Service struct {
	src    Source
	logger *zap.Logger

	mu       sync.Mutex
	revision uint64
	current  atomic.Pointer[catalogEntity.Catalog]
}

func NewService(src Source, logger *zap.Logger) *Service {
	s := &Service{src: src, logger: logging.OrNop(logger)}
	s.current.Store(catalogEntity.Empty())
	return s
}

// Catalog returns the current snapshot. It is never nil.
func (s *Service) Catalog() *catalogEntity.Catalog {
	return s.current.Load()
}

// Loaded reports whether at least one refresh has succeeded.
func (s *Service) Loaded() bool {
	return s.Catalog().Revision() > 0
}

// Refresh reloads the product list wholesale, bypassing any cached copy.
func (s *Service) Refresh(ctx context.Context) (*catalogEntity.Catalog, error) {
	if err := s.src.InvalidateCatalog(ctx); err != nil {
		s.logger.Warn("catalog cache invalidation failed", zap.Error(err))
	}
	return s.Load(ctx)
}

// Load fetches the product list, possibly from cache, and publishes it.
func (s *Service) Load(ctx context.Context) (*catalogEntity.Catalog, error) {
	products, err := s.src.ListProducts(ctx)
	if err != nil {
		return s.Catalog(), err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revision++
	next := catalogEntity.New(s.revision, products)
	s.current.Store(next)
	s.logger.Debug("catalog loaded", zap.Int("products", next.Len()), zap.Uint64("revision", s.revision))
	return next, nil
}

// Patch applies a server-pushed product update in place.
func (s *Service) Patch(p catalogEntity.Product) *catalogEntity.Catalog {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revision++
	next := s.Catalog().With(s.revision, p)
	s.current.Store(next)
	return next
}

// Product resolves id from the snapshot, falling back to a single-product fetch.
// A fetched product is patched into the catalog.
func (s *Service) Product(ctx context.Context, id string) (catalogEntity.Product, error) {
	if p, ok := s.Catalog().Lookup(id); ok {
		return p, nil
	}
	p, err := s.src.GetProduct(ctx, id)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return catalogEntity.Product{}, apperror.New(apperror.KindStale, "catalog.Product", "product "+id+" is no longer available")
		}
		return catalogEntity.Product{}, err
	}
	s.Patch(p)
	return p, nil
}
