// Package checkout turns the cart (or a buy-now item) into a priced order:
// dependency loading, region and voucher selection, quoting and placement.
package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"storefront.GO/core/apperror"
	"storefront.GO/core/logging"
	cartEntity "storefront.GO/model/entity/cart"
	catalogEntity "storefront.GO/model/entity/catalog"
	"storefront.GO/model/entity/order"
	cartService "storefront.GO/service/cart"
	"storefront.GO/service/pricing"
)

// Backend is the part of the shop API checkout talks to directly.
type Backend interface {
	Regions(ctx context.Context) ([]catalogEntity.Region, error)
	FeePerKilo(ctx context.Context) (decimal.Decimal, error)
	ValidatePercentVoucher(ctx context.Context, token, code string) (decimal.Decimal, error)
	ApplyFixedVoucher(ctx context.Context, token, code string) (cartEntity.FixedVoucher, error)
	PlaceOrder(ctx context.Context, token string, method order.PaymentMethod, b order.Breakdown, receipt *order.Receipt) (order.Result, error)
}

// Products is the live catalog.
type Products interface {
	cartService.Products
	Load(ctx context.Context) (*catalogEntity.Catalog, error)
	Loaded() bool
}

// Cart is the read side of the cart manager plus the post-order reset.
type Cart interface {
	Snapshot() (cartEntity.Cart, uint64)
	Token() string
	Reset(ctx context.Context) error
}

type memo struct {
	valid   bool
	cartRev uint64
	catRev  uint64
	totals  pricing.Totals
}

// Session is one shopper's checkout view. It is safe for concurrent use.
type Session struct {
	backend  Backend
	products Products
	cart     Cart
	logger   *zap.Logger
	debounce time.Duration
	loads    singleflight.Group

	mu         sync.Mutex
	regions    catalogEntity.RegionTable
	feePerKilo decimal.Decimal
	depsLoaded bool
	region     string
	buyNow     *cartEntity.BuyNowItem
	vouchers   cartEntity.VoucherState
	totals     memo

	voucherGen    uint64
	voucherTimer  *time.Timer
	voucherCancel context.CancelFunc
}

type Option func(*Session)

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithDebounce sets the idle delay before a submitted voucher code is validated.
func WithDebounce(d time.Duration) Option {
	return func(s *Session) { s.debounce = d }
}

// WithRegion preselects a delivery region.
func WithRegion(region string) Option {
	return func(s *Session) { s.region = region }
}

func NewSession(b Backend, products Products, c Cart, opts ...Option) *Session {
	s := &Session{
		backend:    b,
		products:   products,
		cart:       c,
		debounce:   500 * time.Millisecond,
		regions:    catalogEntity.RegionTable{},
		feePerKilo: decimal.Zero,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrNop(s.logger)
	return s
}

// Load fetches the catalog, the region table and the fee per kilo in parallel.
// Concurrent calls share one fetch. On failure the first error is returned and the
// previous region table and fee stay in place.
func (s *Session) Load(ctx context.Context) error {
	_, err, _ := s.loads.Do("deps", func() (interface{}, error) {
		return nil, s.load(ctx)
	})
	return err
}

// EnsureLoaded retries the dependency fetch while checkout is not ready.
func (s *Session) EnsureLoaded(ctx context.Context) error {
	if s.Ready() {
		return nil
	}
	return s.Load(ctx)
}

func (s *Session) load(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if s.products.Loaded() {
			return nil
		}
		_, err := s.products.Load(gctx)
		return err
	})
	var (
		regions []catalogEntity.Region
		fee     decimal.Decimal
	)
	g.Go(func() error {
		var err error
		regions, err = s.backend.Regions(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		fee, err = s.backend.FeePerKilo(gctx)
		return err
	})
	err := g.Wait()
	if err != nil {
		s.logger.Warn("checkout dependencies failed to load", zap.Error(err))
		return apperror.Wrap(apperror.KindNetwork, "checkout.Load", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.regions = catalogEntity.NewRegionTable(regions)
	s.feePerKilo = fee
	s.depsLoaded = true
	return nil
}

// Ready reports whether every checkout-critical dependency has loaded.
func (s *Session) Ready() bool {
	s.mu.Lock()
	loaded := s.depsLoaded
	s.mu.Unlock()
	return loaded && s.products.Loaded()
}

// Regions returns the loaded region names and fees.
func (s *Session) Regions() catalogEntity.RegionTable {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(catalogEntity.RegionTable, len(s.regions))
	for k, v := range s.regions {
		out[k] = v
	}
	return out
}

func (s *Session) FeePerKilo() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feePerKilo
}

// SetRegion selects the delivery region. Once regions are loaded, unknown names are rejected.
func (s *Session) SetRegion(region string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.depsLoaded {
		if _, ok := s.regions[region]; !ok {
			return apperror.Validation("checkout.SetRegion", "unknown region "+region)
		}
	}
	s.region = region
	return nil
}

func (s *Session) Region() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.region
}

// BuyNow prices a single item for immediate checkout. The cart is not touched.
func (s *Session) BuyNow(ctx context.Context, productID string, quantity int, choices cartEntity.Choices) (cartEntity.BuyNowItem, error) {
	p, err := s.products.Product(ctx, productID)
	if err != nil {
		return cartEntity.BuyNowItem{}, err
	}
	line, clamped, err := cartService.PriceLine(p, quantity, choices)
	if err != nil {
		return cartEntity.BuyNowItem{}, err
	}
	if clamped {
		s.logger.Warn("buy-now unit price floored at zero", zap.String("key", line.Key))
	}
	item := cartEntity.BuyNowItem{Line: line, ProductName: p.Name, Price: p.Price, Weight: p.Weight}

	s.mu.Lock()
	s.buyNow = &item
	s.mu.Unlock()
	return item, nil
}

// BuyNowItem returns the pending buy-now item, if any.
func (s *Session) BuyNowItem() (cartEntity.BuyNowItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buyNow == nil {
		return cartEntity.BuyNowItem{}, false
	}
	item := *s.buyNow
	item.Line = item.Line.Clone()
	return item, true
}

func (s *Session) ClearBuyNow() {
	s.mu.Lock()
	s.buyNow = nil
	s.mu.Unlock()
}

// Leave tears down the checkout view: the buy-now item is dropped and any pending
// or in-flight voucher validation is aborted.
func (s *Session) Leave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buyNow = nil
	s.nextVoucherLocked()
}

// Vouchers returns the active voucher state.
func (s *Session) Vouchers() cartEntity.VoucherState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vouchers
}

// ClearVouchers drops both voucher kinds.
func (s *Session) ClearVouchers() {
	s.mu.Lock()
	s.vouchers = cartEntity.VoucherState{}
	s.mu.Unlock()
}
