package checkout

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront.GO/config"
	"storefront.GO/core/apperror"
	cartEntity "storefront.GO/model/entity/cart"
	"storefront.GO/model/entity/order"
	"storefront.GO/model/repository/cartstore"
	"storefront.GO/service/backend"
	cartService "storefront.GO/service/cart"
	catalogService "storefront.GO/service/catalog"
	"storefront.GO/service/pricing"
	"storefront.GO/tests/backendtest"
)

type fixture struct {
	srv      *backendtest.Server
	products *catalogService.Service
	cart     *cartService.Manager
	session  *Session
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	t.Setenv("GORM_LOG", "off")
	srv := backendtest.New(t).Seed()
	srv.Regions = append(srv.Regions, backendtest.Region{Name: "Metro", Fee: 20})
	srv.PercentVoucher["TEN"] = 10
	srv.FixedVouchers["FLAT30"] = backendtest.FixedVoucher{Code: "FLAT30", Amount: 30}
	srv.FixedVouchers["BIG"] = backendtest.FixedVoucher{Code: "BIG", Amount: 150}
	srv.FixedVouchers["MIN500"] = backendtest.FixedVoucher{Code: "MIN500", Amount: 10, MinimumPurchase: 500}

	client := backend.New(srv.URL)
	db, err := config.NewDB(&config.Config{StoreDSN: config.MemoryDSN})
	require.NoError(t, err)
	store, err := cartstore.New(db, nil)
	require.NoError(t, err)
	products := catalogService.NewService(client, nil)
	mgr := cartService.NewManager(client, store, products)
	return &fixture{
		srv:      srv,
		products: products,
		cart:     mgr,
		session:  NewSession(client, products, mgr, opts...),
	}
}

func (f *fixture) load(t *testing.T) {
	t.Helper()
	require.NoError(t, f.session.Load(context.Background()))
}

func (f *fixture) add(t *testing.T, productID string, qty int) cartEntity.Line {
	t.Helper()
	l, err := f.cart.AddToCart(context.Background(), productID, qty, nil)
	require.NoError(t, err)
	return l
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestQuote_BlockedUntilLoaded(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.session.Ready())
	_, err := f.session.Quote()
	assert.True(t, apperror.Is(err, apperror.KindCheckoutBlocked))

	f.load(t)
	assert.True(t, f.session.Ready())
	assert.True(t, d("10").Equal(f.session.FeePerKilo()))
	assert.Len(t, f.session.Regions(), 3)
}

func TestLoad_Failure(t *testing.T) {
	f := newFixture(t)
	f.srv.Lock()
	f.srv.Fail["fee"] = true
	f.srv.Unlock()

	err := f.session.Load(context.Background())
	require.Error(t, err)
	assert.True(t, apperror.Retryable(err))
	assert.False(t, f.session.Ready())

	f.srv.Lock()
	f.srv.Fail["fee"] = false
	f.srv.Unlock()
	f.load(t)
	assert.True(t, f.session.Ready())
}

func TestQuote_ShippingFollowsRegion(t *testing.T) {
	f := newFixture(t)
	f.load(t)
	f.add(t, "p2", 3)

	require.NoError(t, f.session.SetRegion("Luzon"))
	q, err := f.session.Quote()
	require.NoError(t, err)
	assert.True(t, d("3").Equal(q.Weight))
	assert.True(t, d("135").Equal(q.Amount))
	assert.True(t, d("80").Equal(q.ShippingFee), "got %s", q.ShippingFee)
	assert.True(t, d("215").Equal(q.Total))

	require.NoError(t, f.session.SetRegion("Visayas"))
	q, err = f.session.Quote()
	require.NoError(t, err)
	assert.True(t, d("100").Equal(q.ShippingFee), "got %s", q.ShippingFee)

	assert.True(t, apperror.Is(f.session.SetRegion("Mars"), apperror.KindValidation))
	assert.Equal(t, "Visayas", f.session.Region())
}

func TestQuote_FixedVoucherIsCapped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.load(t)
	f.add(t, "p3", 5)
	require.NoError(t, f.session.SetRegion("Metro"))

	state, err := f.session.ApplyVoucher(ctx, "BIG")
	require.NoError(t, err)
	assert.True(t, d("150").Equal(state.Fixed.Amount))

	q, err := f.session.Quote()
	require.NoError(t, err)
	assert.True(t, d("100").Equal(q.Amount))
	assert.True(t, d("20").Equal(q.ShippingFee))
	assert.True(t, d("120").Equal(q.VoucherAmount), "got %s", q.VoucherAmount)
	assert.True(t, q.Total.IsZero())
	assert.Equal(t, "BIG", q.VoucherCode)
	require.NotEmpty(t, q.Notices)
	assert.Contains(t, q.Notices[0], "reduced to 120.00")

	require.NoError(t, f.cart.Login(ctx, "tok"))
	f.add(t, "p3", 5)
	_, _, err = f.session.PlaceOrder(ctx, order.PaymentCOD, nil)
	assert.True(t, apperror.Is(err, apperror.KindCheckoutBlocked), "got %v", err)
	assert.Zero(t, f.srv.Count("POST", "/api/order/place"))
}

func TestApplyVoucher_LastAppliedWins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.load(t)
	f.add(t, "p3", 5)

	_, err := f.session.ApplyVoucher(ctx, "FLAT30")
	require.NoError(t, err)
	q, _ := f.session.Quote()
	assert.True(t, d("30").Equal(q.VoucherAmount))
	assert.True(t, q.DiscountAmount.IsZero())

	state, err := f.session.ApplyVoucher(ctx, "TEN")
	require.NoError(t, err)
	assert.False(t, state.Fixed.Active())
	q, _ = f.session.Quote()
	assert.True(t, d("10").Equal(q.DiscountAmount))
	assert.True(t, q.VoucherAmount.IsZero())
	assert.Equal(t, "TEN", q.VoucherCode)

	state, err = f.session.ApplyVoucher(ctx, "FLAT30")
	require.NoError(t, err)
	assert.True(t, state.DiscountPercent.IsZero())

	_, err = f.session.ApplyVoucher(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, cartEntity.VoucherState{}, f.session.Vouchers())
}

func TestApplyVoucher_PercentPreferredWhenBothAccept(t *testing.T) {
	f := newFixture(t)
	f.load(t)
	f.srv.Lock()
	f.srv.PercentVoucher["BOTH"] = 5
	f.srv.FixedVouchers["BOTH"] = backendtest.FixedVoucher{Code: "BOTH", Amount: 40}
	f.srv.Unlock()

	state, err := f.session.ApplyVoucher(context.Background(), "BOTH")
	require.NoError(t, err)
	assert.True(t, d("5").Equal(state.DiscountPercent))
	assert.False(t, state.Fixed.Active())
	assert.Equal(t, 1, f.srv.Count("POST", "/api/voucher-amounts/apply"), "both services are asked")
}

func TestApplyVoucher_MinimumPurchase(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.load(t)
	f.add(t, "p3", 5)
	_, err := f.session.ApplyVoucher(ctx, "TEN")
	require.NoError(t, err)

	_, err = f.session.ApplyVoucher(ctx, "MIN500")
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	var minErr *pricing.MinimumPurchaseError
	require.True(t, errors.As(err, &minErr))
	assert.True(t, d("500").Equal(minErr.Required))
	assert.True(t, d("10").Equal(f.session.Vouchers().DiscountPercent), "active voucher kept")
}

func TestApplyVoucher_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.load(t)

	_, err := f.session.ApplyVoucher(ctx, "NOPE")
	assert.True(t, apperror.Is(err, apperror.KindValidation), "got %v", err)

	f.srv.Lock()
	f.srv.Fail["percent"] = true
	f.srv.Unlock()
	_, err = f.session.ApplyVoucher(ctx, "NOPE")
	assert.True(t, apperror.Retryable(err), "got %v", err)
}

func TestSubmitVoucherCode_Debounced(t *testing.T) {
	f := newFixture(t, WithDebounce(50*time.Millisecond))
	f.load(t)

	results := make(chan cartEntity.VoucherState, 3)
	done := func(state cartEntity.VoucherState, err error) {
		assert.NoError(t, err)
		results <- state
	}
	f.session.SubmitVoucherCode("T", done)
	f.session.SubmitVoucherCode("TE", done)
	f.session.SubmitVoucherCode("TEN", done)

	select {
	case state := <-results:
		assert.Equal(t, "TEN", state.Code)
	case <-time.After(2 * time.Second):
		t.Fatal("debounced validation never completed")
	}
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, results)
	assert.Equal(t, 1, f.srv.Count("POST", "/api/subscribers/validate-voucher"))
	assert.Equal(t, "TEN", f.session.Vouchers().Code)
}

func TestLeave_AbortsPendingVoucher(t *testing.T) {
	f := newFixture(t, WithDebounce(50*time.Millisecond))
	f.load(t)

	called := make(chan struct{}, 1)
	f.session.SubmitVoucherCode("TEN", func(cartEntity.VoucherState, error) { called <- struct{}{} })
	f.session.Leave()

	time.Sleep(150 * time.Millisecond)
	assert.Empty(t, called)
	assert.Zero(t, f.srv.Count("POST", "/api/subscribers/validate-voucher"))
	assert.True(t, f.session.Vouchers().DiscountPercent.IsZero())
}

func TestLeave_AbortsInFlightApplyVoucher(t *testing.T) {
	f := newFixture(t)
	f.load(t)
	f.srv.Lock()
	f.srv.Delay["percent"] = 2 * time.Second
	f.srv.Unlock()

	type result struct {
		state cartEntity.VoucherState
		err   error
	}
	out := make(chan result, 1)
	go func() {
		state, err := f.session.ApplyVoucher(context.Background(), "TEN")
		out <- result{state, err}
	}()

	require.Eventually(t, func() bool {
		return f.srv.Count("POST", "/api/subscribers/validate-voucher") == 1
	}, time.Second, 5*time.Millisecond)
	f.session.Leave()

	select {
	case r := <-out:
		require.Error(t, r.err)
		assert.True(t, errors.Is(r.err, ErrVoucherSuperseded))
		assert.True(t, apperror.Is(r.err, apperror.KindCheckoutBlocked))
		assert.True(t, r.state.DiscountPercent.IsZero())
	case <-time.After(time.Second):
		t.Fatal("validation was not cancelled by Leave")
	}
	assert.True(t, f.session.Vouchers().DiscountPercent.IsZero())
}

func TestApplyVoucher_NewerSubmissionWins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.load(t)
	f.add(t, "p3", 5)
	f.srv.Lock()
	f.srv.Delay["percent"] = 2 * time.Second
	f.srv.Unlock()

	slow := make(chan error, 1)
	go func() {
		_, err := f.session.ApplyVoucher(ctx, "TEN")
		slow <- err
	}()
	require.Eventually(t, func() bool {
		return f.srv.Count("POST", "/api/subscribers/validate-voucher") == 1
	}, time.Second, 5*time.Millisecond)

	f.srv.Lock()
	f.srv.Delay["percent"] = 0
	f.srv.Unlock()
	state, err := f.session.ApplyVoucher(ctx, "FLAT30")
	require.NoError(t, err)
	assert.Equal(t, "FLAT30", state.Fixed.Code)

	assert.True(t, errors.Is(<-slow, ErrVoucherSuperseded))
	assert.Equal(t, "FLAT30", f.session.Vouchers().Fixed.Code)
	assert.True(t, f.session.Vouchers().DiscountPercent.IsZero())
}

func TestBuyNow_IsolatedFromCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.load(t)
	require.NoError(t, f.cart.Login(ctx, "tok"))
	cartLine := f.add(t, "p3", 2)
	require.NoError(t, f.session.SetRegion("Luzon"))
	before, rev := f.cart.Snapshot()

	item, err := f.session.BuyNow(ctx, "p1", 1, cartEntity.Choices{"Color": "Red"})
	require.NoError(t, err)
	assert.Equal(t, "Shirt", item.ProductName)
	assert.True(t, d("105").Equal(item.FinalPrice))

	q, err := f.session.Quote()
	require.NoError(t, err)
	assert.True(t, q.BuyNow)
	require.Len(t, q.Items, 1)
	assert.Equal(t, item.Key, q.Items[0].Key)
	assert.True(t, d("105").Equal(q.Amount))
	assert.True(t, d("55").Equal(q.ShippingFee), "0.5kg at 10 per kilo plus 50")

	res, placed, err := f.session.PlaceOrder(ctx, order.PaymentCOD, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.OrderID, "ord-"))
	assert.True(t, placed.BuyNow)
	_, pending := f.session.BuyNowItem()
	assert.False(t, pending)

	after, afterRev := f.cart.Snapshot()
	assert.Equal(t, before, after)
	assert.Equal(t, rev, afterRev)
	assert.Contains(t, after, cartLine.Key)
	assert.Equal(t, 1, f.srv.Count("POST", "/api/cart/add"), "buy-now never reaches the server cart")
}

func TestLeave_ClearsBuyNowOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.load(t)
	cartLine := f.add(t, "p3", 2)
	_, err := f.session.BuyNow(ctx, "p2", 1, nil)
	require.NoError(t, err)

	f.session.Leave()
	_, pending := f.session.BuyNowItem()
	assert.False(t, pending)

	q, err := f.session.Quote()
	require.NoError(t, err)
	assert.False(t, q.BuyNow)
	require.Len(t, q.Items, 1)
	assert.Equal(t, cartLine.Key, q.Items[0].Key)
}

func TestBuyNow_Validation(t *testing.T) {
	f := newFixture(t)
	f.load(t)
	_, err := f.session.BuyNow(context.Background(), "p1", 1, cartEntity.Choices{"Color": "Blue"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	_, pending := f.session.BuyNowItem()
	assert.False(t, pending)
}

func TestPlaceOrder_FromCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.load(t)
	require.NoError(t, f.cart.Login(ctx, "tok"))
	f.add(t, "p2", 1)
	require.NoError(t, f.session.SetRegion("Luzon"))
	_, err := f.session.ApplyVoucher(ctx, "TEN")
	require.NoError(t, err)

	res, q, err := f.session.PlaceOrder(ctx, order.PaymentStripe, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, res.RedirectURL)
	// 45 - 4.50 + 50 + 10
	assert.True(t, d("100.5").Equal(q.Total), "got %s", q.Total)

	req, ok := f.srv.Last("/api/order/stripe")
	require.True(t, ok)
	assert.Equal(t, 100.5, req.Body["amount"])
	assert.Equal(t, 4.5, req.Body["discountAmount"])
	assert.Equal(t, "Luzon", req.Body["region"])

	snap, _ := f.cart.Snapshot()
	assert.Empty(t, snap)
	assert.Equal(t, cartEntity.VoucherState{}, f.session.Vouchers())
}

func TestPlaceOrder_Receipt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.load(t)
	require.NoError(t, f.cart.Login(ctx, "tok"))
	f.add(t, "p3", 1)
	require.NoError(t, f.session.SetRegion("Metro"))

	_, _, err := f.session.PlaceOrder(ctx, order.PaymentReceipt, nil)
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, _, err = f.session.PlaceOrder(ctx, order.PaymentReceipt, &order.Receipt{Filename: "r.png", Content: bytes.NewBufferString("png")})
	require.NoError(t, err)
	req, ok := f.srv.Last("/api/order/receipt")
	require.True(t, ok)
	assert.Equal(t, "png", req.File)
}

func TestPlaceOrder_Blocked(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, _, err := f.session.PlaceOrder(ctx, order.PaymentCOD, nil)
	assert.True(t, apperror.Is(err, apperror.KindAuth), "guest checkout is refused")

	require.NoError(t, f.cart.Login(ctx, "tok"))
	f.srv.Lock()
	f.srv.Fail["regions"] = true
	f.srv.Unlock()
	_, _, err = f.session.PlaceOrder(ctx, order.PaymentCOD, nil)
	assert.True(t, apperror.Retryable(err), "regions unavailable")
	assert.False(t, f.session.Ready())

	f.srv.Lock()
	f.srv.Fail["regions"] = false
	f.srv.Unlock()
	_, _, err = f.session.PlaceOrder(ctx, order.PaymentCOD, nil)
	assert.True(t, apperror.Is(err, apperror.KindCheckoutBlocked), "empty cart")
	assert.True(t, f.session.Ready(), "placing retries the dependency fetch")

	f.add(t, "p3", 1)
	_, _, err = f.session.PlaceOrder(ctx, order.PaymentCOD, nil)
	assert.True(t, apperror.Is(err, apperror.KindCheckoutBlocked), "no region")

	_, _, err = f.session.PlaceOrder(ctx, order.PaymentMethod("cash"), nil)
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	assert.Zero(t, f.srv.Count("POST", "/api/order/place"))
}

func TestPlaceOrder_FailureKeepsCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.load(t)
	require.NoError(t, f.cart.Login(ctx, "tok"))
	f.add(t, "p3", 1)
	require.NoError(t, f.session.SetRegion("Luzon"))
	f.srv.Lock()
	f.srv.Fail["order"] = true
	f.srv.Unlock()

	_, _, err := f.session.PlaceOrder(ctx, order.PaymentCOD, nil)
	require.Error(t, err)
	assert.True(t, apperror.Retryable(err))
	snap, _ := f.cart.Snapshot()
	assert.Len(t, snap, 1)
}

func TestQuote_ReportsUnavailableLines(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.load(t)
	f.add(t, "p3", 1)
	f.add(t, "p2", 1)

	f.srv.Lock()
	f.srv.Products = f.srv.Products[:2]
	f.srv.Unlock()
	_, err := f.products.Refresh(ctx)
	require.NoError(t, err)

	q, err := f.session.Quote()
	require.NoError(t, err)
	assert.Equal(t, []string{"p3|default"}, q.Unavailable)
	require.Len(t, q.Items, 1)
	assert.Equal(t, "p2|default", q.Items[0].Key)
	assert.True(t, d("45").Equal(q.Amount))
}

func TestQuote_UsesLivePriceWithStoredAdjustment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.load(t)
	line, err := f.cart.AddToCart(ctx, "p1", 1, cartEntity.Choices{"Color": "Red"})
	require.NoError(t, err)

	p, _ := f.products.Catalog().Lookup("p1")
	p.Price = d("120")
	f.products.Patch(p)

	q, err := f.session.Quote()
	require.NoError(t, err)
	assert.True(t, d("125").Equal(q.Amount), "live base price plus the stored adjustment")
	assert.True(t, d("125").Equal(q.Items[0].FinalPrice))
	assert.Equal(t, line.Key, q.Items[0].Key)
}

func TestQuote_RecomputesOnCartAndCatalogRevisions(t *testing.T) {
	f := newFixture(t)
	f.load(t)
	f.add(t, "p3", 1)

	q, err := f.session.Quote()
	require.NoError(t, err)
	assert.True(t, d("20").Equal(q.Amount))
	q, err = f.session.Quote()
	require.NoError(t, err)
	assert.True(t, d("20").Equal(q.Amount))

	f.add(t, "p3", 2)
	q, err = f.session.Quote()
	require.NoError(t, err)
	assert.True(t, d("40").Equal(q.Amount), "new cart revision")

	p, _ := f.products.Catalog().Lookup("p3")
	p.Price = d("25")
	f.products.Patch(p)
	q, err = f.session.Quote()
	require.NoError(t, err)
	assert.True(t, d("50").Equal(q.Amount), "new catalog revision")

	require.NoError(t, f.cart.RemoveFromCart(context.Background(), "p3|default"))
	q, err = f.session.Quote()
	require.NoError(t, err)
	assert.True(t, q.Amount.IsZero())
	assert.Empty(t, q.Items)
}

func TestEnsureLoaded_RetriesAfterFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.srv.Lock()
	f.srv.Fail["regions"] = true
	f.srv.Unlock()

	require.Error(t, f.session.Load(ctx))
	_, err := f.session.Quote()
	assert.True(t, apperror.Is(err, apperror.KindCheckoutBlocked))
	assert.True(t, apperror.Retryable(f.session.EnsureLoaded(ctx)))

	f.srv.Lock()
	f.srv.Fail["regions"] = false
	f.srv.Unlock()
	require.NoError(t, f.session.EnsureLoaded(ctx))
	assert.True(t, f.session.Ready())
	assert.Equal(t, 3, f.srv.Count("GET", "/api/regions"))

	require.NoError(t, f.session.EnsureLoaded(ctx))
	assert.Equal(t, 3, f.srv.Count("GET", "/api/regions"), "no fetch once ready")
}

func TestCheckBreakdown(t *testing.T) {
	item := func(price string, qty int) order.Item {
		return order.Item{Line: cartEntity.Line{Key: "p|default", BaseProductID: "p", Quantity: qty, FinalPrice: d(price)}}
	}
	ok := order.Breakdown{
		Items:          []order.Item{item("45", 2), item("20", 1)},
		Amount:         d("110"),
		DiscountAmount: d("11"),
		VoucherAmount:  d("30"),
		ShippingFee:    d("65"),
		Total:          d("134"),
	}
	assert.NoError(t, checkBreakdown(ok))

	badAmount := ok
	badAmount.Amount = d("100")
	err := checkBreakdown(badAmount)
	assert.True(t, apperror.Is(err, apperror.KindPricing), "got %v", err)
	assert.Contains(t, err.Error(), "items add up to 110.00")

	badTotal := ok
	badTotal.Total = d("164")
	err = checkBreakdown(badTotal)
	assert.True(t, apperror.Is(err, apperror.KindPricing), "got %v", err)
	assert.Contains(t, err.Error(), "total is 164.00")
}
