package checkout

import (
	"fmt"

	"github.com/shopspring/decimal"

	"storefront.GO/core/apperror"
	cartEntity "storefront.GO/model/entity/cart"
	catalogEntity "storefront.GO/model/entity/catalog"
	"storefront.GO/model/entity/order"
	"storefront.GO/service/pricing"
)

// Quote is the priced checkout: the order breakdown plus what the shopper should be told.
type Quote struct {
	order.Breakdown
	BuyNow bool            `json:"buyNow"`
	Weight decimal.Decimal `json:"weight"`
	// Unavailable lists cart keys whose product is gone; they are left out of the order.
	Unavailable []string `json:"unavailable,omitempty"`
	// Notices are non-fatal pricing adjustments (floored prices, capped vouchers).
	Notices []string `json:"notices,omitempty"`
}

// cartTotalsLocked memoizes pricing.CartTotals on the cart and catalog revisions. Callers hold s.mu.
func (s *Session) cartTotalsLocked(c cartEntity.Cart, cartRev uint64, cat *catalogEntity.Catalog) pricing.Totals {
	if s.totals.valid && s.totals.cartRev == cartRev && s.totals.catRev == cat.Revision() {
		return s.totals.totals
	}
	t := pricing.CartTotals(c, cat)
	s.totals = memo{valid: true, cartRev: cartRev, catRev: cat.Revision(), totals: t}
	return t
}

// linesLocked fills in the items to order, their amount and their weight.
// A buy-now item, when present, is used exclusively.
func (s *Session) linesLocked(q *Quote) {
	if s.buyNow != nil {
		item := s.buyNow
		q.BuyNow = true
		q.Items = []order.Item{{Line: item.Line.Clone(), Name: item.ProductName}}
		q.Amount = pricing.Round(item.Subtotal())
		q.Weight = item.TotalWeight()
		return
	}

	c, rev := s.cart.Snapshot()
	cat := s.products.Catalog()
	totals := s.cartTotalsLocked(c, rev, cat)
	q.Amount = totals.Amount
	q.Weight = pricing.CartWeight(c, cat)
	q.Unavailable = totals.Stale

	stale := make(map[string]bool, len(totals.Stale))
	for _, k := range totals.Stale {
		stale[k] = true
	}
	for _, l := range c.Lines() {
		if stale[l.Key] || l.Quantity <= 0 {
			continue
		}
		p, _ := cat.Lookup(l.BaseProductID)
		// submit the price the amount was computed with
		l.FinalPrice, _ = pricing.UnitPrice(p.Price, p.DiscountPercent, l.VariationAdjustment)
		q.Items = append(q.Items, order.Item{Line: l, Name: p.Name})
	}
	for _, k := range totals.Clamped {
		q.Notices = append(q.Notices, fmt.Sprintf("price of %s was raised to 0.00", k))
	}
}

// Quote prices the checkout with the current cart or buy-now item, region and vouchers.
// Shipping is derived from the region, weight and fee on every call. Callers that can
// block should run EnsureLoaded first.
func (s *Session) Quote() (Quote, error) {
	if !s.Ready() {
		return Quote{}, apperror.CheckoutBlocked("checkout.Quote", "checkout data is still loading")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quoteLocked(), nil
}

func (s *Session) quoteLocked() Quote {
	q := Quote{}
	s.linesLocked(&q)
	q.Region = s.region
	q.ShippingFee = pricing.ShippingFee(s.region, s.regions, q.Weight, s.feePerKilo)
	q.DiscountAmount = pricing.DiscountAmount(q.Amount, s.vouchers.DiscountPercent)
	q.VoucherAmount = decimal.Zero
	if s.vouchers.DiscountPercent.IsPositive() {
		q.VoucherCode = s.vouchers.Code
	}

	if fixed := s.vouchers.Fixed; fixed.Active() {
		if err := pricing.CheckMinimumPurchase(fixed, q.Amount); err != nil {
			q.Notices = append(q.Notices, err.Error())
		} else {
			amount, capped := pricing.CapVoucher(q.Amount, q.DiscountAmount, q.ShippingFee, fixed.Amount)
			if capped {
				q.Notices = append(q.Notices, fmt.Sprintf("voucher %s was reduced to %s so the total does not go below zero",
					fixed.Code, amount.StringFixed(pricing.MinorUnits)))
			}
			q.VoucherCode = fixed.Code
			q.VoucherAmount = amount
		}
	}

	q.Total = pricing.Total(q.Amount, q.ShippingFee, q.DiscountAmount, q.VoucherAmount)
	return q
}
