// Package pricing holds the pure price, voucher and shipping calculations shared by the
// cart and checkout services. Nothing here performs I/O or keeps state.
package pricing

import (
	"github.com/shopspring/decimal"

	"storefront.GO/model/entity/cart"
	"storefront.GO/model/entity/catalog"
)

// MinorUnits is the currency precision every price is rounded to.
const MinorUnits int32 = 2

var hundred = decimal.NewFromInt(100)

// Round rounds to the currency's minor unit, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(MinorUnits)
}

// clampPercent keeps a percentage inside [0, 100].
func clampPercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}

// VariationAdjustment sums the price adjustments of every selected option.
func VariationAdjustment(sel cart.Selection) decimal.Decimal {
	sum := decimal.Zero
	for _, opt := range sel {
		sum = sum.Add(opt.PriceAdjustment)
	}
	return sum
}

// UnitPrice applies the product discount to base and adds the variation adjustment.
// The result is rounded and floored at zero; clamped reports that the floor was hit.
func UnitPrice(base, discountPercent, adjustment decimal.Decimal) (price decimal.Decimal, clamped bool) {
	if discountPercent.IsPositive() {
		factor := decimal.NewFromInt(1).Sub(clampPercent(discountPercent).Div(hundred))
		base = base.Mul(factor)
	}
	price = Round(base.Add(adjustment))
	if price.IsNegative() {
		return decimal.Zero, true
	}
	return price, false
}

// LineFinalPrice prices one unit of product with the given selection.
func LineFinalPrice(p catalog.Product, sel cart.Selection) (decimal.Decimal, bool) {
	return UnitPrice(p.Price, p.DiscountPercent, VariationAdjustment(sel))
}

// Totals is the aggregate of a cart against a catalog.
type Totals struct {
	Amount decimal.Decimal
	Weight decimal.Decimal
	// Stale lists cart keys whose product no longer resolves in the catalog.
	Stale []string
	// Clamped lists cart keys whose computed unit price was floored at zero.
	Clamped []string
}

// CartTotals computes subtotal and weight in one deterministic pass.
// Prices use the live base price and discount with the line's stored variation adjustment,
// which keeps the option prices the shopper saw when adding the line.
func CartTotals(c cart.Cart, cat *catalog.Catalog) Totals {
	t := Totals{Amount: decimal.Zero, Weight: decimal.Zero}
	for _, key := range c.Keys() {
		line := c[key]
		if line.Quantity <= 0 {
			continue
		}
		p, ok := cat.Lookup(cart.ParseBaseProductID(key))
		if !ok {
			t.Stale = append(t.Stale, key)
			continue
		}
		qty := decimal.NewFromInt(int64(line.Quantity))
		unit, clamped := UnitPrice(p.Price, p.DiscountPercent, line.VariationAdjustment)
		if clamped {
			t.Clamped = append(t.Clamped, key)
		}
		t.Amount = t.Amount.Add(unit.Mul(qty))
		t.Weight = t.Weight.Add(p.Weight.Mul(qty))
	}
	t.Amount = Round(t.Amount)
	return t
}

// CartAmount is the cart subtotal.
func CartAmount(c cart.Cart, cat *catalog.Catalog) decimal.Decimal {
	return CartTotals(c, cat).Amount
}

// CartWeight is the cart weight in kilograms, derived independently of the amount.
func CartWeight(c cart.Cart, cat *catalog.Catalog) decimal.Decimal {
	w := decimal.Zero
	for key, line := range c {
		if line.Quantity <= 0 {
			continue
		}
		if p, ok := cat.Lookup(cart.ParseBaseProductID(key)); ok {
			w = w.Add(p.Weight.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
	}
	return w
}
