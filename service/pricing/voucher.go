package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"storefront.GO/model/entity/cart"
)

// DiscountAmount is the percentage-voucher deduction on the cart amount, never negative.
func DiscountAmount(cartAmount, percent decimal.Decimal) decimal.Decimal {
	d := Round(cartAmount.Mul(clampPercent(percent)).Div(hundred))
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// CapVoucher limits a fixed voucher so that subtotal - discount - voucher + shipping >= 0.
// capped reports that the voucher was reduced.
func CapVoucher(subtotal, discount, shipping, amount decimal.Decimal) (decimal.Decimal, bool) {
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	ceiling := decimal.Max(decimal.Zero, subtotal.Sub(discount).Add(shipping))
	if amount.GreaterThan(ceiling) {
		return ceiling, true
	}
	return amount, false
}

// Total is the payable amount: subtotal minus every deduction plus shipping, floored at zero.
func Total(subtotal, shipping decimal.Decimal, deductions ...decimal.Decimal) decimal.Decimal {
	t := subtotal.Add(shipping)
	for _, d := range deductions {
		t = t.Sub(d)
	}
	return decimal.Max(decimal.Zero, Round(t))
}

// MinimumPurchaseError rejects a fixed voucher whose threshold is not met.
type MinimumPurchaseError struct {
	Code     string
	Required decimal.Decimal
	Current  decimal.Decimal
}

func (e *MinimumPurchaseError) Error() string {
	return fmt.Sprintf("voucher %s requires a minimum purchase of %s (current total %s)",
		e.Code, e.Required.StringFixed(MinorUnits), e.Current.StringFixed(MinorUnits))
}

// CheckMinimumPurchase fails when the voucher's minimum purchase exceeds currentTotal.
func CheckMinimumPurchase(v cart.FixedVoucher, currentTotal decimal.Decimal) error {
	if v.MinimumPurchase.GreaterThan(currentTotal) {
		return &MinimumPurchaseError{Code: v.Code, Required: v.MinimumPurchase, Current: currentTotal}
	}
	return nil
}
