package cart

import (
	"github.com/shopspring/decimal"
)

// FixedVoucher is a flat currency-amount voucher.
type FixedVoucher struct {
	Code            string          `json:"code" mapstructure:"code"`
	Amount          decimal.Decimal `json:"amount" mapstructure:"amount"`
	MinimumPurchase decimal.Decimal `json:"minimumPurchase" mapstructure:"minimumPurchase"`
}

// Active reports whether the voucher contributes a deduction.
func (v FixedVoucher) Active() bool {
	return v.Amount.IsPositive()
}

// VoucherState holds the active percentage voucher and the active fixed voucher.
// Only one of them contributes at a time: applying one kind zeroes the other.
type VoucherState struct {
	Code            string          `json:"code"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	Fixed           FixedVoucher    `json:"voucherAmountDiscount"`
}

// WithPercent activates a percentage voucher and zeroes the fixed one.
func (s VoucherState) WithPercent(code string, percent decimal.Decimal) VoucherState {
	return VoucherState{Code: code, DiscountPercent: percent}
}

// WithFixed activates a fixed voucher and zeroes the percentage one.
func (s VoucherState) WithFixed(v FixedVoucher) VoucherState {
	return VoucherState{Code: v.Code, DiscountPercent: decimal.Zero, Fixed: v}
}
