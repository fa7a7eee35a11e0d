package backend

import (
	"context"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"storefront.GO/core/apperror"
	"storefront.GO/model/entity/cart"
)

// ErrVoucherNotApplicable marks a voucher code one validation service did not accept.
var ErrVoucherNotApplicable = errors.New("voucher not applicable")

func voucherRejection(err error) error {
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return &apperror.Error{Kind: apperror.KindValidation, Op: rejected.Op, Message: rejected.Message, Err: ErrVoucherNotApplicable}
	}
	return err
}

// ValidatePercentVoucher calls POST /api/subscribers/validate-voucher.
func (c *Client) ValidatePercentVoucher(ctx context.Context, token, code string) (decimal.Decimal, error) {
	var resp struct {
		DiscountPercent *decimal.Decimal `json:"discountPercent"`
	}
	err := c.do(ctx, http.MethodPost, "/api/subscribers/validate-voucher", token, map[string]string{"code": code}, &resp)
	if err != nil {
		return decimal.Zero, voucherRejection(err)
	}
	if resp.DiscountPercent == nil || !resp.DiscountPercent.IsPositive() {
		return decimal.Zero, &apperror.Error{Kind: apperror.KindValidation, Op: "backend.ValidatePercentVoucher", Message: "no percentage discount for " + code, Err: ErrVoucherNotApplicable}
	}
	return *resp.DiscountPercent, nil
}

// ApplyFixedVoucher calls POST /api/voucher-amounts/apply.
func (c *Client) ApplyFixedVoucher(ctx context.Context, token, code string) (cart.FixedVoucher, error) {
	var resp struct {
		VoucherAmount *struct {
			Code            string          `json:"code"`
			Amount          decimal.Decimal `json:"amount"`
			MinimumPurchase decimal.Decimal `json:"minimumPurchase"`
		} `json:"voucherAmount"`
	}
	err := c.do(ctx, http.MethodPost, "/api/voucher-amounts/apply", token, map[string]string{"code": code}, &resp)
	if err != nil {
		return cart.FixedVoucher{}, voucherRejection(err)
	}
	if resp.VoucherAmount == nil || !resp.VoucherAmount.Amount.IsPositive() {
		return cart.FixedVoucher{}, &apperror.Error{Kind: apperror.KindValidation, Op: "backend.ApplyFixedVoucher", Message: "no fixed amount for " + code, Err: ErrVoucherNotApplicable}
	}
	v := cart.FixedVoucher{
		Code:            resp.VoucherAmount.Code,
		Amount:          resp.VoucherAmount.Amount,
		MinimumPurchase: resp.VoucherAmount.MinimumPurchase,
	}
	if v.Code == "" {
		v.Code = code
	}
	return v, nil
}
