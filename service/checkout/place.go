package checkout

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront.GO/core/apperror"
	"storefront.GO/model/entity/order"
	"storefront.GO/service/pricing"
)

// PlaceOrder submits the current quote. Dependencies that failed to load are fetched
// again first. It is refused before any request is sent when dependencies are missing, nothing is ordered, no region is chosen, the total is not
// positive or the shopper is not signed in. After success the buy-now item (or the cart)
// and the vouchers are cleared.
func (s *Session) PlaceOrder(ctx context.Context, method order.PaymentMethod, receipt *order.Receipt) (order.Result, Quote, error) {
	const op = "checkout.PlaceOrder"
	if !method.Valid() {
		return order.Result{}, Quote{}, apperror.Newf(apperror.KindValidation, op, "unsupported payment method %q", method)
	}
	if method == order.PaymentReceipt && (receipt == nil || receipt.Content == nil) {
		return order.Result{}, Quote{}, apperror.Validation(op, "a payment receipt is required")
	}
	token := s.cart.Token()
	if token == "" {
		return order.Result{}, Quote{}, apperror.Unauthenticated(op)
	}

	if err := s.EnsureLoaded(ctx); err != nil {
		return order.Result{}, Quote{}, err
	}
	q, err := s.Quote()
	if err != nil {
		return order.Result{}, q, err
	}
	switch {
	case len(q.Items) == 0:
		return order.Result{}, q, apperror.CheckoutBlocked(op, "there is nothing to order")
	case q.Region == "":
		return order.Result{}, q, apperror.CheckoutBlocked(op, "choose a delivery region")
	case !q.Total.IsPositive():
		return order.Result{}, q, apperror.CheckoutBlocked(op, "order total must be greater than zero")
	}
	if err := checkBreakdown(q.Breakdown); err != nil {
		s.logger.Error("order breakdown does not add up", zap.Error(err))
		return order.Result{}, q, err
	}

	res, err := s.backend.PlaceOrder(ctx, token, method, q.Breakdown, receipt)
	if err != nil {
		if apperror.KindOf(err) == apperror.KindUnknown {
			err = apperror.Wrap(apperror.KindNetwork, op, err)
		}
		return order.Result{}, q, err
	}
	s.logger.Info("order placed",
		zap.String("order_id", res.OrderID),
		zap.String("method", string(method)),
		zap.Bool("buy_now", q.BuyNow),
		zap.String("total", q.Total.StringFixed(2)))

	if q.BuyNow {
		s.ClearBuyNow()
	} else if err := s.cart.Reset(ctx); err != nil {
		s.logger.Warn("clearing cart after order failed", zap.Error(err))
	}
	s.ClearVouchers()
	return res, q, nil
}

// checkBreakdown re-adds the submitted items and deductions and compares them with
// Amount and Total.
func checkBreakdown(b order.Breakdown) error {
	const op = "checkout.checkBreakdown"
	sum := decimal.Zero
	for _, it := range b.Items {
		sum = sum.Add(it.Subtotal())
	}
	if sum = pricing.Round(sum); !sum.Equal(b.Amount) {
		return apperror.Newf(apperror.KindPricing, op, "items add up to %s, amount is %s",
			sum.StringFixed(pricing.MinorUnits), b.Amount.StringFixed(pricing.MinorUnits))
	}
	total := pricing.Total(b.Amount, b.ShippingFee, b.DiscountAmount, b.VoucherAmount)
	if !total.Equal(b.Total) {
		return apperror.Newf(apperror.KindPricing, op, "breakdown adds up to %s, total is %s",
			total.StringFixed(pricing.MinorUnits), b.Total.StringFixed(pricing.MinorUnits))
	}
	return nil
}
