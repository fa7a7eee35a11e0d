package checkout

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storefront.GO/core/apperror"
	cartEntity "storefront.GO/model/entity/cart"
	"storefront.GO/service/pricing"
)

// resolveVoucher asks both voucher services about code at once. A percentage
// voucher wins when both accept it. A fixed voucher must meet its minimum purchase.
func (s *Session) resolveVoucher(ctx context.Context, code string) (cartEntity.VoucherState, error) {
	const op = "checkout.ApplyVoucher"
	token := s.cart.Token()

	var (
		g          errgroup.Group
		percent    decimal.Decimal
		fixed      cartEntity.FixedVoucher
		percentErr error
		fixedErr   error
	)
	// both calls run to completion; their errors are judged separately below
	g.Go(func() error {
		percent, percentErr = s.backend.ValidatePercentVoucher(ctx, token, code)
		return nil
	})
	g.Go(func() error {
		fixed, fixedErr = s.backend.ApplyFixedVoucher(ctx, token, code)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return cartEntity.VoucherState{}, err
	}
	current := s.Vouchers()
	if percentErr == nil {
		return current.WithPercent(code, percent), nil
	}
	if fixedErr == nil {
		s.mu.Lock()
		amount := s.quoteLocked().Amount
		s.mu.Unlock()
		if err := pricing.CheckMinimumPurchase(fixed, amount); err != nil {
			return cartEntity.VoucherState{}, &apperror.Error{Kind: apperror.KindValidation, Op: op, Err: err}
		}
		return current.WithFixed(fixed), nil
	}

	for _, err := range []error{percentErr, fixedErr} {
		if !apperror.Is(err, apperror.KindValidation) {
			return cartEntity.VoucherState{}, apperror.Wrap(apperror.KindNetwork, op, err)
		}
	}
	return cartEntity.VoucherState{}, apperror.Validation(op, "voucher "+code+" is not valid")
}

// ApplyVoucher validates code now and activates it. An empty code removes both vouchers.
// On failure the active vouchers are kept. A later submission or Leave cancels the
// validation; the call then returns ErrVoucherSuperseded and changes nothing.
func (s *Session) ApplyVoucher(ctx context.Context, code string) (cartEntity.VoucherState, error) {
	s.mu.Lock()
	gen := s.nextVoucherLocked()
	ctx, cancel := context.WithCancel(ctx)
	s.voucherCancel = cancel
	s.mu.Unlock()
	defer cancel()

	state, err := s.applyIfCurrent(ctx, gen, code)
	if errors.Is(err, ErrVoucherSuperseded) {
		return s.Vouchers(), apperror.Wrap(apperror.KindCheckoutBlocked, "checkout.ApplyVoucher", err)
	}
	return state, err
}

// VoucherResult receives the outcome of a debounced voucher submission.
type VoucherResult func(state cartEntity.VoucherState, err error)

// SubmitVoucherCode validates code after the debounce delay. A newer submission,
// or leaving checkout, cancels the pending timer and any validation in flight;
// done is only called for the submission that is still current.
func (s *Session) SubmitVoucherCode(code string, done VoucherResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gen := s.nextVoucherLocked()

	ctx, cancel := context.WithCancel(context.Background())
	s.voucherCancel = cancel
	s.voucherTimer = time.AfterFunc(s.debounce, func() {
		defer cancel()
		state, err := s.applyIfCurrent(ctx, gen, code)
		if errors.Is(err, ErrVoucherSuperseded) {
			s.logger.Debug("voucher submission superseded", zap.String("code", code))
			return
		}
		if done != nil {
			done(state, err)
		}
	})
}

// ErrVoucherSuperseded reports a voucher validation cancelled by a newer submission
// or by leaving checkout.
var ErrVoucherSuperseded = errors.New("voucher validation was cancelled")

// nextVoucherLocked starts a new voucher submission and cancels the previous one.
func (s *Session) nextVoucherLocked() uint64 {
	s.voucherGen++
	s.stopVoucherLocked()
	return s.voucherGen
}

// applyIfCurrent applies code only while gen is the latest submission.
func (s *Session) applyIfCurrent(ctx context.Context, gen uint64, code string) (cartEntity.VoucherState, error) {
	code = strings.TrimSpace(code)
	var (
		state cartEntity.VoucherState
		err   error
	)
	if code != "" {
		state, err = s.resolveVoucher(ctx, code)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.voucherGen {
		return cartEntity.VoucherState{}, ErrVoucherSuperseded
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return s.vouchers, apperror.Wrap(apperror.KindNetwork, "checkout.ApplyVoucher", ctxErr)
	}
	if err != nil {
		return s.vouchers, err
	}
	s.vouchers = state
	return state, nil
}

// stopVoucherLocked cancels the pending debounce timer and the in-flight validation.
func (s *Session) stopVoucherLocked() {
	if s.voucherTimer != nil {
		s.voucherTimer.Stop()
		s.voucherTimer = nil
	}
	if s.voucherCancel != nil {
		s.voucherCancel()
		s.voucherCancel = nil
	}
}
