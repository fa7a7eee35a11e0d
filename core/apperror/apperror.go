package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies failures so callers can decide whether to revert, retry or block checkout.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindStale
	KindNetwork
	KindPricing
	KindCheckoutBlocked
	KindAuth
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION"
	case KindNotFound:
		return "NOT_FOUND"
	case KindStale:
		return "STALE_REFERENCE"
	case KindNetwork:
		return "NETWORK"
	case KindPricing:
		return "PRICING_INTEGRITY"
	case KindCheckoutBlocked:
		return "CHECKOUT_BLOCKED"
	case KindAuth:
		return "UNAUTHENTICATED"
	default:
		return "UNKNOWN"
	}
}

// Error is the single error type surfaced by the cart and checkout services.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

func Newf(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to err. A nil err stays nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func Validation(op, message string) *Error { return New(KindValidation, op, message) }

func NotFound(op, message string) *Error { return New(KindNotFound, op, message) }

func CheckoutBlocked(op, message string) *Error { return New(KindCheckoutBlocked, op, message) }

func Unauthenticated(op string) *Error { return New(KindAuth, op, "authentication required") }

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Retryable reports whether the user may simply try the operation again.
func Retryable(err error) bool {
	return Is(err, KindNetwork)
}
