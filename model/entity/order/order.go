package order

import (
	"io"

	"github.com/shopspring/decimal"

	"storefront.GO/model/entity/cart"
)

// PaymentMethod selects the order placement endpoint.
type PaymentMethod string

const (
	PaymentCOD     PaymentMethod = "cod"
	PaymentStripe  PaymentMethod = "stripe"
	PaymentGCash   PaymentMethod = "gcash"
	PaymentReceipt PaymentMethod = "receipt"
)

// Valid reports whether m is a supported method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCOD, PaymentStripe, PaymentGCash, PaymentReceipt:
		return true
	}
	return false
}

// Item is a cart line snapshot as submitted with an order.
type Item struct {
	cart.Line
	Name string `json:"name,omitempty"`
}

// Breakdown is the final computed checkout amount submitted to the order API.
type Breakdown struct {
	Items          []Item          `json:"items"`
	Amount         decimal.Decimal `json:"amount"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	VoucherCode    string          `json:"voucherCode"`
	VoucherAmount  decimal.Decimal `json:"voucherAmount"`
	ShippingFee    decimal.Decimal `json:"shippingFee"`
	Region         string          `json:"region"`
	Total          decimal.Decimal `json:"total"`
}

// Receipt is a proof-of-payment upload for PaymentReceipt orders.
type Receipt struct {
	Filename string
	Content  io.Reader
}

// Result is what the order API returns.
type Result struct {
	OrderID string `json:"orderId"`
	Message string `json:"message"`
	// RedirectURL is the hosted payment page for stripe and gcash orders.
	RedirectURL string `json:"redirectUrl,omitempty"`
}
