package cart

import (
	"github.com/shopspring/decimal"
)

// BuyNowItem is the single-item snapshot used by the buy-now checkout path.
// It never enters the Cart.
type BuyNowItem struct {
	Line
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	Weight      decimal.Decimal `json:"weight"`
}

// TotalWeight is the per-unit weight times quantity.
func (b BuyNowItem) TotalWeight() decimal.Decimal {
	return b.Weight.Mul(decimal.NewFromInt(int64(b.Quantity)))
}
