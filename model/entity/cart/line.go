package cart

import (
	"sort"

	"github.com/shopspring/decimal"

	"storefront.GO/core/apperror"
)

// SelectedOption is the snapshot of a chosen variation option taken when the line was priced.
type SelectedOption struct {
	Name            string          `json:"name" mapstructure:"name"`
	PriceAdjustment decimal.Decimal `json:"priceAdjustment" mapstructure:"priceAdjustment"`
}

// Selection maps variation group name to the chosen option. At most one option per group;
// only groups the shopper chose are present.
type Selection map[string]SelectedOption

// Clone copies the selection so callers cannot alias cart state.
func (s Selection) Clone() Selection {
	if s == nil {
		return nil
	}
	out := make(Selection, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Choices is raw shopper input: group name to option name.
type Choices map[string]string

// Line is one priced, quantified entry of the cart.
type Line struct {
	Key                 string          `json:"key"`
	BaseProductID       string          `json:"baseProductId"`
	Quantity            int             `json:"quantity"`
	Variations          Selection       `json:"variations"`
	VariationAdjustment decimal.Decimal `json:"variationAdjustment"`
	FinalPrice          decimal.Decimal `json:"finalPrice"`
}

// Validate rejects malformed lines at the boundary (local store, server payloads).
func (l Line) Validate() error {
	const op = "cart.Line.Validate"
	if l.Key == "" {
		return apperror.Validation(op, "line key is required")
	}
	if l.BaseProductID == "" {
		return apperror.Validation(op, "base product id is required")
	}
	if ParseBaseProductID(l.Key) != l.BaseProductID {
		return apperror.Newf(apperror.KindValidation, op, "key %q does not belong to product %q", l.Key, l.BaseProductID)
	}
	if l.Quantity < 1 {
		return apperror.Newf(apperror.KindValidation, op, "quantity %d must be at least 1", l.Quantity)
	}
	if l.FinalPrice.IsNegative() {
		return apperror.Validation(op, "final price must not be negative")
	}
	return nil
}

// Subtotal is FinalPrice times Quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.FinalPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Clone deep-copies the line.
func (l Line) Clone() Line {
	l.Variations = l.Variations.Clone()
	return l
}

// Cart maps cart key to line.
type Cart map[string]Line

// Clone returns a deep copy.
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	for k, l := range c {
		out[k] = l.Clone()
	}
	return out
}

// Keys returns the cart keys sorted, for deterministic iteration.
func (c Cart) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lines returns the lines in key order.
func (c Cart) Lines() []Line {
	out := make([]Line, 0, len(c))
	for _, k := range c.Keys() {
		out = append(out, c[k].Clone())
	}
	return out
}

// TotalQuantity sums quantities over all lines.
func (c Cart) TotalQuantity() int {
	n := 0
	for _, l := range c {
		n += l.Quantity
	}
	return n
}
