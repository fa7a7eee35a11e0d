package catalog

import (
	"github.com/shopspring/decimal"
)

// VariationOption is one choice inside a variation group (e.g. "Red" in "Color").
// AvailableQuantity of 0 makes the option unselectable.
type VariationOption struct {
	Name              string          `json:"name"`
	PriceAdjustment   decimal.Decimal `json:"priceAdjustment"`
	AvailableQuantity int             `json:"availableQuantity"`
}

// VariationGroup is a named axis of customization. Option names are unique within a group.
type VariationGroup struct {
	Name    string            `json:"name"`
	Options []VariationOption `json:"options"`
}

// Option looks up an option by name.
func (g *VariationGroup) Option(name string) (*VariationOption, bool) {
	for i := range g.Options {
		if g.Options[i].Name == name {
			return &g.Options[i], true
		}
	}
	return nil, false
}

// Product as served by GET /api/product/list. Read-only to the pricing core.
type Product struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Price           decimal.Decimal  `json:"price"`
	DiscountPercent decimal.Decimal  `json:"discountPercent"`
	Weight          decimal.Decimal  `json:"weight"`
	Variations      []VariationGroup `json:"variations"`
}

// Group looks up a variation group by name.
func (p *Product) Group(name string) (*VariationGroup, bool) {
	for i := range p.Variations {
		if p.Variations[i].Name == name {
			return &p.Variations[i], true
		}
	}
	return nil, false
}

// Region is a delivery region with its base shipping fee.
type Region struct {
	Name string          `json:"name"`
	Fee  decimal.Decimal `json:"fee"`
}
