package graphql

import (
	"sort"

	"github.com/shopspring/decimal"

	cartEntity "storefront.GO/model/entity/cart"
	catalogEntity "storefront.GO/model/entity/catalog"
	"storefront.GO/service/checkout"
	"storefront.GO/service/pricing"
)

// Money and weights are rendered as decimal strings, matching the REST API.

type Product struct {
	ID              string
	Name            string
	Price           string
	DiscountPercent string
	FinalPrice      string
	Weight          string
	Variations      []*VariationGroup
}

type VariationGroup struct {
	Name    string
	Options []*VariationOption
}

type VariationOption struct {
	Name              string
	PriceAdjustment   string
	AvailableQuantity int32
}

type SelectedOption struct {
	Group           string
	Name            string
	PriceAdjustment string
}

type CartLine struct {
	Key        string
	ProductID  string
	Name       *string
	Quantity   int32
	Variations []*SelectedOption
	FinalPrice string
	Subtotal   string
}

type Cart struct {
	Authenticated bool
	Revision      string
	Count         int32
	Amount        string
	Weight        string
	Items         []*CartLine
	Unavailable   []string
}

type Quote struct {
	BuyNow         bool
	Items          []*CartLine
	Amount         string
	DiscountAmount string
	VoucherCode    string
	VoucherAmount  string
	ShippingFee    string
	Region         string
	Weight         string
	Total          string
	Unavailable    []string
	Notices        []string
}

func money(d decimal.Decimal) string {
	return d.String()
}

func mapProduct(p catalogEntity.Product) *Product {
	final, _ := pricing.UnitPrice(p.Price, p.DiscountPercent, decimal.Zero)
	out := &Product{
		ID:              p.ID,
		Name:            p.Name,
		Price:           money(p.Price),
		DiscountPercent: money(p.DiscountPercent),
		FinalPrice:      money(final),
		Weight:          p.Weight.String(),
		Variations:      make([]*VariationGroup, 0, len(p.Variations)),
	}
	for _, g := range p.Variations {
		group := &VariationGroup{Name: g.Name, Options: make([]*VariationOption, 0, len(g.Options))}
		for _, o := range g.Options {
			group.Options = append(group.Options, &VariationOption{
				Name:              o.Name,
				PriceAdjustment:   money(o.PriceAdjustment),
				AvailableQuantity: int32(o.AvailableQuantity),
			})
		}
		out.Variations = append(out.Variations, group)
	}
	return out
}

// mapLine renders a cart line; name is nil when the product left the catalog.
func mapLine(l cartEntity.Line, name string) *CartLine {
	out := &CartLine{
		Key:        l.Key,
		ProductID:  l.BaseProductID,
		Quantity:   int32(l.Quantity),
		Variations: make([]*SelectedOption, 0, len(l.Variations)),
		FinalPrice: money(l.FinalPrice),
		Subtotal:   money(l.Subtotal()),
	}
	if name != "" {
		out.Name = &name
	}
	groups := make([]string, 0, len(l.Variations))
	for g := range l.Variations {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	for _, g := range groups {
		o := l.Variations[g]
		out.Variations = append(out.Variations, &SelectedOption{Group: g, Name: o.Name, PriceAdjustment: money(o.PriceAdjustment)})
	}
	return out
}

func mapQuote(q checkout.Quote) *Quote {
	out := &Quote{
		BuyNow:         q.BuyNow,
		Items:          make([]*CartLine, 0, len(q.Items)),
		Amount:         money(q.Amount),
		DiscountAmount: money(q.DiscountAmount),
		VoucherCode:    q.VoucherCode,
		VoucherAmount:  money(q.VoucherAmount),
		ShippingFee:    money(q.ShippingFee),
		Region:         q.Region,
		Weight:         q.Weight.String(),
		Total:          money(q.Total),
		Unavailable:    nonNil(q.Unavailable),
		Notices:        nonNil(q.Notices),
	}
	for _, it := range q.Items {
		out.Items = append(out.Items, mapLine(it.Line, it.Name))
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
