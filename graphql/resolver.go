package graphql

import (
	"context"
	"strconv"

	cartService "storefront.GO/service/cart"
	catalogService "storefront.GO/service/catalog"
	"storefront.GO/service/checkout"
	"storefront.GO/service/pricing"
)

// RootResolver implements the Query fields.
type RootResolver struct {
	cart     *cartService.Manager
	checkout *checkout.Session
	products *catalogService.Service
}

func NewRootResolver(cart *cartService.Manager, session *checkout.Session, products *catalogService.Service) *RootResolver {
	return &RootResolver{cart: cart, checkout: session, products: products}
}

// ProductsArgs filters products by id; nil lists the whole catalog.
// Unknown ids are skipped.
type ProductsArgs struct {
	IDs *[]string
}

func (r *RootResolver) Products(ctx context.Context, args ProductsArgs) ([]*Product, error) {
	if !r.products.Loaded() {
		if _, err := r.products.Load(ctx); err != nil {
			return nil, err
		}
	}
	cat := r.products.Catalog()
	if args.IDs == nil {
		out := make([]*Product, 0, cat.Len())
		for _, p := range cat.Products() {
			out = append(out, mapProduct(p))
		}
		return out, nil
	}
	out := make([]*Product, 0, len(*args.IDs))
	for _, id := range *args.IDs {
		if p, ok := cat.Lookup(id); ok {
			out = append(out, mapProduct(p))
		}
	}
	return out, nil
}

type ProductArgs struct {
	ID string
}

// Product falls back to the backend when the id is not in the catalog snapshot.
func (r *RootResolver) Product(ctx context.Context, args ProductArgs) (*Product, error) {
	p, err := r.products.Product(ctx, args.ID)
	if err != nil {
		return nil, err
	}
	return mapProduct(p), nil
}

func (r *RootResolver) Cart() *Cart {
	lines, rev := r.cart.Snapshot()
	cat := r.products.Catalog()
	totals := pricing.CartTotals(lines, cat)

	out := &Cart{
		Authenticated: r.cart.Authenticated(),
		Revision:      strconv.FormatUint(rev, 10),
		Count:         int32(lines.TotalQuantity()),
		Amount:        money(totals.Amount),
		Weight:        pricing.CartWeight(lines, cat).String(),
		Items:         make([]*CartLine, 0, len(lines)),
		Unavailable:   nonNil(totals.Stale),
	}
	for _, l := range lines.Lines() {
		name := ""
		if p, ok := cat.Lookup(l.BaseProductID); ok {
			name = p.Name
		}
		out.Items = append(out.Items, mapLine(l, name))
	}
	return out
}

func (r *RootResolver) Quote(ctx context.Context) (*Quote, error) {
	if err := r.checkout.EnsureLoaded(ctx); err != nil {
		return nil, err
	}
	q, err := r.checkout.Quote()
	if err != nil {
		return nil, err
	}
	return mapQuote(q), nil
}
