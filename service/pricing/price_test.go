package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront.GO/model/entity/cart"
	"storefront.GO/model/entity/catalog"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestVariationAdjustment(t *testing.T) {
	assert.True(t, VariationAdjustment(nil).IsZero())
	sel := cart.Selection{
		"Color": {Name: "Red", PriceAdjustment: d("5")},
		"Size":  {Name: "XS", PriceAdjustment: d("-2.50")},
	}
	assert.Equal(t, "2.5", VariationAdjustment(sel).String())
}

func TestLineFinalPrice(t *testing.T) {
	testCases := []struct {
		name    string
		product catalog.Product
		sel     cart.Selection
		want    string
		clamped bool
	}{
		{
			name:    "base price only",
			product: catalog.Product{ID: "p1", Price: d("19.99")},
			want:    "19.99",
		},
		{
			name:    "discount then adjustment",
			product: catalog.Product{ID: "p1", Price: d("100"), DiscountPercent: d("20")},
			sel:     cart.Selection{"Color": {Name: "Red", PriceAdjustment: d("5")}},
			want:    "85",
		},
		{
			name:    "rounds half away from zero",
			product: catalog.Product{ID: "p1", Price: d("10.005")},
			want:    "10.01",
		},
		{
			name:    "full discount keeps adjustment",
			product: catalog.Product{ID: "p1", Price: d("40"), DiscountPercent: d("100")},
			sel:     cart.Selection{"Gift": {Name: "Wrap", PriceAdjustment: d("3")}},
			want:    "3",
		},
		{
			name:    "negative adjustment clamps to zero",
			product: catalog.Product{ID: "p1", Price: d("10")},
			sel:     cart.Selection{"Size": {Name: "Tiny", PriceAdjustment: d("-50")}},
			want:    "0",
			clamped: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, clamped := LineFinalPrice(tc.product, tc.sel)
			assert.True(t, d(tc.want).Equal(got), "got %s want %s", got, tc.want)
			assert.Equal(t, tc.clamped, clamped)
		})
	}
}

func TestLineFinalPrice_NeverNegative(t *testing.T) {
	for pct := 0; pct <= 100; pct += 5 {
		for _, adj := range []string{"-100000", "-99.99", "-10", "0", "0.01", "250"} {
			p := catalog.Product{ID: "p", Price: d("49.95"), DiscountPercent: decimal.NewFromInt(int64(pct))}
			sel := cart.Selection{"G": {Name: "o", PriceAdjustment: d(adj)}}
			got, _ := LineFinalPrice(p, sel)
			assert.False(t, got.IsNegative(), "pct=%d adj=%s got %s", pct, adj, got)
		}
	}
}

func TestLineFinalPrice_DiscountMonotonic(t *testing.T) {
	sel := cart.Selection{"G": {Name: "o", PriceAdjustment: d("3.33")}}
	prev, _ := LineFinalPrice(catalog.Product{ID: "p", Price: d("77.77")}, sel)
	for pct := 1; pct <= 100; pct++ {
		p := catalog.Product{ID: "p", Price: d("77.77"), DiscountPercent: decimal.NewFromInt(int64(pct))}
		got, _ := LineFinalPrice(p, sel)
		assert.False(t, got.GreaterThan(prev), "pct=%d raised price from %s to %s", pct, prev, got)
		prev = got
	}
}

func TestCartTotals(t *testing.T) {
	cat := catalog.New(1, []catalog.Product{
		{ID: "p1", Price: d("100"), Weight: d("1.5")},
		{ID: "p2", Price: d("50"), Weight: d("0.25")},
	})
	k1, err := cart.MakeKey("p1", nil)
	require.NoError(t, err)
	k2, err := cart.MakeKey("p2", nil)
	require.NoError(t, err)
	c := cart.Cart{
		k1: {Key: k1, BaseProductID: "p1", Quantity: 2, FinalPrice: d("100")},
		k2: {Key: k2, BaseProductID: "p2", Quantity: 1, FinalPrice: d("50")},
	}

	totals := CartTotals(c, cat)
	assert.Equal(t, "250", totals.Amount.String())
	assert.Equal(t, "3.25", totals.Weight.String())
	assert.Empty(t, totals.Stale)
	assert.True(t, CartAmount(c, cat).Equal(totals.Amount))
	assert.True(t, CartWeight(c, cat).Equal(totals.Weight))
}

func TestCartTotals_UsesStoredAdjustment(t *testing.T) {
	cat := catalog.New(1, []catalog.Product{{
		ID: "p1", Price: d("20"), DiscountPercent: d("10"),
		Variations: []catalog.VariationGroup{{Name: "Color", Options: []catalog.VariationOption{
			{Name: "Red", PriceAdjustment: d("99"), AvailableQuantity: 3},
		}}},
	}})
	sel := cart.Selection{"Color": {Name: "Red", PriceAdjustment: d("2")}}
	key, err := cart.MakeKey("p1", sel)
	require.NoError(t, err)
	c := cart.Cart{key: {Key: key, BaseProductID: "p1", Quantity: 3, Variations: sel, VariationAdjustment: d("2")}}

	// (20 * 0.9 + 2) * 3
	assert.Equal(t, "60", CartTotals(c, cat).Amount.String())
}

func TestCartTotals_SkipsStaleLines(t *testing.T) {
	cat := catalog.New(1, []catalog.Product{{ID: "p1", Price: d("10"), Weight: d("2")}})
	c := cart.Cart{
		"p1|default":   {Key: "p1|default", BaseProductID: "p1", Quantity: 1},
		"gone|default": {Key: "gone|default", BaseProductID: "gone", Quantity: 4, FinalPrice: d("500")},
	}

	var totals Totals
	require.NotPanics(t, func() { totals = CartTotals(c, cat) })
	assert.Equal(t, "10", totals.Amount.String())
	assert.Equal(t, "2", totals.Weight.String())
	assert.Equal(t, []string{"gone|default"}, totals.Stale)
}

func TestCartTotals_IgnoresNonPositiveQuantity(t *testing.T) {
	cat := catalog.New(1, []catalog.Product{{ID: "p1", Price: d("10"), Weight: d("2")}})
	c := cart.Cart{"p1|default": {Key: "p1|default", BaseProductID: "p1", Quantity: 0}}
	totals := CartTotals(c, cat)
	assert.True(t, totals.Amount.IsZero())
	assert.True(t, totals.Weight.IsZero())
}
