package cartstore

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront.GO/config"
	"storefront.GO/model/entity/cart"
	"storefront.GO/model/entity/storage"
)

func testStore(t *testing.T) *CartStore {
	t.Setenv("GORM_LOG", "off")
	db, err := config.NewDB(&config.Config{StoreDSN: config.MemoryDSN})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	s, err := New(db, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestCartStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	sel := cart.Selection{"Color": {Name: "Red", PriceAdjustment: decimal.RequireFromString("2.50")}}
	key, err := cart.MakeKey("p1", sel)
	require.NoError(t, err)
	c := cart.Cart{
		key: {Key: key, BaseProductID: "p1", Quantity: 2, Variations: sel,
			VariationAdjustment: decimal.RequireFromString("2.50"), FinalPrice: decimal.RequireFromString("102.50")},
		"p2|default": {Key: "p2|default", BaseProductID: "p2", Quantity: 1, FinalPrice: decimal.NewFromInt(7)},
	}
	require.NoError(t, s.SaveCart(ctx, c))

	got, err := s.LoadCart(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[key].Quantity)
	assert.Equal(t, "Red", got[key].Variations["Color"].Name)
	assert.True(t, decimal.RequireFromString("102.5").Equal(got[key].FinalPrice))
	assert.Nil(t, got["p2|default"].Variations)

	delete(c, "p2|default")
	require.NoError(t, s.SaveCart(ctx, c))
	got, err = s.LoadCart(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	require.NoError(t, s.ClearCart(ctx))
	got, err = s.LoadCart(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCartStore_SkipsMalformedRows(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	require.NoError(t, s.db.Create(&storage.CartLineRecord{Key: "p1|default", BaseProductID: "p1", Quantity: 0}).Error)
	require.NoError(t, s.db.Create(&storage.CartLineRecord{Key: "p2|default", BaseProductID: "p2", Quantity: 3}).Error)

	got, err := s.LoadCart(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Contains(t, got, "p2|default")
}

func TestCartStore_Token(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	tok, err := s.LoadToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, s.SaveToken(ctx, "jwt-abc"))
	tok, err = s.LoadToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "jwt-abc", tok)

	require.NoError(t, s.SaveToken(ctx, ""))
	tok, _ = s.LoadToken(ctx)
	assert.Empty(t, tok)
}
