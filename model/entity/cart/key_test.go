package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront.GO/core/apperror"
)

func opt(name string) SelectedOption {
	return SelectedOption{Name: name, PriceAdjustment: decimal.Zero}
}

func TestMakeKey_Default(t *testing.T) {
	key, err := MakeKey("64b7f0c2a1", nil)
	require.NoError(t, err)
	assert.Equal(t, "64b7f0c2a1|default", key)

	empty, err := MakeKey("64b7f0c2a1", Selection{})
	require.NoError(t, err)
	assert.Equal(t, key, empty)
}

func TestMakeKey_RoundTrip(t *testing.T) {
	ids := []string{"p1", "64b7f0c2a1e4", "5f2c8e1e-9d7b-4c1e-8f5a-0c1d2e3f4a5b", "a b", "ключ"}
	selections := []Selection{
		nil,
		{"Color": opt("Red")},
		{"Color": opt("Red"), "Size": opt("XL")},
		{"Weird|Group": opt("x|y"), "Quote\"": opt("]")},
	}
	for _, id := range ids {
		for _, sel := range selections {
			key, err := MakeKey(id, sel)
			require.NoError(t, err)
			assert.Equal(t, id, ParseBaseProductID(key))
		}
	}
}

func TestMakeKey_OrderIndependent(t *testing.T) {
	a := Selection{}
	a["Color"] = opt("Red")
	a["Size"] = opt("M")
	b := Selection{}
	b["Size"] = opt("M")
	b["Color"] = opt("Red")

	ka, err := MakeKey("p1", a)
	require.NoError(t, err)
	kb, err := MakeKey("p1", b)
	require.NoError(t, err)
	assert.Equal(t, ka, kb)
}

func TestMakeKey_Injective(t *testing.T) {
	selections := []Selection{
		nil,
		{"Color": opt("Red")},
		{"Color": opt("Blue")},
		{"Size": opt("Red")},
		{"Color": opt("Red"), "Size": opt("M")},
		{"Color": opt("Red,Size")},
		{"default": opt("default")},
	}
	seen := map[string]int{}
	for i, sel := range selections {
		key, err := MakeKey("p1", sel)
		require.NoError(t, err)
		if j, dup := seen[key]; dup {
			t.Fatalf("selections %d and %d share key %q", j, i, key)
		}
		seen[key] = i
	}
}

func TestMakeKey_IgnoresPriceSnapshot(t *testing.T) {
	k1, _ := MakeKey("p1", Selection{"Color": {Name: "Red", PriceAdjustment: decimal.NewFromInt(1)}})
	k2, _ := MakeKey("p1", Selection{"Color": {Name: "Red", PriceAdjustment: decimal.NewFromInt(9)}})
	assert.Equal(t, k1, k2)
}

func TestMakeKey_RejectsBadIDs(t *testing.T) {
	for _, id := range []string{"", "p|1"} {
		_, err := MakeKey(id, nil)
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.KindValidation))
	}
}

func TestParseBaseProductID_BareID(t *testing.T) {
	assert.Equal(t, "p1", ParseBaseProductID("p1"))
}
