package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLine_Validate(t *testing.T) {
	good := Line{Key: "p1|default", BaseProductID: "p1", Quantity: 1, FinalPrice: decimal.NewFromInt(5)}
	assert.NoError(t, good.Validate())

	testCases := []struct {
		name string
		edit func(l *Line)
	}{
		{"missing key", func(l *Line) { l.Key = "" }},
		{"missing product", func(l *Line) { l.BaseProductID = "" }},
		{"key of other product", func(l *Line) { l.BaseProductID = "p2" }},
		{"zero quantity", func(l *Line) { l.Quantity = 0 }},
		{"negative price", func(l *Line) { l.FinalPrice = decimal.NewFromInt(-1) }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l := good
			tc.edit(&l)
			assert.Error(t, l.Validate())
		})
	}
}

func TestCart_CloneIsDeep(t *testing.T) {
	c := Cart{"p1|x": {Key: "p1|x", BaseProductID: "p1", Quantity: 2, Variations: Selection{"Color": {Name: "Red"}}}}
	cp := c.Clone()
	cp["p1|x"].Variations["Color"] = SelectedOption{Name: "Blue"}
	delete(cp, "p1|x")

	assert.Len(t, c, 1)
	assert.Equal(t, "Red", c["p1|x"].Variations["Color"].Name)
}

func TestCart_LinesSortedAndQuantity(t *testing.T) {
	c := Cart{
		"b|default": {Key: "b|default", BaseProductID: "b", Quantity: 3},
		"a|default": {Key: "a|default", BaseProductID: "a", Quantity: 2},
	}
	lines := c.Lines()
	assert.Equal(t, "a|default", lines[0].Key)
	assert.Equal(t, "b|default", lines[1].Key)
	assert.Equal(t, 5, c.TotalQuantity())
}

func TestVoucherState_OneKindAtATime(t *testing.T) {
	s := VoucherState{}.WithPercent("TEN", decimal.NewFromInt(10))
	assert.False(t, s.Fixed.Active())

	s = s.WithFixed(FixedVoucher{Code: "FLAT", Amount: decimal.NewFromInt(50)})
	assert.True(t, s.DiscountPercent.IsZero())
	assert.True(t, s.Fixed.Active())
	assert.Equal(t, "FLAT", s.Code)

	s = s.WithPercent("TEN", decimal.NewFromInt(10))
	assert.False(t, s.Fixed.Active())
}
