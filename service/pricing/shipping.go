package pricing

import (
	"github.com/shopspring/decimal"

	"storefront.GO/model/entity/catalog"
)

// ShippingFee is the region's base fee plus weight times the per-kilogram rate.
// Unknown regions contribute no base fee.
func ShippingFee(region string, table catalog.RegionTable, weightKg, feePerKilo decimal.Decimal) decimal.Decimal {
	base := table.Fee(region)
	if weightKg.IsNegative() {
		weightKg = decimal.Zero
	}
	return Round(base.Add(weightKg.Mul(feePerKilo)))
}
