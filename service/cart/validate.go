package cart

import (
	"storefront.GO/core/apperror"
	cartEntity "storefront.GO/model/entity/cart"
	catalogEntity "storefront.GO/model/entity/catalog"
	"storefront.GO/service/pricing"
)

// ResolveSelection checks shopper choices against the live product and snapshots the
// chosen options. Every group and option must exist and every option must be in stock.
// All groups the shopper chose are recorded; unchosen groups are left out.
func ResolveSelection(p catalogEntity.Product, choices cartEntity.Choices) (cartEntity.Selection, error) {
	const op = "cart.ResolveSelection"
	if len(choices) == 0 {
		return nil, nil
	}
	sel := make(cartEntity.Selection, len(choices))
	for groupName, optionName := range choices {
		group, ok := p.Group(groupName)
		if !ok {
			return nil, apperror.Newf(apperror.KindValidation, op, "product %s has no variation %q", p.ID, groupName)
		}
		option, ok := group.Option(optionName)
		if !ok {
			return nil, apperror.Newf(apperror.KindValidation, op, "variation %q has no option %q", groupName, optionName)
		}
		if option.AvailableQuantity <= 0 {
			return nil, apperror.Newf(apperror.KindValidation, op, "%s %s is out of stock", groupName, optionName)
		}
		sel[groupName] = cartEntity.SelectedOption{Name: option.Name, PriceAdjustment: option.PriceAdjustment}
	}
	return sel, nil
}

// checkStock rejects quantities larger than the stock of any selected option.
// Options that disappeared from the product are reported as stale.
func checkStock(p catalogEntity.Product, sel cartEntity.Selection, quantity int) error {
	const op = "cart.checkStock"
	for _, groupName := range sel.Groups() {
		chosen := sel[groupName]
		group, ok := p.Group(groupName)
		if !ok {
			return apperror.Newf(apperror.KindStale, op, "variation %q was removed from %s", groupName, p.ID)
		}
		option, ok := group.Option(chosen.Name)
		if !ok {
			return apperror.Newf(apperror.KindStale, op, "option %q was removed from %q", chosen.Name, groupName)
		}
		if quantity > option.AvailableQuantity {
			return apperror.Newf(apperror.KindValidation, op, "only %d left of %s %s", option.AvailableQuantity, groupName, chosen.Name)
		}
	}
	return nil
}

// PriceLine validates a request and builds the priced line for it.
// clamped reports that the unit price was floored at zero.
func PriceLine(p catalogEntity.Product, quantity int, choices cartEntity.Choices) (line cartEntity.Line, clamped bool, err error) {
	const op = "cart.PriceLine"
	if quantity <= 0 {
		return line, false, apperror.Newf(apperror.KindValidation, op, "quantity %d must be at least 1", quantity)
	}
	sel, err := ResolveSelection(p, choices)
	if err != nil {
		return line, false, err
	}
	if err := checkStock(p, sel, quantity); err != nil {
		return line, false, err
	}
	key, err := cartEntity.MakeKey(p.ID, sel)
	if err != nil {
		return line, false, err
	}
	price, clamped := pricing.LineFinalPrice(p, sel)
	return cartEntity.Line{
		Key:                 key,
		BaseProductID:       p.ID,
		Quantity:            quantity,
		Variations:          sel,
		VariationAdjustment: pricing.VariationAdjustment(sel),
		FinalPrice:          price,
	}, clamped, nil
}
