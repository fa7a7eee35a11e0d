package cart

import (
	"encoding/json"
	"sort"
	"strings"

	"storefront.GO/core/apperror"
)

const (
	// KeySeparator splits the base product id from the variation part of a cart key.
	// Product ids must never contain it.
	KeySeparator = "|"
	// DefaultVariant is the variation part of a key for a line with no selections.
	DefaultVariant = "default"
)

// MakeKey derives the cart key for a product and a variation selection.
// The variation part is a JSON array of [group, option] pairs sorted by group, so the
// same logical selection always yields the same key and distinct selections never collide.
func MakeKey(baseProductID string, sel Selection) (string, error) {
	if baseProductID == "" {
		return "", apperror.Validation("cart.MakeKey", "product id is required")
	}
	if strings.Contains(baseProductID, KeySeparator) {
		return "", apperror.Validation("cart.MakeKey", "product id must not contain "+KeySeparator)
	}
	if len(sel) == 0 {
		return baseProductID + KeySeparator + DefaultVariant, nil
	}
	groups := sel.Groups()
	pairs := make([][2]string, 0, len(groups))
	for _, g := range groups {
		pairs = append(pairs, [2]string{g, sel[g].Name})
	}
	// Marshalling [][2]string cannot fail.
	data, _ := json.Marshal(pairs)
	return baseProductID + KeySeparator + string(data), nil
}

// ParseBaseProductID recovers the product id from a cart key.
// A key without separator is treated as a bare product id.
func ParseBaseProductID(key string) string {
	if i := strings.Index(key, KeySeparator); i >= 0 {
		return key[:i]
	}
	return key
}

// Groups returns the selected group names in canonical order.
func (s Selection) Groups() []string {
	groups := make([]string, 0, len(s))
	for g := range s {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}
