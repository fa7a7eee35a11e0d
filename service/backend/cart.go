package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"

	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront.GO/core/apperror"
	"storefront.GO/model/entity/cart"
)

// lineDTO is a cart line as the backend stores it. Money goes out as JSON numbers.
type lineDTO struct {
	ItemID              string                       `json:"itemId"`
	BaseProductID       string                       `json:"baseProductId"`
	Quantity            int                          `json:"quantity"`
	Variations          map[string]selectedOptionDTO `json:"variations"`
	VariationAdjustment float64                      `json:"variationAdjustment"`
	FinalPrice          float64                      `json:"finalPrice"`
}

type selectedOptionDTO struct {
	Name            string  `json:"name"`
	PriceAdjustment float64 `json:"priceAdjustment"`
}

func toLineDTO(l cart.Line) lineDTO {
	vars := make(map[string]selectedOptionDTO, len(l.Variations))
	for g, o := range l.Variations {
		vars[g] = selectedOptionDTO{Name: o.Name, PriceAdjustment: o.PriceAdjustment.InexactFloat64()}
	}
	return lineDTO{
		ItemID:              l.Key,
		BaseProductID:       l.BaseProductID,
		Quantity:            l.Quantity,
		Variations:          vars,
		VariationAdjustment: l.VariationAdjustment.InexactFloat64(),
		FinalPrice:          l.FinalPrice.InexactFloat64(),
	}
}

// serverLine is the loose shape of one cartData entry.
type serverLine struct {
	BaseProductID       string          `mapstructure:"baseProductId"`
	Quantity            int             `mapstructure:"quantity"`
	Variations          cart.Selection  `mapstructure:"variations"`
	VariationAdjustment decimal.Decimal `mapstructure:"variationAdjustment"`
	FinalPrice          decimal.Decimal `mapstructure:"finalPrice"`
}

var (
	decimalType        = reflect.TypeOf(decimal.Decimal{})
	selectedOptionType = reflect.TypeOf(cart.SelectedOption{})
)

// decimalHook turns JSON numbers and numeric strings into decimal.Decimal.
func decimalHook() mapstructure.DecodeHookFunc {
	return func(f, t reflect.Type, data interface{}) (interface{}, error) {
		if t != decimalType {
			return data, nil
		}
		switch v := data.(type) {
		case nil:
			return decimal.Zero, nil
		case json.Number:
			return decimal.NewFromString(v.String())
		case string:
			if v == "" {
				return decimal.Zero, nil
			}
			return decimal.NewFromString(v)
		case float64:
			return decimal.NewFromFloat(v), nil
		case int:
			return decimal.NewFromInt(int64(v)), nil
		case int64:
			return decimal.NewFromInt(v), nil
		}
		return data, nil
	}
}

// optionNameHook accepts the legacy {"Color": "Red"} variation shape.
func optionNameHook() mapstructure.DecodeHookFunc {
	return func(f, t reflect.Type, data interface{}) (interface{}, error) {
		if t != selectedOptionType {
			return data, nil
		}
		if name, ok := data.(string); ok {
			return cart.SelectedOption{Name: name, PriceAdjustment: decimal.Zero}, nil
		}
		return data, nil
	}
}

var serverLineDecodeHook = mapstructure.ComposeDecodeHookFunc(
	decimalHook(),
	optionNameHook(),
)

// NormalizeCartData converts a raw cartData object into validated cart lines.
// Entries with a non-positive quantity are dropped; malformed entries are rejected
// and returned as the second value so callers can report them.
func NormalizeCartData(raw map[string]interface{}) (cart.Cart, []string) {
	out := make(cart.Cart, len(raw))
	var rejected []string
	for key, value := range raw {
		var sl serverLine
		switch v := value.(type) {
		case json.Number:
			n, err := v.Int64()
			if err != nil {
				rejected = append(rejected, key)
				continue
			}
			sl.Quantity = int(n)
		case float64:
			sl.Quantity = int(v)
		case map[string]interface{}:
			dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
				WeaklyTypedInput: true,
				DecodeHook:       serverLineDecodeHook,
				Result:           &sl,
				TagName:          "mapstructure",
			})
			if err != nil {
				rejected = append(rejected, key)
				continue
			}
			if err := dec.Decode(v); err != nil {
				rejected = append(rejected, key)
				continue
			}
		default:
			rejected = append(rejected, key)
			continue
		}
		if sl.Quantity <= 0 {
			continue
		}
		if sl.BaseProductID == "" {
			sl.BaseProductID = cart.ParseBaseProductID(key)
		}
		line := cart.Line{
			Key:                 key,
			BaseProductID:       sl.BaseProductID,
			Quantity:            sl.Quantity,
			Variations:          sl.Variations,
			VariationAdjustment: sl.VariationAdjustment,
			FinalPrice:          sl.FinalPrice,
		}
		if err := line.Validate(); err != nil {
			rejected = append(rejected, key)
			continue
		}
		out[key] = line
	}
	return out, rejected
}

// FetchCart calls POST /api/cart/get and normalizes the server cart.
func (c *Client) FetchCart(ctx context.Context, token string) (cart.Cart, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/api/cart/get", token, struct{}{}, &raw); err != nil {
		return nil, err
	}
	var resp struct {
		CartData map[string]interface{} `json:"cartData"`
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&resp); err != nil {
		return nil, apperror.Wrap(apperror.KindNetwork, "backend.FetchCart", fmt.Errorf("malformed cart payload: %w", err))
	}
	lines, rejected := NormalizeCartData(resp.CartData)
	if len(rejected) > 0 {
		c.logger.Warn("dropped malformed server cart entries", zap.Strings("keys", rejected))
	}
	return lines, nil
}

// PushLine calls POST /api/cart/add.
func (c *Client) PushLine(ctx context.Context, token string, line cart.Line) error {
	return c.do(ctx, http.MethodPost, "/api/cart/add", token, toLineDTO(line), nil)
}

// UpdateQuantity calls PUT /api/cart/update.
func (c *Client) UpdateQuantity(ctx context.Context, token, key string, quantity int) error {
	body := map[string]interface{}{"itemId": key, "quantity": quantity}
	return c.do(ctx, http.MethodPut, "/api/cart/update", token, body, nil)
}

// RemoveLine calls POST /api/cart/remove.
func (c *Client) RemoveLine(ctx context.Context, token, key string) error {
	return c.do(ctx, http.MethodPost, "/api/cart/remove", token, map[string]string{"itemId": key}, nil)
}

// ClearCart calls DELETE /api/cart/clear.
func (c *Client) ClearCart(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodDelete, "/api/cart/clear", token, nil, nil)
}
