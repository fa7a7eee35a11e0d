package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"

	"storefront.GO/core/apperror"
	"storefront.GO/model/entity/order"
)

var orderPaths = map[order.PaymentMethod]string{
	order.PaymentCOD:     "/api/order/place",
	order.PaymentStripe:  "/api/order/stripe",
	order.PaymentGCash:   "/api/payment/gcash",
	order.PaymentReceipt: "/api/order/receipt",
}

type orderDTO struct {
	Items          []orderItemDTO `json:"items"`
	Amount         float64        `json:"amount"`
	DiscountAmount float64        `json:"discountAmount"`
	VoucherCode    string         `json:"voucherCode"`
	VoucherAmount  float64        `json:"voucherAmount"`
	ShippingFee    float64        `json:"shippingFee"`
	Region         string         `json:"region"`
	PaymentMethod  string         `json:"paymentMethod"`
}

type orderItemDTO struct {
	lineDTO
	Name string `json:"name,omitempty"`
}

func toOrderDTO(b order.Breakdown, method order.PaymentMethod) orderDTO {
	items := make([]orderItemDTO, len(b.Items))
	for i, it := range b.Items {
		items[i] = orderItemDTO{lineDTO: toLineDTO(it.Line), Name: it.Name}
	}
	return orderDTO{
		Items:          items,
		Amount:         b.Total.InexactFloat64(),
		DiscountAmount: b.DiscountAmount.InexactFloat64(),
		VoucherCode:    b.VoucherCode,
		VoucherAmount:  b.VoucherAmount.InexactFloat64(),
		ShippingFee:    b.ShippingFee.InexactFloat64(),
		Region:         b.Region,
		PaymentMethod:  string(method),
	}
}

type orderResponse struct {
	OrderID     string `json:"orderId"`
	Message     string `json:"message"`
	SessionURL  string `json:"session_url"`
	CheckoutURL string `json:"checkout_url"`
}

// PlaceOrder submits the breakdown to the endpoint of the chosen payment method.
// receipt is required for order.PaymentReceipt and ignored otherwise.
func (c *Client) PlaceOrder(ctx context.Context, token string, method order.PaymentMethod, b order.Breakdown, receipt *order.Receipt) (order.Result, error) {
	const op = "backend.PlaceOrder"
	path, ok := orderPaths[method]
	if !ok {
		return order.Result{}, apperror.Newf(apperror.KindValidation, op, "unsupported payment method %q", method)
	}
	payload := toOrderDTO(b, method)

	var req *http.Request
	var err error
	if method == order.PaymentReceipt {
		if receipt == nil || receipt.Content == nil {
			return order.Result{}, apperror.Validation(op, "payment receipt is required")
		}
		req, err = c.receiptRequest(ctx, path, payload, receipt)
	} else {
		var data []byte
		data, err = json.Marshal(payload)
		if err == nil {
			req, err = http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
			if req != nil {
				req.Header.Set("Content-Type", "application/json")
			}
		}
	}
	if err != nil {
		return order.Result{}, apperror.Wrap(apperror.KindNetwork, op, err)
	}
	req.Header.Set("Idempotency-Key", uuid.NewString())

	var resp orderResponse
	if err := c.send(req, token, &resp); err != nil {
		return order.Result{}, err
	}
	res := order.Result{OrderID: resp.OrderID, Message: resp.Message, RedirectURL: resp.SessionURL}
	if res.RedirectURL == "" {
		res.RedirectURL = resp.CheckoutURL
	}
	return res, nil
}

func (c *Client) receiptRequest(ctx context.Context, path string, payload orderDTO, receipt *order.Receipt) (*http.Request, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	orderJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	if err := w.WriteField("order", string(orderJSON)); err != nil {
		return nil, err
	}
	name := receipt.Filename
	if name == "" {
		name = "receipt"
	}
	part, err := w.CreateFormFile("receipt", name)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, receipt.Content); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req, nil
}
