package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"storefront.GO/model/entity/order"
	"storefront.GO/service/checkout"
	"storefront.GO/service/pricing"
	"storefront.GO/service/storefront"
)

var (
	quoteRegion     string
	quoteVoucher    string
	buyNowProduct   string
	buyNowQuantity  int
	buyNowVariation []string
	placeMethod     string
	placeReceipt    string
)

// prepareCheckout loads checkout data and applies the region, voucher and buy-now flags.
func prepareCheckout(ctx context.Context, app *storefront.App) error {
	if err := app.Checkout.Load(ctx); err != nil {
		return err
	}
	if quoteRegion != "" {
		if err := app.Checkout.SetRegion(quoteRegion); err != nil {
			return err
		}
	}
	if buyNowProduct != "" {
		choices, err := parseChoices(buyNowVariation)
		if err != nil {
			return err
		}
		if _, err := app.Checkout.BuyNow(ctx, buyNowProduct, buyNowQuantity, choices); err != nil {
			return err
		}
	}
	if quoteVoucher != "" {
		if _, err := app.Checkout.ApplyVoucher(ctx, quoteVoucher); err != nil {
			return err
		}
	}
	return nil
}

func printQuote(q checkout.Quote) {
	if q.BuyNow {
		fmt.Println("Buy now:")
	}
	for _, it := range q.Items {
		fmt.Printf("  %-40s %-12s x%-3d %10s\n", it.Key, it.Name, it.Quantity, it.FinalPrice.StringFixed(pricing.MinorUnits))
	}
	for _, k := range q.Unavailable {
		fmt.Printf("  [unavailable] %s\n", k)
	}
	for _, n := range q.Notices {
		fmt.Printf("  [notice] %s\n", n)
	}
	region := q.Region
	if region == "" {
		region = "(none)"
	}
	fmt.Printf(`
=== Quote ===
Amount:    %s
Shipping:  %s (%s, %s kg)
Discount:  -%s
Voucher:   -%s %s
Total:     %s
=============
`, q.Amount.StringFixed(pricing.MinorUnits),
		q.ShippingFee.StringFixed(pricing.MinorUnits), region, q.Weight.String(),
		q.DiscountAmount.StringFixed(pricing.MinorUnits),
		q.VoucherAmount.StringFixed(pricing.MinorUnits), q.VoucherCode,
		q.Total.StringFixed(pricing.MinorUnits))
}

var checkoutQuoteCmd = &cobra.Command{
	Use:   "checkout:quote",
	Short: "Price the cart (or a buy-now item) with region and voucher",
	RunE: func(c *cobra.Command, args []string) error {
		return withApp(c, func(ctx context.Context, app *storefront.App) error {
			if err := prepareCheckout(ctx, app); err != nil {
				return err
			}
			q, err := app.Checkout.Quote()
			if err != nil {
				return err
			}
			printQuote(q)
			return nil
		})
	},
}

var checkoutPlaceCmd = &cobra.Command{
	Use:   "checkout:place",
	Short: "Place the order for the cart or a buy-now item",
	RunE: func(c *cobra.Command, args []string) error {
		method := order.PaymentMethod(strings.ToLower(placeMethod))
		var receipt *order.Receipt
		if placeReceipt != "" {
			f, err := os.Open(placeReceipt)
			if err != nil {
				return fmt.Errorf("failed to open receipt: %w", err)
			}
			defer f.Close()
			receipt = &order.Receipt{Filename: filepath.Base(placeReceipt), Content: f}
		}
		return withApp(c, func(ctx context.Context, app *storefront.App) error {
			if err := prepareCheckout(ctx, app); err != nil {
				return err
			}
			res, q, err := app.Checkout.PlaceOrder(ctx, method, receipt)
			if err != nil {
				return err
			}
			printQuote(q)
			fmt.Printf("Order %s placed: %s\n", res.OrderID, res.Message)
			if res.RedirectURL != "" {
				fmt.Printf("Complete payment at %s\n", res.RedirectURL)
			}
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{checkoutQuoteCmd, checkoutPlaceCmd} {
		c.Flags().StringVarP(&quoteRegion, "region", "r", "", "Delivery region")
		c.Flags().StringVar(&quoteVoucher, "voucher", "", "Voucher code to apply")
		c.Flags().StringVar(&buyNowProduct, "buy-now", "", "Check out this product id alone instead of the cart")
		c.Flags().IntVarP(&buyNowQuantity, "quantity", "q", 1, "Buy-now quantity")
		c.Flags().StringArrayVarP(&buyNowVariation, "variation", "v", nil, "Buy-now variation as Group=Option (repeatable)")
	}
	checkoutPlaceCmd.Flags().StringVarP(&placeMethod, "method", "m", string(order.PaymentCOD), "Payment method: cod, stripe, gcash or receipt")
	checkoutPlaceCmd.Flags().StringVar(&placeReceipt, "receipt", "", "Path of the payment receipt image (receipt method)")

	rootCmd.AddCommand(checkoutQuoteCmd, checkoutPlaceCmd)
}
