package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	cartEntity "storefront.GO/model/entity/cart"
	"storefront.GO/service/pricing"
	"storefront.GO/service/storefront"
)

// parseChoices turns repeated Group=Option flags into shopper choices.
func parseChoices(pairs []string) (cartEntity.Choices, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(cartEntity.Choices, len(pairs))
	for _, p := range pairs {
		group, option, ok := strings.Cut(p, "=")
		group, option = strings.TrimSpace(group), strings.TrimSpace(option)
		if !ok || group == "" || option == "" {
			return nil, fmt.Errorf("invalid variation %q, want Group=Option", p)
		}
		out[group] = option
	}
	return out, nil
}

func printCart(app *storefront.App) {
	lines, rev := app.Cart.Snapshot()
	cat := app.Products.Catalog()
	totals := pricing.CartTotals(lines, cat)

	if len(lines) == 0 {
		fmt.Println("Cart is empty.")
		return
	}
	for _, l := range lines.Lines() {
		name := l.BaseProductID
		if p, ok := cat.Lookup(l.BaseProductID); ok {
			name = p.Name
		}
		fmt.Printf("  %-40s %-12s x%-3d %10s\n", l.Key, name, l.Quantity, l.FinalPrice.StringFixed(pricing.MinorUnits))
	}
	for _, k := range totals.Stale {
		fmt.Printf("  [unavailable] %s\n", k)
	}
	fmt.Printf(`
=== Cart ===
Items:     %d
Amount:    %s
Weight:    %s kg
Revision:  %d
Signed in: %t
============
`, lines.TotalQuantity(), totals.Amount.StringFixed(pricing.MinorUnits),
		pricing.CartWeight(lines, cat).String(), rev, app.Cart.Authenticated())
}

// loadCatalog makes product names and live prices available to the cart commands.
func loadCatalog(ctx context.Context, app *storefront.App) {
	if _, err := app.Products.Load(ctx); err != nil {
		fmt.Printf("  [warn] catalog unavailable: %v\n", err)
	}
}

var cartShowCmd = &cobra.Command{
	Use:   "cart:show",
	Short: "Show the cart with live totals",
	RunE: func(c *cobra.Command, args []string) error {
		return withApp(c, func(ctx context.Context, app *storefront.App) error {
			loadCatalog(ctx, app)
			printCart(app)
			return nil
		})
	},
}

var (
	addQuantity   int
	addVariations []string
)

var cartAddCmd = &cobra.Command{
	Use:   "cart:add <product-id>",
	Short: "Add a product to the cart, replacing the line with the same variations",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		choices, err := parseChoices(addVariations)
		if err != nil {
			return err
		}
		return withApp(c, func(ctx context.Context, app *storefront.App) error {
			loadCatalog(ctx, app)
			line, err := app.Cart.AddToCart(ctx, args[0], addQuantity, choices)
			if err != nil {
				return err
			}
			fmt.Printf("Added %s x%d at %s\n", line.Key, line.Quantity, line.FinalPrice.StringFixed(pricing.MinorUnits))
			return nil
		})
	},
}

var cartUpdateCmd = &cobra.Command{
	Use:   "cart:update <key> <quantity>",
	Short: "Set the quantity of a cart line; 0 removes it",
	Args:  cobra.ExactArgs(2),
	RunE: func(c *cobra.Command, args []string) error {
		var qty int
		if _, err := fmt.Sscan(args[1], &qty); err != nil {
			return fmt.Errorf("invalid quantity %q", args[1])
		}
		return withApp(c, func(ctx context.Context, app *storefront.App) error {
			loadCatalog(ctx, app)
			if err := app.Cart.UpdateQuantity(ctx, args[0], qty); err != nil {
				return err
			}
			if _, ok := app.Cart.Line(args[0]); !ok {
				fmt.Printf("Removed %s\n", args[0])
				return nil
			}
			fmt.Printf("Updated %s to %d\n", args[0], qty)
			return nil
		})
	},
}

var cartRemoveCmd = &cobra.Command{
	Use:   "cart:remove <key>",
	Short: "Remove a cart line",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		return withApp(c, func(ctx context.Context, app *storefront.App) error {
			if err := app.Cart.RemoveFromCart(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Removed %s\n", args[0])
			return nil
		})
	},
}

var cartClearCmd = &cobra.Command{
	Use:   "cart:clear",
	Short: "Clear the server and local cart (requires login)",
	RunE: func(c *cobra.Command, args []string) error {
		return withApp(c, func(ctx context.Context, app *storefront.App) error {
			if err := app.Cart.ClearCart(ctx); err != nil {
				return err
			}
			fmt.Println("Cart cleared.")
			return nil
		})
	},
}

var loginCmd = &cobra.Command{
	Use:   "login <token>",
	Short: "Store a backend token and adopt its server cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		return withApp(c, func(ctx context.Context, app *storefront.App) error {
			loadCatalog(ctx, app)
			if err := app.Cart.Login(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Signed in (%s guest cart).\n", app.Cart.Policy())
			printCart(app)
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the token and the local cart",
	RunE: func(c *cobra.Command, args []string) error {
		return withApp(c, func(ctx context.Context, app *storefront.App) error {
			if err := app.Cart.Logout(ctx); err != nil {
				return err
			}
			fmt.Println("Signed out.")
			return nil
		})
	},
}

func init() {
	cartAddCmd.Flags().IntVarP(&addQuantity, "quantity", "q", 1, "Quantity to set on the line")
	cartAddCmd.Flags().StringArrayVarP(&addVariations, "variation", "v", nil, "Variation choice as Group=Option (repeatable)")

	rootCmd.AddCommand(cartShowCmd, cartAddCmd, cartUpdateCmd, cartRemoveCmd, cartClearCmd, loginCmd, logoutCmd)
}
