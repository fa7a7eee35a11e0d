package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"storefront.GO/service/pricing"
	"storefront.GO/service/storefront"
)

var catalogListCmd = &cobra.Command{
	Use:   "catalog:list",
	Short: "List products with variations and stock",
	RunE: func(c *cobra.Command, args []string) error {
		return withApp(c, func(ctx context.Context, app *storefront.App) error {
			cat, err := app.Products.Refresh(ctx)
			if err != nil {
				return err
			}
			for _, p := range cat.Products() {
				fmt.Printf("%-10s %-24s %10s", p.ID, p.Name, p.Price.StringFixed(pricing.MinorUnits))
				if p.DiscountPercent.IsPositive() {
					fmt.Printf("  -%s%%", p.DiscountPercent.String())
				}
				fmt.Printf("  %s kg\n", p.Weight.String())
				for _, g := range p.Variations {
					for _, o := range g.Options {
						fmt.Printf("    %s=%-16s %8s  stock %d\n", g.Name, o.Name, o.PriceAdjustment.StringFixed(pricing.MinorUnits), o.AvailableQuantity)
					}
				}
			}
			fmt.Printf("\n%d products (revision %d)\n", cat.Len(), cat.Revision())
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(catalogListCmd)
}
