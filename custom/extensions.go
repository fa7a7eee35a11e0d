// Package custom holds project-specific extensions. Importing it registers them
// with the cmd and api registries.
package custom

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"storefront.GO/api"
	"storefront.GO/cmd"
	"storefront.GO/config"
	"storefront.GO/service/backend"
	"storefront.GO/service/pricing"
)

func init() {
	// CLI command
	cmd.Register(&cobra.Command{
		Use:   "regions:list",
		Short: "List delivery regions and the fee per kilo",
		RunE: func(c *cobra.Command, args []string) error {
			cfg := config.LoadAppConfig()
			client := backend.New(cfg.APIBaseURL, backend.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}))
			return printRegions(c.Context(), client)
		},
	})

	// HTTP route
	api.RegisterRoute(func(e *echo.Echo, deps *api.Deps) {
		e.GET("/regions", func(c echo.Context) error {
			if deps == nil || deps.Checkout == nil || !deps.Checkout.Ready() {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"success": false, "error": "regions are still loading"})
			}
			return c.JSON(http.StatusOK, echo.Map{
				"success":    true,
				"regions":    deps.Checkout.Regions(),
				"feePerKilo": deps.Checkout.FeePerKilo(),
			})
		})
	})
}

func printRegions(ctx context.Context, client *backend.Client) error {
	if ctx == nil {
		ctx = context.Background()
	}
	regions, err := client.Regions(ctx)
	if err != nil {
		return err
	}
	fee, err := client.FeePerKilo(ctx)
	if err != nil {
		return err
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].Name < regions[j].Name })
	for _, r := range regions {
		fmt.Printf("  %-20s %10s\n", r.Name, r.Fee.StringFixed(pricing.MinorUnits))
	}
	fmt.Printf("Fee per kilo: %s\n", fee.StringFixed(pricing.MinorUnits))
	return nil
}
