package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storefront.GO/api"
	_ "storefront.GO/api/cart"
	_ "storefront.GO/api/checkout"
	_ "storefront.GO/api/graphql"
	_ "storefront.GO/api/session"
	"storefront.GO/cron"
	"storefront.GO/service/storefront"
)

var serveNoCron bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the local storefront API",
	RunE: func(c *cobra.Command, args []string) error {
		return withApp(c, func(ctx context.Context, app *storefront.App) error {
			// quote, place and the refresh job retry the load
			if err := app.Checkout.Load(ctx); err != nil {
				app.Logger.Warn("checkout data not loaded at startup", zap.Error(err))
			}

			if !serveNoCron {
				app.RegisterJobs()
				sched, err := cron.StartCron(app.Logger.Named("cron"))
				if err != nil {
					return err
				}
				defer sched.Stop()
			}

			e := api.NewServer(app.Config, &api.Deps{
				Cart:     app.Cart,
				Checkout: app.Checkout,
				Products: app.Products,
				Logger:   app.Logger.Named("api"),
			})

			fonts := []string{"banner", "big", "slant", "standard", "small", "doom", "larry3d", "puffy"}
			figure.NewFigure("Storefront", fonts[rand.Intn(len(fonts))], true).Print()
			fmt.Println()
			app.Logger.Info("storefront API listening",
				zap.String("port", app.Config.Port),
				zap.String("backend", app.Config.APIBaseURL))

			errc := make(chan error, 1)
			go func() { errc <- e.Start(":" + app.Config.Port) }()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			select {
			case err := <-errc:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-sig:
			}

			app.Checkout.Leave()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return e.Shutdown(shutdownCtx)
		})
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveNoCron, "no-cron", false, "Do not schedule the catalog refresh job")
	rootCmd.AddCommand(serveCmd)
}
