package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"storefront.GO/config"
	"storefront.GO/core/logging"
	"storefront.GO/service/storefront"
)

var rootCmd = &cobra.Command{
	Use:           "storefront",
	Short:         "Storefront cart and checkout engine",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute applies registered commands and runs the root command.
func Execute() {
	Apply()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openApp builds the application from the environment and restores the stored session.
func openApp(ctx context.Context) (*storefront.App, error) {
	cfg := config.LoadAppConfig()
	logger, err := logging.New(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	app, err := storefront.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := app.Open(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

// withApp runs fn against an opened application and closes it afterwards.
func withApp(c *cobra.Command, fn func(ctx context.Context, app *storefront.App) error) error {
	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = app.Logger.Sync()
		_ = app.Close()
	}()
	return fn(ctx, app)
}
