package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"storefront.GO/cron"
	"storefront.GO/service/storefront"
)

var jobName string

var cronStartCmd = &cobra.Command{
	Use:   "cron:start",
	Short: "Start the cron scheduler or run a single job by name",
	RunE: func(c *cobra.Command, args []string) error {
		return withApp(c, func(ctx context.Context, app *storefront.App) error {
			app.RegisterJobs()
			if jobName != "" {
				name := strings.ToLower(jobName)
				fmt.Printf("Running cron job: %s\n", name)
				return cron.RunJob(ctx, name)
			}

			fmt.Println("Starting cron scheduler...")
			sched, err := cron.StartCron(app.Logger.Named("cron"))
			if err != nil {
				return err
			}
			defer sched.Stop()
			fmt.Println("Cron scheduler started. Press Ctrl+C to exit.")

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig
			return nil
		})
	},
}

func init() {
	cronStartCmd.Flags().StringVarP(&jobName, "job", "j", "", "Run a single cron job by name and exit")
	rootCmd.AddCommand(cronStartCmd)
}
