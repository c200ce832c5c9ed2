package commands

import (
	"log/slog"

	"nutribruin-backend/lib/serviceutil"
	"nutribruin-backend/services/dining/scraper"

	"github.com/spf13/cobra"
)

var serveImmediate *bool

func init() {
	serveImmediate = serveCmd.Flags().Bool("now", false, "Run the daily update immediately before starting the schedule.")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve [--now]",
	Short: "Runs the scrape scheduler until interrupted.",
	Run: func(cmd *cobra.Command, args []string) {
		svc, cleanup, err := openService()
		if err != nil {
			serviceutil.Fatal("failed to open service", err)
		}
		defer cleanup()

		ctx := serviceutil.SignalContext()
		scheduler := scraper.NewScheduler(svc, scraper.NewJobTracker())

		if *serveImmediate {
			result := scheduler.RunImmediately(ctx)
			slog.Info("initial update complete",
				"success", result.Success, "items_saved", result.ItemsSaved)
		}

		err = scheduler.Start()
		if err != nil {
			serviceutil.Fatal("failed to start scheduler", err)
		}
		defer scheduler.Stop()

		slog.Info("scheduler running, press Ctrl+C to stop")
		<-ctx.Done()
	},
}
