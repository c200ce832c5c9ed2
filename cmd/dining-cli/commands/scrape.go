package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"nutribruin-backend/lib/serviceutil"
	"nutribruin-backend/lib/timezone"
	"nutribruin-backend/services/dining"
	"nutribruin-backend/services/dining/scraper"

	"github.com/spf13/cobra"
)

var (
	scrapeAll      *bool
	scrapeForce    *bool
	scrapeTomorrow *bool
	scrapeWeek     *bool
)

func init() {
	scrapeAll = scrapeCmd.Flags().Bool("all", false, "Scrape every known restaurant instead of the residential halls.")
	scrapeForce = scrapeCmd.Flags().Bool("force", false, "Re-scrape menu pages even when a weekly template exists.")
	scrapeTomorrow = scrapeCmd.Flags().Bool("tomorrow", false, "Scrape tomorrow's menus instead of today's.")
	scrapeWeek = scrapeCmd.Flags().Bool("week", false, "Scrape the next seven days.")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [restaurants...]",
	Short: "Scrapes menus and nutrition for the given restaurants and writes them to the database.",
	Run: func(cmd *cobra.Command, args []string) {
		svc, cleanup, err := openService()
		if err != nil {
			serviceutil.Fatal("failed to open service", err)
		}
		defer cleanup()

		mode := "update"
		if *scrapeForce {
			mode = "full"
		}
		cfg := scraper.Config{
			Restaurants:  args,
			Dates:        scrapeDates(),
			Mode:         mode,
			ForceRefresh: *scrapeForce,
		}
		if *scrapeAll {
			cfg.Restaurants = dining.AllRestaurants()
		}

		result := svc.ScrapeMenus(cmd.Context(), cfg)

		encoded, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			serviceutil.Fatal("failed to encode result", err)
		}
		fmt.Println(string(encoded))

		// unit errors are recorded in the printed result; a completed
		// run exits zero no matter how many units failed
		if !result.Success {
			slog.Warn("run completed with errors", "errors", len(result.Errors))
		}
	},
}

func scrapeDates() []string {
	now := timezone.Now()
	switch {
	case *scrapeWeek:
		dates := make([]string, 0, 7)
		for i := 0; i < 7; i++ {
			dates = append(dates, now.AddDate(0, 0, i).Format(dining.DateFormat))
		}
		return dates
	case *scrapeTomorrow:
		return []string{now.AddDate(0, 0, 1).Format(dining.DateFormat)}
	}
	return []string{now.Format(dining.DateFormat)}
}
