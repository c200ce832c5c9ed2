package commands

import (
	"os"

	"nutribruin-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints a summary of what the database currently holds.",
	Run: func(cmd *cobra.Command, args []string) {
		svc, cleanup, err := openService()
		if err != nil {
			serviceutil.Fatal("failed to open service", err)
		}
		defer cleanup()

		stats, err := svc.GetScraperStats(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to read stats", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Metric", "Value"})
		t.AppendRows([]table.Row{
			{"Cached recipes", stats.CachedRecipes},
			{"Weekly templates", stats.WeeklyTemplates},
			{"Today's menu items", stats.TodaysMenuItems},
			{"As of", stats.LastUpdated.Format("2006-01-02 15:04:05")},
		})
		t.Render()
	},
}
