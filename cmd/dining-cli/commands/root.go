package commands

import (
	"context"
	"fmt"
	"os"

	"nutribruin-backend/lib/kvcache"
	"nutribruin-backend/lib/sqliteutil"
	"nutribruin-backend/services/dining/db"
	"nutribruin-backend/services/dining/scraper"

	"github.com/spf13/cobra"
)

var (
	dbPath    *string
	cachePath *string
)

var rootCmd = &cobra.Command{
	Use:   "dining-cli",
	Short: "dining-cli scrapes campus dining menus and nutrition into a local database.",
}

func init() {
	dbPath = rootCmd.PersistentFlags().String("db", "dining.db", "The database to store menus, recipes and templates in.")
	cachePath = rootCmd.PersistentFlags().String("cache", ".dining-cache", "The directory for the recipe cache.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openService wires the store and cache tiers behind a scrape service.
// The returned cleanup closes both.
func openService() (*scraper.Service, func(), error) {
	database, err := sqliteutil.OpenDB(db.Schema, *dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	kv, err := kvcache.NewBadger(*cachePath)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("open recipe cache: %w", err)
	}

	svc := scraper.NewService(database, kv, scraper.Options{})
	cleanup := func() {
		kv.Close()
		database.Close()
	}
	return svc, cleanup, nil
}
