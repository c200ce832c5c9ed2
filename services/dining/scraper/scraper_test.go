package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"nutribruin-backend/lib/kvcache"
	"nutribruin-backend/lib/testutil"
	"nutribruin-backend/services/dining/db"

	"github.com/stretchr/testify/require"
)

const burgerRecipeHTML = `<html><body>
<h2>Garden Burger</h2>
<div class="nutrition-facts">
  <p class="serving-size">Serving Size: 6oz</p>
  <p>Calories 310</p>
  <p>Protein 12g</p>
</div>
<img alt="Vegetarian Menu Option"/>
</body></html>`

const pizzaRecipeHTML = `<html><body>
<h2>Cheese Pizza</h2>
<div class="nutrition-facts">
  <p>Calories 450</p>
  <p>Protein 18g</p>
</div>
<img alt="Contains Wheat"/><img alt="Contains Dairy"/>
</body></html>`

const noMenuHTML = `<html><body>
<h2>Friday, June 13, 2025</h2>
<p>No menu available for this date.</p>
</body></html>`

// requestLog counts requests per path so tests can assert which pages
// a run actually hit.
type requestLog struct {
	mu     sync.Mutex
	counts map[string]int
}

func (l *requestLog) record(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts[path]++
}

func (l *requestLog) count(path string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[path]
}

func newDiningSite(t *testing.T) (*httptest.Server, *requestLog) {
	log := &requestLog{counts: map[string]int{}}

	pages := map[string]string{
		"/Menus/DeNeve/2025-06-12":     structuredMenuHTML,
		"/Menus/BruinPlate/2025-06-12": structuredMenuHTML,
		"/Menus/DeNeve/2025-06-13":     noMenuHTML,
		"/Recipes/077003/1":        chickenRecipeHTML,
		"/Recipes/141301/1":        burgerRecipeHTML,
		"/Recipes/977563/1":        pizzaRecipeHTML,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.record(r.URL.Path)
		page, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(page))
	}))
	t.Cleanup(srv.Close)
	return srv, log
}

func newTestService(t *testing.T, baseURL string) *Service {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/dining/scraper",
		DbSchema: db.Schema,
	})
	t.Cleanup(cleanup)

	return NewService(setup.DB, kvcache.NewMemory(), Options{
		MenuBaseURL:      baseURL,
		DiningBaseURL:    baseURL,
		Concurrency:      2,
		DispatchInterval: time.Millisecond,
	})
}

func TestScrapeMenus(t *testing.T) {
	srv, log := newDiningSite(t)
	svc := newTestService(t, srv.URL)
	ctx := context.Background()

	cfg := Config{
		Restaurants: []string{"de-neve"},
		Dates:       []string{"2025-06-12"},
	}
	result := svc.ScrapeMenus(ctx, cfg)

	require.True(t, result.Success)
	require.Empty(t, result.Errors)
	require.Equal(t, 3, result.ItemsScraped)
	require.Equal(t, 3, result.ItemsSaved)
	require.Equal(t, 3, result.Stats.RecipesCreated)
	require.Equal(t, 0, result.Stats.RecipesReused)
	require.Equal(t, 1, result.Stats.TemplatesUpdated)
	require.Equal(t, 1, result.Stats.RestaurantsScraped)

	items, err := svc.Store().MenuItemsFor(ctx, "de-neve", "2025-06-12")
	require.NoError(t, err)
	require.Len(t, items, 3)

	byName := map[string]int{}
	for i, item := range items {
		byName[item.Name] = i
	}
	chicken := items[byName["Grilled Chicken Breast"]]
	require.Equal(t, "lunch", chicken.MealPeriod)
	require.Equal(t, "Grill", chicken.Station)
	require.Equal(t, 220.0, chicken.Nutrition.Calories)
	require.Equal(t, 5.0, chicken.ServingSizeOz)

	pizza := items[byName["Cheese Pizza"]]
	require.Equal(t, "dinner", pizza.MealPeriod)
	require.Equal(t, "Pizzeria", pizza.Station)

	// every recipe page was hit exactly once
	require.Equal(t, 1, log.count("/Recipes/077003/1"))
	require.Equal(t, 1, log.count("/Recipes/141301/1"))
	require.Equal(t, 1, log.count("/Recipes/977563/1"))
}

func TestScrapeMenusTemplateReplay(t *testing.T) {
	srv, log := newDiningSite(t)
	svc := newTestService(t, srv.URL)
	ctx := context.Background()

	cfg := Config{
		Restaurants: []string{"de-neve"},
		Dates:       []string{"2025-06-12"},
	}

	first := svc.ScrapeMenus(ctx, cfg)
	require.True(t, first.Success)
	require.Equal(t, 1, log.count("/Menus/DeNeve/2025-06-12"))

	// the second run replays the stored weekly template: no menu page
	// parse, no recipe page fetches, same saved rows
	second := svc.ScrapeMenus(ctx, cfg)
	require.True(t, second.Success)
	require.Equal(t, 3, second.ItemsSaved)
	require.Equal(t, 0, second.Stats.RecipesCreated)
	require.Equal(t, 3, second.Stats.RecipesReused)
	require.Equal(t, 1, log.count("/Menus/DeNeve/2025-06-12"))
	require.Equal(t, 1, log.count("/Recipes/077003/1"))

	count, err := svc.Store().CountMenuItemsOn(ctx, "2025-06-12")
	require.NoError(t, err)
	require.Equal(t, int64(3), count)
}

func TestScrapeMenusForceRefresh(t *testing.T) {
	srv, log := newDiningSite(t)
	svc := newTestService(t, srv.URL)
	ctx := context.Background()

	cfg := Config{
		Restaurants: []string{"de-neve"},
		Dates:       []string{"2025-06-12"},
	}
	svc.ScrapeMenus(ctx, cfg)

	cfg.ForceRefresh = true
	result := svc.ScrapeMenus(ctx, cfg)

	require.True(t, result.Success)
	require.Equal(t, 2, log.count("/Menus/DeNeve/2025-06-12"))
	// recipes still resolve from the durable store, not the site
	require.Equal(t, 1, log.count("/Recipes/077003/1"))
	require.Equal(t, 3, result.Stats.RecipesReused)
}

func TestScrapeMenusNoMenuPublished(t *testing.T) {
	srv, _ := newDiningSite(t)
	svc := newTestService(t, srv.URL)

	result := svc.ScrapeMenus(context.Background(), Config{
		Restaurants: []string{"de-neve"},
		Dates:       []string{"2025-06-13"},
	})

	require.True(t, result.Success)
	require.Equal(t, 0, result.ItemsSaved)
	require.Equal(t, 0, result.Stats.RestaurantsScraped)
	require.Equal(t, 0, result.Stats.TemplatesUpdated)
}

func TestScrapeMenusUnitFailureIsolation(t *testing.T) {
	srv, _ := newDiningSite(t)
	svc := newTestService(t, srv.URL)
	ctx := context.Background()

	result := svc.ScrapeMenus(ctx, Config{
		Restaurants: []string{"de-neve", "bad-hall", "bruin-plate"},
		Dates:       []string{"2025-06-12"},
	})

	require.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	require.Equal(t, "bad-hall", result.Errors[0].Restaurant)
	require.Equal(t, "2025-06-12", result.Errors[0].Date)

	// the healthy restaurants still landed all of their items
	require.Equal(t, 6, result.ItemsSaved)
	for _, restaurant := range []string{"de-neve", "bruin-plate"} {
		items, err := svc.Store().MenuItemsFor(ctx, restaurant, "2025-06-12")
		require.NoError(t, err)
		require.Len(t, items, 3)
	}
}

func TestScrapeMenusAllUnitsFailStillCompletes(t *testing.T) {
	srv, _ := newDiningSite(t)
	svc := newTestService(t, srv.URL)

	// a run where every unit fails is still a completed run: it
	// returns a result with the failures recorded instead of aborting,
	// so callers (the CLI included) treat it as a normal exit
	result := svc.ScrapeMenus(context.Background(), Config{
		Restaurants: []string{"bad-hall"},
		Dates:       []string{"2025-06-12"},
	})

	require.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	require.Equal(t, "bad-hall", result.Errors[0].Restaurant)
	require.Equal(t, 0, result.ItemsSaved)
	require.Equal(t, 0, result.Stats.RestaurantsScraped)
	require.GreaterOrEqual(t, result.DurationMillis, int64(0))
}

func TestGetScraperStats(t *testing.T) {
	srv, _ := newDiningSite(t)
	svc := newTestService(t, srv.URL)
	ctx := context.Background()

	svc.ScrapeMenus(ctx, Config{
		Restaurants: []string{"de-neve"},
		Dates:       []string{"2025-06-12"},
	})

	stats, err := svc.GetScraperStats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.CachedRecipes)
	require.Equal(t, int64(1), stats.WeeklyTemplates)
	require.False(t, stats.LastUpdated.IsZero())
}
