package scraper

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"sync"
	"time"

	"nutribruin-backend/lib/kvcache"
	"nutribruin-backend/lib/timezone"
	"nutribruin-backend/services/dining"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultMenuBaseURL      = "https://menu.dining.ucla.edu"
	defaultDiningBaseURL    = "https://dining.ucla.edu"
	defaultConcurrency      = 2
	defaultDispatchInterval = time.Millisecond * 3000
)

// Options tune the pipeline; the zero value scrapes the live site at
// its default pacing. Tests point the base URLs at local servers and
// drop the dispatch interval.
type Options struct {
	MenuBaseURL      string
	DiningBaseURL    string
	Concurrency      int
	DispatchInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.MenuBaseURL == "" {
		o.MenuBaseURL = defaultMenuBaseURL
	}
	if o.DiningBaseURL == "" {
		o.DiningBaseURL = defaultDiningBaseURL
	}
	if o.Concurrency == 0 {
		o.Concurrency = defaultConcurrency
	}
	if o.DispatchInterval == 0 {
		o.DispatchInterval = defaultDispatchInterval
	}
	return o
}

// Config selects what one orchestration run covers.
type Config struct {
	Restaurants  []string `json:"restaurants,omitempty"`
	Dates        []string `json:"dates,omitempty"`
	Mode         string   `json:"mode,omitempty"`
	ForceRefresh bool     `json:"forceRefresh,omitempty"`
}

// UnitError records one failed (restaurant, date) unit. Units fail
// independently; one broken page never takes down the run.
type UnitError struct {
	Restaurant string `json:"restaurant"`
	Date       string `json:"date"`
	Error      string `json:"error"`
}

type RunStats struct {
	RestaurantsScraped int `json:"restaurantsScraped"`
	RecipesCreated     int `json:"recipesCreated"`
	RecipesReused      int `json:"recipesReused"`
	TemplatesUpdated   int `json:"templatesUpdated"`
}

type Result struct {
	Success        bool        `json:"success"`
	ItemsScraped   int         `json:"itemsScraped"`
	ItemsSaved     int         `json:"itemsSaved"`
	Errors         []UnitError `json:"errors"`
	DurationMillis int64       `json:"duration"`
	Stats          RunStats    `json:"stats"`
}

// StatsSummary is a snapshot of what the store currently holds.
type StatsSummary struct {
	CachedRecipes   int64     `json:"cachedRecipes"`
	WeeklyTemplates int64     `json:"weeklyTemplates"`
	TodaysMenuItems int64     `json:"todaysMenuItems"`
	LastUpdated     time.Time `json:"lastUpdated"`
}

// Service orchestrates scrape runs over the shared store and kv cache.
// It is safe for concurrent use; every run builds its own session,
// queue and run-local caches.
type Service struct {
	store dining.Store
	kv    kvcache.Store
	opts  Options
}

func NewService(database *sql.DB, kv kvcache.Store, opts Options) *Service {
	return &Service{
		store: dining.NewStore(database),
		kv:    kv,
		opts:  opts.withDefaults(),
	}
}

func (s *Service) Store() dining.Store {
	return s.store
}

func menuKey(restaurant, date string) string {
	return "menu:" + restaurant + ":" + date
}

// runEnv holds the per-run resources shared by every unit.
type runEnv struct {
	session   *Session
	cache     *RecipeCache
	templates *TemplateStore
	queue     *Queue
}

// ScrapeMenus runs the full pipeline for every (restaurant, date) pair
// the config selects. Each unit replays the stored weekly template
// when one exists (unless forced), otherwise scrapes the menu page
// fresh and records a new template. Unit failures are collected, not
// propagated; Success reports whether the run was error free.
func (s *Service) ScrapeMenus(ctx context.Context, cfg Config) Result {
	ctx, span := tracer.Start(ctx, "scraper:ScrapeMenus")
	defer span.End()

	start := time.Now()
	result := Result{Errors: []UnitError{}}

	restaurants := cfg.Restaurants
	if len(restaurants) == 0 {
		restaurants = dining.DefaultRestaurants
	}
	dates := cfg.Dates
	if len(dates) == 0 {
		dates = []string{timezone.Now().Format(dining.DateFormat)}
	}

	span.SetAttributes(
		attribute.StringSlice("restaurants", restaurants),
		attribute.StringSlice("dates", dates),
		attribute.Bool("force_refresh", cfg.ForceRefresh),
	)

	env := &runEnv{
		session:   NewSession(),
		templates: NewTemplateStore(s.store),
		queue:     NewQueue(s.opts.Concurrency, s.opts.DispatchInterval),
	}
	env.cache = NewRecipeCache(s.store, s.kv, NewNutritionParser(s.opts.MenuBaseURL, s.opts.DiningBaseURL))
	defer env.session.Shutdown()
	defer env.cache.ClearMemory()
	defer env.queue.Close()

	for _, restaurant := range restaurants {
		for _, date := range dates {
			outcome, err := s.processUnit(ctx, env, restaurant, date, cfg.ForceRefresh)
			if err != nil {
				slog.ErrorContext(ctx, "scrape unit failed",
					"restaurant", restaurant, "date", date, "err", err)
				result.Errors = append(result.Errors, UnitError{
					Restaurant: restaurant,
					Date:       date,
					Error:      err.Error(),
				})
			}

			result.ItemsScraped += outcome.scraped
			result.ItemsSaved += outcome.saved
			result.Stats.RecipesCreated += outcome.newRecipes
			result.Stats.RecipesReused += outcome.reusedRecipes
			if outcome.templateUpdated {
				result.Stats.TemplatesUpdated++
			}
			if err == nil && outcome.menuAvailable {
				result.Stats.RestaurantsScraped++
			}

			// stale read-side cache entries for the unit are dropped
			// even when the unit failed
			if err := s.kv.Delete(ctx, menuKey(restaurant, date)); err != nil {
				slog.WarnContext(ctx, "menu cache invalidation failed",
					"restaurant", restaurant, "date", date, "err", err)
			}
		}
	}

	env.queue.Drain()

	result.DurationMillis = time.Since(start).Milliseconds()
	result.Success = len(result.Errors) == 0
	if !result.Success {
		span.SetStatus(codes.Error, "run completed with unit errors")
	}
	span.SetAttributes(
		attribute.Int("items_saved", result.ItemsSaved),
		attribute.Int("unit_errors", len(result.Errors)),
	)

	slog.InfoContext(ctx, "scrape run complete",
		"success", result.Success,
		"items_saved", result.ItemsSaved,
		"recipes_created", result.Stats.RecipesCreated,
		"recipes_reused", result.Stats.RecipesReused,
		"errors", len(result.Errors),
		"duration_ms", result.DurationMillis)
	return result
}

type unitOutcome struct {
	scraped         int
	saved           int
	newRecipes      int
	reusedRecipes   int
	templateUpdated bool
	menuAvailable   bool
}

func (s *Service) processUnit(ctx context.Context, env *runEnv, restaurant, date string, force bool) (unitOutcome, error) {
	ctx, span := tracer.Start(ctx, "scraper:processUnit")
	defer span.End()
	span.SetAttributes(
		attribute.String("restaurant", restaurant),
		attribute.String("date", date),
	)

	day, err := time.ParseInLocation(dining.DateFormat, date, timezone.Location)
	if err != nil {
		return unitOutcome{}, err
	}
	dayOfWeek := int(day.Weekday())

	if !force {
		template, err := env.templates.Get(ctx, restaurant, dayOfWeek)
		if err != nil {
			return unitOutcome{}, err
		}
		if template != nil {
			span.AddEvent("replaying weekly template")
			return s.replayTemplate(ctx, env, template, restaurant, date)
		}
	}

	return s.scrapeFresh(ctx, env, restaurant, date, dayOfWeek)
}

// replayTemplate rebuilds the day's menu items from a stored weekly
// template, resolving every recipe through the cache tiers and never
// touching the menu page. Recipes missing from all tiers are skipped;
// the template writer only records identifiers that resolved at least
// once.
func (s *Service) replayTemplate(ctx context.Context, env *runEnv, template *dining.WeeklyTemplate, restaurant, date string) (unitOutcome, error) {
	var items []dining.MenuItem
	for period, stations := range template.MealPeriods {
		for station, recipeIDs := range stations {
			for _, recipeID := range recipeIDs {
				recipe, err := env.cache.Get(ctx, recipeID)
				if err != nil {
					return unitOutcome{}, err
				}
				if recipe == nil {
					slog.WarnContext(ctx, "template references unknown recipe, skipping",
						"restaurant", restaurant, "recipe_id", recipeID)
					continue
				}

				item := menuItemFrom(ParsedMenuItem{
					Name:       recipe.Name,
					RecipeID:   recipeID,
					Category:   station,
					MealPeriod: period,
					Station:    station,
				}, recipe, restaurant, date)
				items = append(items, *item)
			}
		}
	}

	saved, err := s.store.SaveMenuItems(ctx, items)
	if err != nil {
		return unitOutcome{saved: saved}, err
	}
	return unitOutcome{
		scraped:       len(items),
		saved:         saved,
		reusedRecipes: len(items),
		menuAvailable: true,
	}, nil
}

// menuClosed reports whether the rendered page announces there is no
// menu for the date instead of listing items.
func menuClosed(body string) bool {
	lowered := strings.ToLower(body)
	return strings.Contains(lowered, "no menu") || strings.Contains(lowered, "closed")
}

func (s *Service) scrapeFresh(ctx context.Context, env *runEnv, restaurant, date string, dayOfWeek int) (unitOutcome, error) {
	page := env.session.AcquirePage()
	url := s.opts.MenuBaseURL + "/Menus/" + dining.DisplayName(restaurant) + "/" + date

	err := env.session.ExecuteWithRetry(ctx, func() error {
		return page.Navigate(ctx, url)
	})
	if err != nil {
		return unitOutcome{}, err
	}

	if menuClosed(page.Body()) {
		slog.InfoContext(ctx, "no menu published for date",
			"restaurant", restaurant, "date", date)
		return unitOutcome{}, nil
	}

	structure := ParseMenuPage(ctx, page.Document(), restaurant)
	recipeIDs := structure.RecipeIDs()

	var (
		mu         sync.Mutex
		resolved   = map[string]*dining.RecipeMaster{}
		newRecipes int
		reused     int
	)
	for _, recipeID := range recipeIDs {
		recipeID := recipeID
		env.queue.Enqueue(func() {
			recipe, err := env.cache.Get(ctx, recipeID)
			if err != nil {
				slog.WarnContext(ctx, "recipe lookup failed", "recipe_id", recipeID, "err", err)
				return
			}

			created := false
			if recipe == nil {
				recipe, err = env.cache.FetchAndCache(ctx, recipeID, env.session.AcquirePage())
				if err != nil {
					slog.WarnContext(ctx, "recipe fetch failed", "recipe_id", recipeID, "err", err)
					return
				}
				created = recipe != nil
			}
			if recipe == nil {
				return
			}

			mu.Lock()
			resolved[recipeID] = recipe
			if created {
				newRecipes++
			} else {
				reused++
			}
			mu.Unlock()
		})
	}
	env.queue.Drain()

	// items whose recipe never resolved are dropped entirely rather
	// than saved with empty nutrition
	seen := map[string]bool{}
	var items []dining.MenuItem
	structure.Each(func(parsed ParsedMenuItem) {
		if seen[parsed.RecipeID] {
			return
		}
		seen[parsed.RecipeID] = true
		item := menuItemFrom(parsed, resolved[parsed.RecipeID], restaurant, date)
		if item != nil {
			items = append(items, *item)
		}
	})

	saved, err := s.store.SaveMenuItems(ctx, items)
	if err != nil {
		return unitOutcome{scraped: len(recipeIDs), saved: saved}, err
	}

	templateUpdated, err := env.templates.Upsert(ctx, restaurant, dayOfWeek, structure, func(recipeID string) bool {
		return resolved[recipeID] != nil
	})
	if err != nil {
		return unitOutcome{scraped: len(recipeIDs), saved: saved}, err
	}

	return unitOutcome{
		scraped:         len(recipeIDs),
		saved:           saved,
		newRecipes:      newRecipes,
		reusedRecipes:   reused,
		templateUpdated: templateUpdated,
		menuAvailable:   true,
	}, nil
}

// GetScraperStats summarizes the current store contents.
func (s *Service) GetScraperStats(ctx context.Context) (StatsSummary, error) {
	recipes, err := s.store.CountRecipes(ctx)
	if err != nil {
		return StatsSummary{}, err
	}
	templates, err := s.store.CountTemplates(ctx)
	if err != nil {
		return StatsSummary{}, err
	}
	today := timezone.Now().Format(dining.DateFormat)
	menuItems, err := s.store.CountMenuItemsOn(ctx, today)
	if err != nil {
		return StatsSummary{}, err
	}

	return StatsSummary{
		CachedRecipes:   recipes,
		WeeklyTemplates: templates,
		TodaysMenuItems: menuItems,
		LastUpdated:     timezone.Now(),
	}, nil
}
