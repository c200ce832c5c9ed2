package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"nutribruin-backend/lib/kvcache"
	"nutribruin-backend/services/dining"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
)

const recipeCacheTTL = time.Hour * 24

func recipeKey(recipeID string) string {
	return "recipe:" + recipeID
}

// RecipeCache resolves recipe identifiers through three tiers:
// process memory, the shared kv cache, then the durable store. Upper
// tiers are backfilled on lower-tier hits. Nutrition-page scraping is
// the most expensive and most rate-limited operation in the pipeline,
// so a recipe fetched once in any run is never fetched again.
type RecipeCache struct {
	store  dining.Store
	kv     kvcache.Store
	parser *NutritionParser

	mu     sync.Mutex
	memory map[string]*dining.RecipeMaster

	fetches singleflight.Group
}

func NewRecipeCache(store dining.Store, kv kvcache.Store, parser *NutritionParser) *RecipeCache {
	return &RecipeCache{
		store:  store,
		kv:     kv,
		parser: parser,
		memory: map[string]*dining.RecipeMaster{},
	}
}

// Get returns nil without error when the recipe is absent from all
// three tiers. Cache tier failures degrade to the next tier, only the
// durable store can fail the lookup.
func (c *RecipeCache) Get(ctx context.Context, recipeID string) (*dining.RecipeMaster, error) {
	c.mu.Lock()
	cached, hit := c.memory[recipeID]
	c.mu.Unlock()
	if hit {
		return cached, nil
	}

	data, err := c.kv.Get(ctx, recipeKey(recipeID))
	if err == nil {
		var recipe dining.RecipeMaster
		if err := json.Unmarshal(data, &recipe); err == nil {
			c.remember(&recipe)
			return &recipe, nil
		}
		slog.WarnContext(ctx, "discarding malformed cached recipe", "recipe_id", recipeID)
	} else if !errors.Is(err, kvcache.ErrNotFound) {
		slog.WarnContext(ctx, "recipe kv cache read failed", "recipe_id", recipeID, "err", err)
	}

	recipe, err := c.store.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, nil
	}

	c.remember(recipe)
	c.writeKv(ctx, recipe)
	return recipe, nil
}

// FetchAndCache scrapes the recipe's nutrition page and writes the
// result through every tier. Concurrent calls for the same identifier
// collapse into a single live fetch; an existence recheck makes the
// operation idempotent across runs. A nil return with nil error means
// the nutrition page could not be parsed and the item should be
// skipped.
func (c *RecipeCache) FetchAndCache(ctx context.Context, recipeID string, page *Page) (*dining.RecipeMaster, error) {
	result, err, _ := c.fetches.Do(recipeID, func() (interface{}, error) {
		ctx, span := tracer.Start(ctx, "recipecache:FetchAndCache")
		defer span.End()
		span.SetAttributes(attribute.String("recipe_id", recipeID))

		existing, err := c.Get(ctx, recipeID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			span.AddEvent("recipe already cached")
			return existing, nil
		}

		info := c.parser.Parse(ctx, page, recipeID)
		if info == nil {
			span.AddEvent("nutrition unavailable")
			return (*dining.RecipeMaster)(nil), nil
		}

		recipe := recipeMasterFrom(recipeID, info)
		err = c.store.SaveRecipe(ctx, recipe)
		if err != nil {
			return nil, err
		}

		c.remember(&recipe)
		c.writeKv(ctx, &recipe)

		slog.InfoContext(ctx, "cached new recipe", "recipe_id", recipeID, "name", recipe.Name)
		return &recipe, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*dining.RecipeMaster), nil
}

// ClearMemory must run at the end of every orchestration run so the
// process tier cannot grow without bound in a long-lived process.
func (c *RecipeCache) ClearMemory() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.memory = map[string]*dining.RecipeMaster{}
}

func (c *RecipeCache) remember(recipe *dining.RecipeMaster) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.memory[recipe.RecipeID] = recipe
}

func (c *RecipeCache) writeKv(ctx context.Context, recipe *dining.RecipeMaster) {
	data, err := json.Marshal(recipe)
	if err != nil {
		return
	}
	err = c.kv.Set(ctx, recipeKey(recipe.RecipeID), data, recipeCacheTTL)
	if err != nil {
		slog.WarnContext(ctx, "recipe kv cache write failed", "recipe_id", recipe.RecipeID, "err", err)
	}
}
