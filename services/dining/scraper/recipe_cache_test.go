package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"nutribruin-backend/lib/kvcache"
	"nutribruin-backend/lib/testutil"
	"nutribruin-backend/services/dining"
	"nutribruin-backend/services/dining/db"

	"github.com/stretchr/testify/require"
)

func TestRecipeCacheTiers(t *testing.T) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/dining/scraper",
		DbSchema: db.Schema,
	})
	defer cleanup()
	store := dining.NewStore(setup.DB)
	kv := kvcache.NewMemory()

	var fetches int32
	mux := http.NewServeMux()
	mux.HandleFunc("/Recipes/077003/1", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fetches, 1)
		w.Write([]byte(chickenRecipeHTML))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	session := NewSession()
	defer session.Shutdown()
	cache := NewRecipeCache(store, kv, NewNutritionParser(srv.URL, srv.URL))
	ctx := context.Background()

	recipe, err := cache.Get(ctx, "077003")
	require.NoError(t, err)
	require.Nil(t, recipe)

	recipe, err = cache.FetchAndCache(ctx, "077003", session.AcquirePage())
	require.NoError(t, err)
	require.NotNil(t, recipe)
	require.Equal(t, "Grilled Chicken Breast", recipe.Name)
	require.Equal(t, 220.0, recipe.Nutrition.Calories)
	require.Equal(t, int32(1), atomic.LoadInt32(&fetches))

	// a second fetch resolves from the cache without touching the site
	recipe, err = cache.FetchAndCache(ctx, "077003", session.AcquirePage())
	require.NoError(t, err)
	require.NotNil(t, recipe)
	require.Equal(t, int32(1), atomic.LoadInt32(&fetches))

	// memory tier gone, kv tier serves
	cache.ClearMemory()
	recipe, err = cache.Get(ctx, "077003")
	require.NoError(t, err)
	require.NotNil(t, recipe)
	require.Equal(t, int32(1), atomic.LoadInt32(&fetches))

	// every volatile tier gone, the durable store serves
	cache.ClearMemory()
	require.NoError(t, kv.Delete(ctx, recipeKey("077003")))
	recipe, err = cache.Get(ctx, "077003")
	require.NoError(t, err)
	require.NotNil(t, recipe)
	require.Equal(t, "Grilled Chicken Breast", recipe.Name)
	require.Equal(t, int32(1), atomic.LoadInt32(&fetches))
}

func TestRecipeCacheUnparseableRecipe(t *testing.T) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/dining/scraper",
		DbSchema: db.Schema,
	})
	defer cleanup()
	store := dining.NewStore(setup.DB)

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	session := NewSession()
	defer session.Shutdown()
	cache := NewRecipeCache(store, kvcache.NewMemory(), NewNutritionParser(srv.URL, srv.URL))

	recipe, err := cache.FetchAndCache(context.Background(), "55555", session.AcquirePage())
	require.NoError(t, err)
	require.Nil(t, recipe)
}
