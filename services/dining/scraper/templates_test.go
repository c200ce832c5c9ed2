package scraper

import (
	"context"
	"testing"

	"nutribruin-backend/lib/testutil"
	"nutribruin-backend/services/dining"
	"nutribruin-backend/services/dining/db"

	"github.com/stretchr/testify/require"
)

func TestTemplateStoreFiltersUnresolved(t *testing.T) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/dining/scraper",
		DbSchema: db.Schema,
	})
	defer cleanup()
	store := dining.NewStore(setup.DB)
	templates := NewTemplateStore(store)
	ctx := context.Background()

	structure := MenuStructure{
		Restaurant: "de-neve",
		MealPeriods: map[string]map[string][]ParsedMenuItem{
			"lunch": {
				"Grill": {
					{Name: "Grilled Chicken Breast", RecipeID: "077003", MealPeriod: "lunch", Station: "Grill"},
					{Name: "Garden Burger", RecipeID: "141301", MealPeriod: "lunch", Station: "Grill"},
				},
			},
		},
	}

	// only recipes that resolved make it into the template
	updated, err := templates.Upsert(ctx, "de-neve", 4, structure, func(recipeID string) bool {
		return recipeID == "077003"
	})
	require.NoError(t, err)
	require.True(t, updated)

	got, err := templates.Get(ctx, "de-neve", 4)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, []string{"077003"}, got.MealPeriods["lunch"]["Grill"])

	// nothing resolvable leaves the previous template untouched
	updated, err = templates.Upsert(ctx, "de-neve", 4, structure, func(string) bool {
		return false
	})
	require.NoError(t, err)
	require.False(t, updated)

	fresh := NewTemplateStore(store)
	got, err = fresh.Get(ctx, "de-neve", 4)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, []string{"077003"}, got.MealPeriods["lunch"]["Grill"])
}
