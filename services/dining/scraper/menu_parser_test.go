package scraper

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const structuredMenuHTML = `<html><body>
<h2>Thursday, June 12, 2025</h2>
<h3>Lunch</h3>
<h4>Grill</h4>
<ul>
  <li><a href="/Recipes/077003/1">Grilled Chicken Breast</a></li>
  <li><a href="/Recipes/141301/1">Garden Burger</a></li>
</ul>
<h3>Dinner</h3>
<h4>Pizzeria</h4>
<ul>
  <li><a href="/Recipes/977563/1">Cheese Pizza</a></li>
</ul>
</body></html>`

const flatMenuHTML = `<html><body>
<div class="menu-links">
  <a href="RecipeDetails.aspx?RecipeNumber=400077">Seared Tofu</a>
  <a href="https://dining.example.edu/menu-item/?recipe=2066">Lemon Rice</a>
  <a href="/about">About Us</a>
</div>
</body></html>`

func TestParseMenuPage(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(structuredMenuHTML))
	require.NoError(t, err)

	structure := ParseMenuPage(context.Background(), doc, "de-neve")

	require.Equal(t, "de-neve", structure.Restaurant)
	require.Equal(t, "2025-06-12", structure.Date)
	require.Equal(t, 4, structure.DayOfWeek)

	lunch := structure.MealPeriods["lunch"]
	require.NotNil(t, lunch)
	require.Len(t, lunch["Grill"], 2)
	require.Equal(t, "Grilled Chicken Breast", lunch["Grill"][0].Name)
	require.Equal(t, "077003", lunch["Grill"][0].RecipeID)
	require.Equal(t, "lunch", lunch["Grill"][0].MealPeriod)
	require.Equal(t, "Grill", lunch["Grill"][0].Station)

	dinner := structure.MealPeriods["dinner"]
	require.NotNil(t, dinner)
	require.Len(t, dinner["Pizzeria"], 1)
	require.Equal(t, "977563", dinner["Pizzeria"][0].RecipeID)

	require.Equal(t, []string{"077003", "141301", "977563"}, structure.RecipeIDs())
}

func TestParseMenuPageFlatFallback(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(flatMenuHTML))
	require.NoError(t, err)

	structure := ParseMenuPage(context.Background(), doc, "rendezvous")

	general := structure.MealPeriods["all-day"]["General"]
	require.Len(t, general, 2)
	require.Equal(t, "400077", general[0].RecipeID)
	require.Equal(t, "2066", general[1].RecipeID)
	require.Equal(t, "all-day", general[0].MealPeriod)
}

func TestExtractRecipeID(t *testing.T) {
	require.Equal(t, "077003", extractRecipeID("/Recipes/077003/1"))
	require.Equal(t, "400077", extractRecipeID("RecipeDetails.aspx?RecipeNumber=400077"))
	require.Equal(t, "2066", extractRecipeID("https://dining.example.edu/menu-item/?recipe=2066"))
	require.Equal(t, "", extractRecipeID("/about"))
}
