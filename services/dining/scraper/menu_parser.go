package scraper

import (
	"context"
	"regexp"
	"strings"
	"time"

	"nutribruin-backend/lib/htmlutil"
	"nutribruin-backend/lib/timezone"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"

	"nutribruin-backend/services/dining"
)

// ParsedMenuItem is one recipe link discovered in a menu page,
// annotated with the meal period and station it was found under.
type ParsedMenuItem struct {
	Name       string
	RecipeID   string
	Category   string
	MealPeriod string
	Station    string
}

// MenuStructure is the hierarchical shape of one restaurant's menu on
// one date: meal period -> station -> items in page order.
type MenuStructure struct {
	Restaurant  string
	Date        string
	DayOfWeek   int
	MealPeriods map[string]map[string][]ParsedMenuItem
}

// RecipeIDs returns the deduplicated recipe identifiers referenced by
// the structure, in first-seen order.
func (m MenuStructure) RecipeIDs() []string {
	seen := map[string]bool{}
	var ids []string
	m.Each(func(item ParsedMenuItem) {
		if !seen[item.RecipeID] {
			seen[item.RecipeID] = true
			ids = append(ids, item.RecipeID)
		}
	})
	return ids
}

func (m MenuStructure) Each(fn func(item ParsedMenuItem)) {
	for _, stations := range m.MealPeriods {
		for _, items := range stations {
			for _, item := range items {
				fn(item)
			}
		}
	}
}

// the source site links recipes in three shapes:
// /Recipes/077003/1, RecipeDetails.aspx?RecipeNumber=077003, recipe=2066
var recipeLinkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/Recipes/(\d+)`),
	regexp.MustCompile(`RecipeNumber=(\d+)`),
	regexp.MustCompile(`recipe=(\d+)`),
}

func extractRecipeID(href string) string {
	for _, pattern := range recipeLinkPatterns {
		if groups := pattern.FindStringSubmatch(href); groups != nil {
			return groups[1]
		}
	}
	return ""
}

var pageDatePattern = regexp.MustCompile(`\w+,\s+\w+\s+\d{1,2},\s+\d{4}`)

func parsePageDate(doc *goquery.Document) (string, int) {
	heading := doc.Find("h2").First().Text()
	if match := pageDatePattern.FindString(heading); match != "" {
		date, err := time.ParseInLocation("Monday, January 2, 2006", match, timezone.Location)
		if err == nil {
			return date.Format(dining.DateFormat), int(date.Weekday())
		}
	}
	now := timezone.Now()
	return now.Format(dining.DateFormat), int(now.Weekday())
}

func mealPeriodFor(header string) string {
	header = strings.ToLower(header)
	switch {
	case strings.Contains(header, "breakfast"):
		return "breakfast"
	case strings.Contains(header, "lunch"):
		return "lunch"
	case strings.Contains(header, "dinner"):
		return "dinner"
	case strings.Contains(header, "late"):
		return "late-night"
	}
	return "all-day"
}

// ParseMenuPage extracts the menu structure from a rendered
// restaurant/date page. Meal periods come from h3 headers, stations
// from h4 (or .station-header) headings between them. When the page
// carries no recognizable period headers at all, a flat fallback pass
// collects every recipe link into an all-day/General bucket, which is
// what keeps the pipeline alive through markup redesigns.
func ParseMenuPage(ctx context.Context, doc *goquery.Document, restaurantID string) MenuStructure {
	ctx, span := tracer.Start(ctx, "ParseMenuPage")
	defer span.End()
	span.SetAttributes(attribute.String("restaurant", restaurantID))

	date, dayOfWeek := parsePageDate(doc)

	mealPeriods := map[string]map[string][]ParsedMenuItem{}

	doc.Find("h3").Each(func(_ int, header *goquery.Selection) {
		period := mealPeriodFor(header.Text())
		if mealPeriods[period] == nil {
			mealPeriods[period] = map[string][]ParsedMenuItem{}
		}

		station := "General"
		current := header.Next()
		for current.Length() > 0 && !current.Is("h3") {
			if current.Is("h4") || current.HasClass("station-header") {
				station = htmlutil.CleanText(current.Text())
				if mealPeriods[period][station] == nil {
					mealPeriods[period][station] = []ParsedMenuItem{}
				}
			}

			current.Find("a").Each(func(_ int, anchor *goquery.Selection) {
				item, ok := parseRecipeAnchor(anchor, period, station)
				if ok {
					mealPeriods[period][station] = append(mealPeriods[period][station], item)
				}
			})

			current = current.Next()
		}
	})

	// markup deviates from the expected shape, collect every recipe
	// link on the page instead
	if len(mealPeriods) == 0 {
		span.AddEvent("no meal periods found, falling back to flat parse")

		flat := []ParsedMenuItem{}
		doc.Find("a").Each(func(_ int, anchor *goquery.Selection) {
			item, ok := parseRecipeAnchor(anchor, "all-day", "General")
			if ok {
				flat = append(flat, item)
			}
		})
		mealPeriods["all-day"] = map[string][]ParsedMenuItem{"General": flat}
	}

	span.SetAttributes(attribute.Int("meal_periods", len(mealPeriods)))

	return MenuStructure{
		Restaurant:  restaurantID,
		Date:        date,
		DayOfWeek:   dayOfWeek,
		MealPeriods: mealPeriods,
	}
}

// both a name and a numeric recipe identifier are required, anchors
// missing either are dropped
func parseRecipeAnchor(anchor *goquery.Selection, period, station string) (ParsedMenuItem, bool) {
	href := anchor.AttrOr("href", "")
	recipeID := extractRecipeID(href)
	name := htmlutil.CleanText(anchor.Text())
	if name == "" || recipeID == "" {
		return ParsedMenuItem{}, false
	}
	return ParsedMenuItem{
		Name:       name,
		RecipeID:   recipeID,
		Category:   station,
		MealPeriod: period,
		Station:    station,
	}, true
}
