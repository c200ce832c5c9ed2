// Package dining holds the data model and durable storage layer for
// the campus dining menu pipeline: menu items offered on a specific
// date, the restaurant-agnostic recipe master cache, and the weekly
// structural templates the scraper replays.
package dining

import "time"

const DateFormat = "2006-01-02"

// DietaryTag is a canonical dietary restriction or allergen marker,
// mirroring the icon system used on the source site.
type DietaryTag string

const (
	TagVegan             DietaryTag = "vegan"
	TagVegetarian        DietaryTag = "vegetarian"
	TagLowCarbon         DietaryTag = "low-carbon"
	TagHalal             DietaryTag = "halal"
	TagContainsGluten    DietaryTag = "contains-gluten"
	TagContainsWheat     DietaryTag = "contains-wheat"
	TagContainsDairy     DietaryTag = "contains-dairy"
	TagContainsEggs      DietaryTag = "contains-eggs"
	TagContainsSoy       DietaryTag = "contains-soy"
	TagContainsNuts      DietaryTag = "contains-nuts"
	TagContainsFish      DietaryTag = "contains-fish"
	TagContainsShellfish DietaryTag = "contains-shellfish"
	TagContainsSesame    DietaryTag = "contains-sesame"
	TagContainsAlcohol   DietaryTag = "contains-alcohol"
	TagHighCarbon        DietaryTag = "high-carbon"
)

// TagSynonyms maps the keywords found in icon attributes and allergen
// text on recipe pages to canonical tags. Multiple keywords collapse
// into one tag ("milk" and "dairy", the various nut spellings).
var TagSynonyms = map[string]DietaryTag{
	"vegan":       TagVegan,
	"vegetarian":  TagVegetarian,
	"low-carbon":  TagLowCarbon,
	"low carbon":  TagLowCarbon,
	"halal":       TagHalal,
	"gluten":      TagContainsGluten,
	"wheat":       TagContainsWheat,
	"dairy":       TagContainsDairy,
	"milk":        TagContainsDairy,
	"eggs":        TagContainsEggs,
	"egg":         TagContainsEggs,
	"soy":         TagContainsSoy,
	"nuts":        TagContainsNuts,
	"tree nuts":   TagContainsNuts,
	"peanuts":     TagContainsNuts,
	"peanut":      TagContainsNuts,
	"fish":        TagContainsFish,
	"shellfish":   TagContainsShellfish,
	"sesame":      TagContainsSesame,
	"alcohol":     TagContainsAlcohol,
	"high-carbon": TagHighCarbon,
	"high carbon": TagHighCarbon,
}

type RestaurantType string

const (
	Residential RestaurantType = "residential"
	Boutique    RestaurantType = "boutique"
)

// restaurant slug -> display name used in the source site's menu URLs
var restaurantDisplayNames = map[string]string{
	"de-neve":        "DeNeve",
	"bruin-plate":    "BruinPlate",
	"epicuria-covel": "Epicuria",
	"epicuria":       "Epicuria",
	"bruin-cafe":     "BruinCafe",
	"cafe-1919":      "Cafe1919",
	"rendezvous":     "Rendezvous",
	"the-study":      "TheStudy",
	"feast":          "FEAST",
	"spice-kitchen":  "SpiceKitchen",
}

var residentialHalls = map[string]bool{
	"bruin-plate":    true,
	"de-neve":        true,
	"epicuria-covel": true,
	"epicuria":       true,
}

// DefaultRestaurants is the residential hall set scraped when a run
// does not name restaurants explicitly.
var DefaultRestaurants = []string{"de-neve", "bruin-plate", "epicuria-covel"}

// "epicuria" is an alias of "epicuria-covel" and is deliberately left
// out so a full run does not scrape the same hall twice.
var allRestaurants = []string{
	"de-neve", "bruin-plate", "epicuria-covel",
	"bruin-cafe", "cafe-1919", "rendezvous",
	"the-study", "feast", "spice-kitchen",
}

// AllRestaurants returns every known restaurant slug, residential
// halls first.
func AllRestaurants() []string {
	slugs := make([]string, len(allRestaurants))
	copy(slugs, allRestaurants)
	return slugs
}

// DisplayName returns the source site's spelling of a restaurant slug,
// falling back to the slug itself for unknown restaurants.
func DisplayName(slug string) string {
	if name, ok := restaurantDisplayNames[slug]; ok {
		return name
	}
	return slug
}

func ClassifyRestaurant(slug string) RestaurantType {
	if residentialHalls[slug] {
		return Residential
	}
	return Boutique
}

// NutritionData is the per-serving nutrition tracked on a menu item.
type NutritionData struct {
	Calories     float64 `json:"calories"`
	Protein      float64 `json:"protein"`
	TotalFat     float64 `json:"totalFat"`
	SaturatedFat float64 `json:"saturatedFat"`
	Cholesterol  float64 `json:"cholesterol"`
	Sodium       float64 `json:"sodium"`
	TotalCarbs   float64 `json:"totalCarbs"`
	DietaryFiber float64 `json:"dietaryFiber"`
	Sugars       float64 `json:"sugars"`
	Calcium      float64 `json:"calcium"`
	Iron         float64 `json:"iron"`
	Potassium    float64 `json:"potassium"`
}

// RecipeNutrition is the full nutrition panel kept on a recipe master,
// a superset of NutritionData.
type RecipeNutrition struct {
	Calories     float64 `json:"calories"`
	Protein      float64 `json:"protein"`
	TotalFat     float64 `json:"totalFat"`
	SaturatedFat float64 `json:"saturatedFat"`
	TransFat     float64 `json:"transFat"`
	Cholesterol  float64 `json:"cholesterol"`
	Sodium       float64 `json:"sodium"`
	TotalCarbs   float64 `json:"totalCarbs"`
	DietaryFiber float64 `json:"dietaryFiber"`
	Sugars       float64 `json:"sugars"`
	AddedSugars  float64 `json:"addedSugars"`
	VitaminD     float64 `json:"vitaminD"`
	Calcium      float64 `json:"calcium"`
	Iron         float64 `json:"iron"`
	Potassium    float64 `json:"potassium"`
}

// MenuItem is one dish offered by one restaurant on one date and meal
// period. (Name, Restaurant, Date) identifies it; persistence upserts
// on that key.
type MenuItem struct {
	Name           string         `json:"name"`
	ServingSize    string         `json:"servingSize"`
	ServingSizeOz  float64        `json:"servingSizeOz"`
	Restaurant     string         `json:"restaurant"`
	RestaurantType RestaurantType `json:"restaurantType"`
	Category       string         `json:"category"`
	Station        string         `json:"station,omitempty"`
	DietaryTags    []DietaryTag   `json:"dietaryTags"`
	Nutrition      NutritionData  `json:"nutrition"`
	Date           string         `json:"date"`
	MealPeriod     string         `json:"mealPeriod,omitempty"`
}

// RecipeMaster is the deduplicated nutrition record for one recipe
// identifier, reused across every date and restaurant serving it.
type RecipeMaster struct {
	RecipeID      string          `json:"recipeId"`
	Name          string          `json:"name"`
	ServingSize   string          `json:"servingSize"`
	ServingSizeOz float64         `json:"servingSizeOz"`
	Nutrition     RecipeNutrition `json:"nutrition"`
	DietaryTags   []DietaryTag    `json:"dietaryTags"`
	LastUpdated   time.Time       `json:"lastUpdated"`
}

// WeeklyTemplate records the shape of a restaurant's menu on a given
// day of week: meal period -> station -> ordered recipe identifiers.
// Nutrition values live on the recipe masters, not here.
type WeeklyTemplate struct {
	Restaurant  string                         `json:"restaurant"`
	DayOfWeek   int                            `json:"dayOfWeek"`
	MealPeriods map[string]map[string][]string `json:"mealPeriods"`
	LastUpdated time.Time                      `json:"lastUpdated"`
}
