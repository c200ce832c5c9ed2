package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"nutribruin-backend/lib/htmlutil"
	"nutribruin-backend/services/dining"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
)

// NutritionInfo is the raw extraction result of one recipe detail
// page, before it is transformed into a recipe master.
type NutritionInfo struct {
	Name          string
	ServingSize   string
	ServingSizeOz float64
	Calories      float64
	TotalFat      float64
	SaturatedFat  float64
	TransFat      float64
	Cholesterol   float64
	Sodium        float64
	TotalCarbs    float64
	DietaryFiber  float64
	Sugars        float64
	AddedSugars   float64
	Protein       float64
	VitaminD      float64
	Calcium       float64
	Iron          float64
	Potassium     float64
	DietaryTags   []dining.DietaryTag
}

const nutritionMarker = ".nutrition-facts, .nutritionLabel, #nutrition, .recipe-nutrition"

const defaultServingSizeOz = 4.0

// the markup for a given nutrient is not consistent across recipe
// pages, so every nutrient carries an ordered list of candidate
// selectors/text matches tried until one yields a number
var nutrientCandidates = map[string][]string{
	"calories":     {"calories", "Calories"},
	"totalFat":     {"total-fat", "totalFat", "Total Fat", "Fat"},
	"saturatedFat": {"saturated-fat", "saturatedFat", "Saturated Fat"},
	"transFat":     {"trans-fat", "transFat", "Trans Fat"},
	"cholesterol":  {"cholesterol", "Cholesterol"},
	"sodium":       {"sodium", "Sodium"},
	"totalCarbs":   {"total-carbs", "totalCarbs", "Total Carbohydrate", "Carbohydrate"},
	"dietaryFiber": {"dietary-fiber", "dietaryFiber", "Dietary Fiber", "Fiber"},
	"sugars":       {"sugars", "Sugars", "Sugar"},
	"addedSugars":  {"added-sugars", "addedSugars", "Added Sugars"},
	"protein":      {"protein", "Protein"},
	"vitaminD":     {"vitamin-d", "vitaminD", "Vitamin D"},
	"calcium":      {"calcium", "Calcium"},
	"iron":         {"iron", "Iron"},
	"potassium":    {"potassium", "Potassium"},
}

var ozPattern = regexp.MustCompile(`(?i)(\d+\.?\d*)\s*oz`)
var servingSizePrefix = regexp.MustCompile(`(?i)serving size:?`)

// NutritionParser resolves a recipe identifier to its nutrition facts
// by navigating the known recipe detail URL shapes.
type NutritionParser struct {
	menuBaseURL   string
	diningBaseURL string
}

func NewNutritionParser(menuBaseURL, diningBaseURL string) *NutritionParser {
	return &NutritionParser{
		menuBaseURL:   menuBaseURL,
		diningBaseURL: diningBaseURL,
	}
}

func (p *NutritionParser) recipeURLs(recipeID string) []string {
	return []string{
		fmt.Sprintf("%s/Recipes/%s/1", p.menuBaseURL, recipeID),
		fmt.Sprintf("%s/Recipes/%s", p.menuBaseURL, recipeID),
		fmt.Sprintf("%s/menu-item/?recipe=%s", p.diningBaseURL, recipeID),
	}
}

// Parse navigates to the recipe's detail page, trying each known URL
// shape until one renders a nutrition-facts block, and extracts the
// full panel. It returns nil when no candidate URL loads; a loaded
// page with unrecognizable markup still produces a result with
// defaulted values rather than an error, so one bad page never aborts
// a batch.
func (p *NutritionParser) Parse(ctx context.Context, page *Page, recipeID string) *NutritionInfo {
	ctx, span := tracer.Start(ctx, "nutrition:Parse")
	defer span.End()
	span.SetAttributes(attribute.String("recipe_id", recipeID))

	var doc *goquery.Document
	for _, url := range p.recipeURLs(recipeID) {
		err := page.Navigate(ctx, url)
		if err != nil {
			slog.DebugContext(ctx, "recipe url failed, trying next", "url", url, "err", err)
			continue
		}
		if page.Document().Find(nutritionMarker).Length() > 0 {
			doc = page.Document()
			break
		}
	}
	if doc == nil {
		span.AddEvent("no recipe url yielded nutrition facts")
		return nil
	}

	name := htmlutil.CleanText(doc.Find("h1, h2, .recipe-name, .item-name").First().Text())
	if name == "" {
		name = "Unknown Item"
	}

	servingSize, servingSizeOz := parseServingSize(doc)

	info := &NutritionInfo{
		Name:          name,
		ServingSize:   servingSize,
		ServingSizeOz: servingSizeOz,
		Calories:      parseNutrientValue(doc, nutrientCandidates["calories"]),
		TotalFat:      parseNutrientValue(doc, nutrientCandidates["totalFat"]),
		SaturatedFat:  parseNutrientValue(doc, nutrientCandidates["saturatedFat"]),
		TransFat:      parseNutrientValue(doc, nutrientCandidates["transFat"]),
		Cholesterol:   parseNutrientValue(doc, nutrientCandidates["cholesterol"]),
		Sodium:        parseNutrientValue(doc, nutrientCandidates["sodium"]),
		TotalCarbs:    parseNutrientValue(doc, nutrientCandidates["totalCarbs"]),
		DietaryFiber:  parseNutrientValue(doc, nutrientCandidates["dietaryFiber"]),
		Sugars:        parseNutrientValue(doc, nutrientCandidates["sugars"]),
		AddedSugars:   parseNutrientValue(doc, nutrientCandidates["addedSugars"]),
		Protein:       parseNutrientValue(doc, nutrientCandidates["protein"]),
		VitaminD:      parseNutrientValue(doc, nutrientCandidates["vitaminD"]),
		Calcium:       parseNutrientValue(doc, nutrientCandidates["calcium"]),
		Iron:          parseNutrientValue(doc, nutrientCandidates["iron"]),
		Potassium:     parseNutrientValue(doc, nutrientCandidates["potassium"]),
		DietaryTags:   parseDietaryTags(doc),
	}

	span.SetAttributes(attribute.String("name", info.Name))
	return info
}

func parseServingSize(doc *goquery.Document) (string, float64) {
	var text string

	for _, selector := range []string{".serving-size", ".servingSize", ".nutrition-facts-serving"} {
		element := doc.Find(selector).First()
		if element.Length() > 0 {
			text = element.Text()
			break
		}
	}
	if text == "" {
		doc.Find("span, td").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if s.Children().Length() == 0 && strings.Contains(s.Text(), "Serving Size") {
				text = s.Text()
				return false
			}
			return true
		})
	}

	text = htmlutil.CleanText(servingSizePrefix.ReplaceAllString(text, ""))

	size := defaultServingSizeOz
	if groups := ozPattern.FindStringSubmatch(text); groups != nil {
		if parsed, err := strconv.ParseFloat(groups[1], 64); err == nil && parsed > 0 {
			size = parsed
		}
	}
	if text == "" {
		text = "1 serving"
	}
	return text, size
}

// parseNutrientValue tries each candidate as a class selector and
// then as a leaf-element text match, returning the first embedded
// number found, or 0 when nothing matches.
func parseNutrientValue(doc *goquery.Document, candidates []string) float64 {
	for _, candidate := range candidates {
		var text string

		if !strings.Contains(candidate, " ") {
			element := doc.Find("." + candidate).First()
			if element.Length() > 0 {
				text = element.Text()
			}
		}
		if text == "" {
			doc.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
				if s.Children().Length() == 0 && strings.Contains(s.Text(), candidate) {
					text = s.Text()
					return false
				}
				return true
			})
		}

		if text == "" {
			continue
		}
		if number, ok := htmlutil.FirstNumber(text); ok {
			value, err := strconv.ParseFloat(number, 64)
			if err == nil {
				return value
			}
		}
	}
	return 0
}

func parseDietaryTags(doc *goquery.Document) []dining.DietaryTag {
	tags := map[dining.DietaryTag]bool{}

	// icon attributes are the primary signal
	doc.Find("img[alt], img[title], .dietary-icon, .allergen-icon").Each(func(_ int, s *goquery.Selection) {
		text := strings.ToLower(fmt.Sprintf(
			"%s %s %s",
			s.AttrOr("alt", ""),
			s.AttrOr("title", ""),
			s.AttrOr("class", ""),
		))
		for keyword, tag := range dining.TagSynonyms {
			if strings.Contains(text, keyword) {
				tags[tag] = true
			}
		}
	})

	// body text only backs up the three diet labels, broad keyword
	// matching against prose produces too many false positives
	pageText := strings.ToLower(doc.Find("body").Text())
	if strings.Contains(pageText, "vegan") && !strings.Contains(pageText, "non-vegan") {
		tags[dining.TagVegan] = true
	}
	if strings.Contains(pageText, "vegetarian") {
		tags[dining.TagVegetarian] = true
	}
	if strings.Contains(pageText, "halal") {
		tags[dining.TagHalal] = true
	}

	// allergen sections may list keywords without icons
	allergenText := strings.ToLower(doc.Find(`.allergens, .contains, [class*="allergen"]`).Text())
	for keyword, tag := range dining.TagSynonyms {
		if strings.HasPrefix(string(tag), "contains-") && strings.Contains(allergenText, keyword) {
			tags[tag] = true
		}
	}

	result := make([]dining.DietaryTag, 0, len(tags))
	for tag := range tags {
		result = append(result, tag)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
