package scraper

import (
	"time"

	"nutribruin-backend/services/dining"
)

// menuItemFrom combines a parsed menu entry with its resolved recipe
// into a persistable menu item. The recipe page's name wins over the
// menu link text when both are present. A nil recipe yields nil: the
// item is omitted rather than saved without nutrition.
func menuItemFrom(parsed ParsedMenuItem, recipe *dining.RecipeMaster, restaurant, date string) *dining.MenuItem {
	if recipe == nil {
		return nil
	}

	name := recipe.Name
	if name == "" {
		name = parsed.Name
	}

	return &dining.MenuItem{
		Name:           name,
		ServingSize:    recipe.ServingSize,
		ServingSizeOz:  recipe.ServingSizeOz,
		Restaurant:     restaurant,
		RestaurantType: dining.ClassifyRestaurant(restaurant),
		Category:       parsed.Category,
		Station:        parsed.Station,
		DietaryTags:    recipe.DietaryTags,
		Nutrition: dining.NutritionData{
			Calories:     recipe.Nutrition.Calories,
			Protein:      recipe.Nutrition.Protein,
			TotalFat:     recipe.Nutrition.TotalFat,
			SaturatedFat: recipe.Nutrition.SaturatedFat,
			Cholesterol:  recipe.Nutrition.Cholesterol,
			Sodium:       recipe.Nutrition.Sodium,
			TotalCarbs:   recipe.Nutrition.TotalCarbs,
			DietaryFiber: recipe.Nutrition.DietaryFiber,
			Sugars:       recipe.Nutrition.Sugars,
			Calcium:      recipe.Nutrition.Calcium,
			Iron:         recipe.Nutrition.Iron,
			Potassium:    recipe.Nutrition.Potassium,
		},
		Date:       date,
		MealPeriod: parsed.MealPeriod,
	}
}

func recipeMasterFrom(recipeID string, info *NutritionInfo) dining.RecipeMaster {
	return dining.RecipeMaster{
		RecipeID:      recipeID,
		Name:          info.Name,
		ServingSize:   info.ServingSize,
		ServingSizeOz: info.ServingSizeOz,
		Nutrition: dining.RecipeNutrition{
			Calories:     info.Calories,
			Protein:      info.Protein,
			TotalFat:     info.TotalFat,
			SaturatedFat: info.SaturatedFat,
			TransFat:     info.TransFat,
			Cholesterol:  info.Cholesterol,
			Sodium:       info.Sodium,
			TotalCarbs:   info.TotalCarbs,
			DietaryFiber: info.DietaryFiber,
			Sugars:       info.Sugars,
			AddedSugars:  info.AddedSugars,
			VitaminD:     info.VitaminD,
			Calcium:      info.Calcium,
			Iron:         info.Iron,
			Potassium:    info.Potassium,
		},
		DietaryTags: info.DietaryTags,
		LastUpdated: time.Now(),
	}
}
