package usecase

import (
	"math"

	"github.com/nutrisnap/backend/internal/domain"
)

// foodProfile is a hand-authored per-100g nutrient profile
type foodProfile struct {
	kcal         float64
	nutrients    map[string]float64
	dietLabels   []string
	healthLabels []string
	mealType     string
	dishType     string
	cuisineType  string
}

// fallbackProfiles are stable constants; they are never refreshed at runtime.
var fallbackProfiles = map[domain.FoodLabel]foodProfile{
	domain.FoodSteak: {
		kcal: 271,
		nutrients: map[string]float64{
			domain.NutrientProtein:       25,
			domain.NutrientTotalFat:      19,
			domain.NutrientSaturatedFat:  8,
			domain.NutrientCarbohydrates: 0,
			domain.NutrientSugars:        0,
			domain.NutrientFiber:         0,
			domain.NutrientCholesterol:   85,
			domain.NutrientSodium:        65,
			domain.NutrientPotassium:     350,
		},
		dietLabels:   []string{"HIGH_PROTEIN", "LOW_CARB"},
		healthLabels: []string{"SUGAR_CONSCIOUS", "KETO_FRIENDLY"},
		mealType:     "lunch/dinner",
		dishType:     "main course",
		cuisineType:  "american",
	},
	domain.FoodPizza: {
		kcal: 285,
		nutrients: map[string]float64{
			domain.NutrientProtein:       12,
			domain.NutrientTotalFat:      10,
			domain.NutrientSaturatedFat:  4,
			domain.NutrientCarbohydrates: 36,
			domain.NutrientSugars:        3,
			domain.NutrientFiber:         2,
			domain.NutrientCholesterol:   18,
			domain.NutrientSodium:        640,
			domain.NutrientPotassium:     180,
		},
		dietLabels:   []string{"BALANCED"},
		healthLabels: []string{"VEGETARIAN"},
		mealType:     "lunch/dinner",
		dishType:     "main course",
		cuisineType:  "italian",
	},
}

// FallbackNutrition builds a record from the local table, scaled to quantity grams.
// Labels without a profile yield "N/A" calories and no nutrients.
func FallbackNutrition(label domain.FoodLabel, quantity float64, displayQuantity string) domain.NutritionRecord {
	record := domain.NutritionRecord{
		FoodLabel:    label,
		Quantity:     quantity,
		TotalWeight:  displayQuantity + "g",
		Nutrients:    []domain.Nutrient{},
		DietLabels:   []string{},
		HealthLabels: []string{},
		MealType:     domain.NotApplicable,
		DishType:     domain.NotApplicable,
		CuisineType:  domain.NotApplicable,
		Source:       domain.SourceFallback,
	}

	profile, ok := fallbackProfiles[label]
	if !ok {
		return record
	}

	scale := quantity / 100.0

	// Calories are truncated to whole kcal.
	record.Calories = domain.KnownCalories(math.Trunc(profile.kcal * scale))
	record.Nutrients = make([]domain.Nutrient, 0, len(domain.NutrientProfile))
	for _, p := range domain.NutrientProfile {
		record.Nutrients = append(record.Nutrients, domain.Nutrient{
			Name:   p.Name,
			Amount: profile.nutrients[p.Name] * scale,
			Unit:   p.Unit,
		})
	}
	record.DietLabels = append([]string(nil), profile.dietLabels...)
	record.HealthLabels = append([]string(nil), profile.healthLabels...)
	record.MealType = profile.mealType
	record.DishType = profile.dishType
	record.CuisineType = profile.cuisineType

	return record
}
