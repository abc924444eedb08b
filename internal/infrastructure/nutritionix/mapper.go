package nutritionix

import (
	"strconv"

	"github.com/nutrisnap/backend/internal/domain"
)

// MapToNutritionRecord converts a Nutritionix food into a nutrition record.
// Fields missing from the response count as zero. Nutritionix does not classify
// meal, dish or cuisine type, so those are left as "N/A".
func MapToNutritionRecord(food *domain.NutritionixFood, label domain.FoodLabel, grams float64, displayQuantity string) domain.NutritionRecord {
	weight := displayQuantity
	if food.ServingWeightGrams != nil {
		weight = strconv.FormatFloat(*food.ServingWeightGrams, 'f', -1, 64)
	}

	amounts := map[string]*float64{
		domain.NutrientProtein:       food.Protein,
		domain.NutrientTotalFat:      food.TotalFat,
		domain.NutrientSaturatedFat:  food.SaturatedFat,
		domain.NutrientCarbohydrates: food.TotalCarbohydrate,
		domain.NutrientSugars:        food.Sugars,
		domain.NutrientFiber:         food.DietaryFiber,
		domain.NutrientCholesterol:   food.Cholesterol,
		domain.NutrientSodium:        food.Sodium,
		domain.NutrientPotassium:     food.Potassium,
	}

	nutrients := make([]domain.Nutrient, 0, len(domain.NutrientProfile))
	for _, p := range domain.NutrientProfile {
		nutrients = append(nutrients, domain.Nutrient{
			Name:   p.Name,
			Amount: valueOrZero(amounts[p.Name]),
			Unit:   p.Unit,
		})
	}

	return domain.NutritionRecord{
		FoodLabel:    label,
		Quantity:     grams,
		Calories:     domain.KnownCalories(valueOrZero(food.Calories)),
		TotalWeight:  weight + "g",
		Nutrients:    nutrients,
		DietLabels:   []string{},
		HealthLabels: []string{},
		MealType:     domain.NotApplicable,
		DishType:     domain.NotApplicable,
		CuisineType:  domain.NotApplicable,
		Source:       domain.SourceNutritionix,
	}
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
