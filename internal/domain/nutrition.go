package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Unit is the measurement unit of a nutrient amount
type Unit string

const (
	UnitGram      Unit = "g"
	UnitMilligram Unit = "mg"
)

// Nutrient display names, in the order they are rendered
const (
	NutrientProtein       = "Protein"
	NutrientTotalFat      = "Total Fat"
	NutrientSaturatedFat  = "Saturated Fat"
	NutrientCarbohydrates = "Carbohydrates"
	NutrientSugars        = "Sugars"
	NutrientFiber         = "Fiber"
	NutrientCholesterol   = "Cholesterol"
	NutrientSodium        = "Sodium"
	NutrientPotassium     = "Potassium"
)

// NutrientProfile lists every nutrient a resolved record carries with its fixed unit
var NutrientProfile = []struct {
	Name string
	Unit Unit
}{
	{NutrientProtein, UnitGram},
	{NutrientTotalFat, UnitGram},
	{NutrientSaturatedFat, UnitGram},
	{NutrientCarbohydrates, UnitGram},
	{NutrientSugars, UnitGram},
	{NutrientFiber, UnitGram},
	{NutrientCholesterol, UnitMilligram},
	{NutrientSodium, UnitMilligram},
	{NutrientPotassium, UnitMilligram},
}

// NotApplicable marks calories and metadata the source could not provide
const NotApplicable = "N/A"

// NutrientValue is the on-disk form of a nutrient amount, e.g. "25.0 g"
type NutrientValue string

// FormatNutrient renders an amount with one decimal place and its unit
func FormatNutrient(amount float64, unit Unit) NutrientValue {
	return NutrientValue(fmt.Sprintf("%.1f %s", amount, unit))
}

// Nutrient is a single resolved nutrient amount
type Nutrient struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   Unit    `json:"unit"`
}

// Value renders the nutrient in its display form
func (n Nutrient) Value() NutrientValue {
	return FormatNutrient(n.Amount, n.Unit)
}

// Calories holds an energy amount in kcal or the "N/A" sentinel when Valid is false
type Calories struct {
	Kcal  float64
	Valid bool
}

// KnownCalories wraps a kcal amount
func KnownCalories(kcal float64) Calories {
	return Calories{Kcal: kcal, Valid: true}
}

func (c Calories) String() string {
	if !c.Valid {
		return NotApplicable
	}
	return strconv.FormatFloat(c.Kcal, 'f', -1, 64)
}

func (c Calories) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return json.Marshal(NotApplicable)
	}
	return json.Marshal(c.Kcal)
}

func (c *Calories) UnmarshalJSON(data []byte) error {
	var kcal float64
	if err := json.Unmarshal(data, &kcal); err == nil {
		*c = KnownCalories(kcal)
		return nil
	}
	*c = Calories{}
	return nil
}

// Record sources
const (
	SourceNutritionix = "nutritionix"
	SourceFallback    = "fallback"
	SourceCache       = "cache"
)

// NutritionRecord is the resolved nutrient profile of one food at one quantity
type NutritionRecord struct {
	FoodLabel    FoodLabel
	Quantity     float64
	Calories     Calories
	TotalWeight  string
	Nutrients    []Nutrient
	DietLabels   []string
	HealthLabels []string
	MealType     string
	DishType     string
	CuisineType  string
	Source       string
}

// NutrientValues derives the display mapping from nutrient name to formatted value
func (r NutritionRecord) NutrientValues() map[string]NutrientValue {
	values := make(map[string]NutrientValue, len(r.Nutrients))
	for _, n := range r.Nutrients {
		values[n.Name] = n.Value()
	}
	return values
}

type nutritionRecordJSON struct {
	FoodItem     FoodLabel                `json:"food_item"`
	Quantity     float64                  `json:"quantity"`
	Calories     Calories                 `json:"calories"`
	TotalWeight  string                   `json:"total_weight"`
	DietLabels   []string                 `json:"diet_labels"`
	HealthLabels []string                 `json:"health_labels"`
	MealType     string                   `json:"meal_type"`
	DishType     string                   `json:"dish_type"`
	CuisineType  string                   `json:"cuisine_type"`
	Nutrients    map[string]NutrientValue `json:"nutrients"`
	Source       string                   `json:"source"`
}

// MarshalJSON renders the record in the display shape used by clients and tracker entries
func (r NutritionRecord) MarshalJSON() ([]byte, error) {
	out := nutritionRecordJSON{
		FoodItem:     r.FoodLabel,
		Quantity:     r.Quantity,
		Calories:     r.Calories,
		TotalWeight:  r.TotalWeight,
		DietLabels:   nonNil(r.DietLabels),
		HealthLabels: nonNil(r.HealthLabels),
		MealType:     r.MealType,
		DishType:     r.DishType,
		CuisineType:  r.CuisineType,
		Nutrients:    r.NutrientValues(),
		Source:       r.Source,
	}
	return json.Marshal(out)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// NutritionixRequest is the body of a natural-language nutrients query
type NutritionixRequest struct {
	Query    string `json:"query"`
	Timezone string `json:"timezone"`
}

// NutritionixFood is one matched food from the Nutritionix natural nutrients endpoint.
// Pointer fields distinguish absent values from zero.
type NutritionixFood struct {
	FoodName           string   `json:"food_name"`
	ServingWeightGrams *float64 `json:"serving_weight_grams"`
	Calories           *float64 `json:"nf_calories"`
	TotalFat           *float64 `json:"nf_total_fat"`
	SaturatedFat       *float64 `json:"nf_saturated_fat"`
	Cholesterol        *float64 `json:"nf_cholesterol"`
	Sodium             *float64 `json:"nf_sodium"`
	TotalCarbohydrate  *float64 `json:"nf_total_carbohydrate"`
	DietaryFiber       *float64 `json:"nf_dietary_fiber"`
	Sugars             *float64 `json:"nf_sugars"`
	Protein            *float64 `json:"nf_protein"`
	Potassium          *float64 `json:"nf_potassium"`
}

// NutritionixResponse represents the response from the natural nutrients endpoint
type NutritionixResponse struct {
	Foods []NutritionixFood `json:"foods"`
}
