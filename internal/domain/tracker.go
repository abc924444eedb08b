package domain

import "time"

// DateLayout is the calendar date format stored on tracker entries
const DateLayout = "2006-01-02"

// DefaultMealType is recorded when an entry does not name one
const DefaultMealType = "lunch"

// TrackerEntry is one persisted diary log of a consumed food item.
// Quantity, Calories and Nutrients are kept exactly as recorded.
type TrackerEntry struct {
	ID        string                   `json:"id"`
	Owner     string                   `json:"username"`
	FoodItem  FoodLabel                `json:"food_item"`
	Quantity  string                   `json:"quantity"`
	Calories  string                   `json:"calories"`
	Nutrients map[string]NutrientValue `json:"nutrients"`
	Date      string                   `json:"date"`
	MealType  string                   `json:"meal_type"`
	ImageRef  string                   `json:"image_ref,omitempty"`
	Timestamp time.Time                `json:"timestamp"`
}

// EntryFilter narrows an owner's entries. Date bounds are inclusive YYYY-MM-DD strings;
// empty bounds are open. Results are ordered by timestamp, newest first.
type EntryFilter struct {
	DateFrom string
	DateTo   string
	Limit    int
}

// Matches reports whether an entry's date falls within the filter bounds
func (f EntryFilter) Matches(e TrackerEntry) bool {
	if f.DateFrom != "" && e.Date < f.DateFrom {
		return false
	}
	if f.DateTo != "" && e.Date > f.DateTo {
		return false
	}
	return true
}

// Bucket is a summary category nutrients are folded into
type Bucket string

const (
	BucketCalories Bucket = "calories"
	BucketProtein  Bucket = "protein"
	BucketCarbs    Bucket = "carbs"
	BucketFat      Bucket = "fat"
	BucketFiber    Bucket = "fiber"
	BucketSugar    Bucket = "sugar"
	BucketSodium   Bucket = "sodium"
	BucketCalcium  Bucket = "calcium"
	BucketIron     Bucket = "iron"
	BucketVitaminC Bucket = "vitamin_c"
	BucketVitaminA Bucket = "vitamin_a"
)

// AllBuckets lists every summary bucket
var AllBuckets = []Bucket{
	BucketCalories, BucketProtein, BucketCarbs, BucketFat, BucketFiber, BucketSugar,
	BucketSodium, BucketCalcium, BucketIron, BucketVitaminC, BucketVitaminA,
}

// AggregationTotals maps every bucket to its running sum
type AggregationTotals map[Bucket]float64

// NewAggregationTotals returns totals with every bucket present and zero
func NewAggregationTotals() AggregationTotals {
	totals := make(AggregationTotals, len(AllBuckets))
	for _, b := range AllBuckets {
		totals[b] = 0
	}
	return totals
}

// NewEntryRequest carries the fields a client submits when logging a food
type NewEntryRequest struct {
	FoodItem  FoodLabel
	Quantity  string
	Calories  string
	Nutrients map[string]NutrientValue
	Date      string
	MealType  string
	ImageData string
	Timestamp time.Time
}

// Dashboard is the tracker overview for one owner
type Dashboard struct {
	Username       string            `json:"username"`
	TodayEntries   []TrackerEntry    `json:"today_entries"`
	MonthlyEntries []TrackerEntry    `json:"monthly_entries"`
	TodayTotals    AggregationTotals `json:"today_totals"`
	MonthlyTotals  AggregationTotals `json:"monthly_totals"`
	RecentEntries  []TrackerEntry    `json:"recent_entries"`
}
