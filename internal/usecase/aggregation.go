package usecase

import (
	"math"
	"strconv"
	"strings"

	"github.com/nutrisnap/backend/internal/domain"
)

// Aggregate folds tracker entries into per-bucket totals. Calories or nutrient
// values that do not parse to a finite number are skipped; they never abort the fold.
func Aggregate(entries []domain.TrackerEntry) domain.AggregationTotals {
	totals := domain.NewAggregationTotals()

	for _, entry := range entries {
		if kcal, err := strconv.ParseFloat(strings.TrimSpace(entry.Calories), 64); err == nil && finite(kcal) {
			totals[domain.BucketCalories] += kcal
		}

		for name, value := range entry.Nutrients {
			bucket, ok := Categorize(name)
			if !ok {
				continue
			}
			magnitude, err := ParseMagnitude(string(value))
			if err != nil || !finite(magnitude) {
				continue
			}
			totals[bucket] += magnitude
		}
	}

	return totals
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
