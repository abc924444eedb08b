package usecase

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/nutrisnap/backend/internal/domain"
)

// DefaultQuantityGrams is used when the submitted quantity is absent or unusable
const DefaultQuantityGrams = 100.0

// Matches a number optionally followed by a gram unit, e.g. "200", "150.5 g", "80 grams"
var quantityPattern = regexp.MustCompile(`(?i)^(\d+(?:\.\d*)?|\.\d+)\s*(?:g|grams?)?$`)

// Quantity is a coerced gram amount along with the text shown to the user.
// Raw keeps the trimmed input as submitted.
type Quantity struct {
	Grams     float64
	Display   string
	Raw       string
	Defaulted bool
}

// FallbackDisplay is the quantity text used for fallback serving weights. Input
// that could not be coerced is echoed back as submitted; blank input reads as 100.
func (q Quantity) FallbackDisplay() string {
	if q.Defaulted && q.Raw != "" {
		return q.Raw
	}
	return q.Display
}

// CoerceQuantity converts free-text user input into grams. Empty, unparsable,
// negative or non-finite input falls back to 100 g.
func CoerceQuantity(raw string) Quantity {
	raw = strings.TrimSpace(raw)

	m := quantityPattern.FindStringSubmatch(raw)
	if m == nil {
		return defaultQuantity(raw)
	}

	grams, err := strconv.ParseFloat(m[1], 64)
	if err != nil || math.IsNaN(grams) || math.IsInf(grams, 0) || grams < 0 {
		return defaultQuantity(raw)
	}

	return Quantity{Grams: grams, Display: m[1], Raw: raw}
}

func defaultQuantity(raw string) Quantity {
	return Quantity{
		Grams:     DefaultQuantityGrams,
		Display:   strconv.FormatFloat(DefaultQuantityGrams, 'f', -1, 64),
		Raw:       raw,
		Defaulted: true,
	}
}

// BuildNutritionQuery builds the natural-language query sent to the nutrition source,
// e.g. "200g Steak"
func BuildNutritionQuery(q Quantity, label domain.FoodLabel) string {
	return fmt.Sprintf("%sg %s", q.Display, label)
}

// resolutionCacheKey creates a normalized cache key for a (label, quantity) pair.
// Format: "nutrition:{label}:{grams}"
func resolutionCacheKey(label domain.FoodLabel, q Quantity) string {
	return fmt.Sprintf("nutrition:%s:%s",
		strings.ToLower(strings.TrimSpace(string(label))),
		strconv.FormatFloat(q.Grams, 'f', -1, 64))
}
