package usecase

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nutrisnap/backend/internal/domain"
)

// ParseMagnitude extracts the decimal magnitude from a loosely formatted nutrient
// string such as "25.0 g". Only ASCII digits and the decimal point are kept, so a
// leading minus sign is dropped.
func ParseMagnitude(value string) (float64, error) {
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		c := value[i]
		if (c >= '0' && c <= '9') || c == '.' {
			b.WriteByte(c)
		}
	}

	digits := b.String()
	if digits == "" {
		return 0, fmt.Errorf("%w: %q", domain.ErrUnparsableNutrient, value)
	}

	magnitude, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrUnparsableNutrient, value)
	}
	return magnitude, nil
}
