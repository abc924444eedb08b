package http

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Food names: letters, digits, spaces and a little punctuation, e.g. "Pizza" or "T-bone steak"
var foodLabelPattern = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} '\-]{0,63}$`)

// RegisterValidators adds the custom binding tags used by request structs.
// It is safe to call more than once.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("foodlabel", validateFoodLabel)
}

// validateFoodLabel accepts any plausible food name. Membership in the classifier
// vocabulary is not required; unknown foods resolve to "N/A" records.
func validateFoodLabel(fl validator.FieldLevel) bool {
	return foodLabelPattern.MatchString(strings.TrimSpace(fl.Field().String()))
}
