package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrFoodNotFound is returned when the nutrition source has no match for a query
	ErrFoodNotFound = errors.New("food not found in nutrition source")

	// ErrNutritionSourceFailure is returned when the nutrition source request fails
	ErrNutritionSourceFailure = errors.New("nutrition source request failed")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrUnparsableNutrient is returned when a nutrient string holds no usable magnitude
	ErrUnparsableNutrient = errors.New("nutrient value is not a number")

	// ErrModelUnavailable is returned when no classifier is configured or it cannot be reached
	ErrModelUnavailable = errors.New("model not available")

	// ErrNoFoodDetected is returned when the classifier finds nothing in the supported vocabulary
	ErrNoFoodDetected = errors.New("no supported food detected in image")

	// ErrInvalidImage is returned when an uploaded image cannot be decoded
	ErrInvalidImage = errors.New("invalid image data")

	// ErrEntryNotFound is returned when a tracker entry does not exist for the owner
	ErrEntryNotFound = errors.New("tracker entry not found")

	// ErrUnauthorized is returned when the caller identity cannot be established
	ErrUnauthorized = errors.New("unauthorized")
)
