package domain

import (
	"context"
	"time"
)

// NutritionCache defines the interface for caching resolved nutrition records
type NutritionCache interface {
	Get(ctx context.Context, key string) (*NutritionRecord, error)
	Set(ctx context.Context, key string, record *NutritionRecord, ttl time.Duration) error
}

// NutritionSource defines the interface for the external nutrition database
type NutritionSource interface {
	// NaturalNutrients returns the first food matched by a natural-language query
	NaturalNutrients(ctx context.Context, query string) (*NutritionixFood, error)
}

// TrackerRepository defines the keyed document store holding tracker entries.
// Every operation is scoped to a single owner.
type TrackerRepository interface {
	Insert(ctx context.Context, entry *TrackerEntry) error
	Find(ctx context.Context, owner string, filter EntryFilter) ([]TrackerEntry, error)
	Delete(ctx context.Context, owner, id string) error
}

// Classifier maps a decoded image to a label from the food vocabulary
type Classifier interface {
	Classify(ctx context.Context, image []byte) (FoodLabel, error)
}

// LabelDetector reports free-form labels found in an image, e.g. AWS Rekognition
type LabelDetector interface {
	DetectLabels(ctx context.Context, image []byte) ([]LabelCandidate, error)
}

// ImageStore persists an uploaded image and returns a reference to it
type ImageStore interface {
	Upload(ctx context.Context, owner, dataURI string) (string, error)
}
