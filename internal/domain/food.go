package domain

import "strings"

// FoodLabel is a classification result drawn from a fixed vocabulary
type FoodLabel string

const (
	FoodPizza FoodLabel = "Pizza"
	FoodSteak FoodLabel = "Steak"
)

// SupportedFoods is the classifier vocabulary in model output order
var SupportedFoods = []FoodLabel{FoodPizza, FoodSteak}

// ParseFoodLabel matches a name case-insensitively against the vocabulary
func ParseFoodLabel(name string) (FoodLabel, bool) {
	name = strings.TrimSpace(name)
	for _, label := range SupportedFoods {
		if strings.EqualFold(string(label), name) {
			return label, true
		}
	}
	return "", false
}

func (l FoodLabel) String() string {
	return string(l)
}

// LabelCandidate is one raw label reported by an image classifier
type LabelCandidate struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"` // 0-100
}

// MatchResult represents the vocabulary label chosen from classifier candidates
type MatchResult struct {
	Label         FoodLabel `json:"label"`
	Candidate     string    `json:"candidate"`
	Confidence    float64   `json:"confidence"`
	MatchedTokens []string  `json:"matchedTokens,omitempty"`
}
