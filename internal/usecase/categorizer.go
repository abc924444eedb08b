package usecase

import (
	"strings"

	"github.com/nutrisnap/backend/internal/domain"
)

// bucketRule maps a nutrient name substring to a bucket. A name containing any of
// the exclusions skips the rule.
type bucketRule struct {
	substring string
	exclude   []string
	bucket    domain.Bucket
}

// Evaluated in order; the first matching rule wins.
var bucketRules = []bucketRule{
	{substring: "protein", bucket: domain.BucketProtein},
	{substring: "carb", bucket: domain.BucketCarbs},
	{substring: "fat", exclude: []string{"saturated"}, bucket: domain.BucketFat},
	{substring: "fiber", bucket: domain.BucketFiber},
	{substring: "sugar", bucket: domain.BucketSugar},
	{substring: "sodium", bucket: domain.BucketSodium},
	{substring: "calcium", bucket: domain.BucketCalcium},
	{substring: "iron", bucket: domain.BucketIron},
	{substring: "vitamin c", bucket: domain.BucketVitaminC},
	{substring: "vitamin a", bucket: domain.BucketVitaminA},
}

// Categorize returns the summary bucket a nutrient display name contributes to.
// Names outside the bucket vocabulary, such as "Cholesterol", report false.
func Categorize(name string) (domain.Bucket, bool) {
	lower := strings.ToLower(name)

rules:
	for _, rule := range bucketRules {
		if !strings.Contains(lower, rule.substring) {
			continue
		}
		for _, ex := range rule.exclude {
			if strings.Contains(lower, ex) {
				continue rules
			}
		}
		return rule.bucket, true
	}
	return "", false
}
