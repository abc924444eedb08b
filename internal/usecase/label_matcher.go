package usecase

import (
	"context"
	"log"
	"regexp"
	"strings"

	"github.com/nutrisnap/backend/internal/domain"
)

// Package-level compiled regex pattern for performance
var punctuationRegex = regexp.MustCompile(`[^\w\s]`)

// labelAliases lists classifier terms that identify each vocabulary food
var labelAliases = map[domain.FoodLabel][]string{
	domain.FoodPizza: {"pizza", "calzone", "margherita", "pepperoni"},
	domain.FoodSteak: {"steak", "sirloin", "ribeye", "tenderloin", "filet", "beefsteak"},
}

// genericFoodTerms never identify a vocabulary label on their own
var genericFoodTerms = map[string]bool{
	"food": true, "dish": true, "meal": true, "cuisine": true, "plate": true,
	"lunch": true, "dinner": true, "produce": true, "fast": true, "snack": true,
	"the": true, "and": true, "of": true, "with": true,
}

// MatchConfig holds configuration for the label matcher
type MatchConfig struct {
	MinConfidence       float64
	EnableFuzzyMatching bool
	FuzzyEditDistance   int
	EnableDebugLogging  bool
}

// LabelMatcher maps free-form classifier labels onto the food vocabulary
type LabelMatcher struct {
	minConfidence       float64
	enableFuzzyMatching bool
	fuzzyEditDistance   int
	enableDebugLogging  bool
}

// NewLabelMatcher creates a new label matcher with the given configuration
func NewLabelMatcher(config MatchConfig) *LabelMatcher {
	threshold := config.MinConfidence
	if threshold <= 0 {
		threshold = 60.0
	}

	fuzzyDist := config.FuzzyEditDistance
	if fuzzyDist <= 0 {
		fuzzyDist = 1
	}

	return &LabelMatcher{
		minConfidence:       threshold,
		enableFuzzyMatching: config.EnableFuzzyMatching,
		fuzzyEditDistance:   fuzzyDist,
		enableDebugLogging:  config.EnableDebugLogging,
	}
}

// BestMatch picks the highest-confidence candidate that names a vocabulary food.
// Candidates below the confidence threshold are ignored.
func (m *LabelMatcher) BestMatch(ctx context.Context, candidates []domain.LabelCandidate) (*domain.MatchResult, error) {
	var best *domain.MatchResult

	for _, candidate := range candidates {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if candidate.Confidence < m.minConfidence {
			continue
		}

		label, matched, ok := m.matchCandidate(candidate.Name)
		if m.enableDebugLogging {
			log.Printf("[MATCH] Candidate: %q | Confidence: %.1f | Label: %q | Matched: %v",
				candidate.Name, candidate.Confidence, label, matched)
		}
		if !ok {
			continue
		}

		if best == nil || candidate.Confidence > best.Confidence {
			best = &domain.MatchResult{
				Label:         label,
				Candidate:     candidate.Name,
				Confidence:    candidate.Confidence,
				MatchedTokens: matched,
			}
		}
	}

	if best == nil {
		return nil, domain.ErrNoFoodDetected
	}
	return best, nil
}

// matchCandidate finds the vocabulary label whose aliases appear in the candidate name
func (m *LabelMatcher) matchCandidate(name string) (domain.FoodLabel, []string, bool) {
	tokens := tokenize(name)
	if len(tokens) == 0 {
		return "", nil, false
	}

	for _, label := range domain.SupportedFoods {
		var matched []string
		for _, token := range tokens {
			for _, alias := range labelAliases[label] {
				if token == alias || (m.enableFuzzyMatching && fuzzyTokenMatch(token, alias, m.fuzzyEditDistance)) {
					matched = append(matched, token)
					break
				}
			}
		}
		if len(matched) > 0 {
			return label, matched, true
		}
	}
	return "", nil, false
}

// tokenize splits a string into normalized lowercase tokens, dropping generic food terms
func tokenize(s string) []string {
	cleaned := punctuationRegex.ReplaceAllString(strings.ToLower(s), " ")

	var tokens []string
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 1 || genericFoodTerms[word] {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// fuzzyTokenMatch checks if two tokens are similar within the edit distance threshold
func fuzzyTokenMatch(token1, token2 string, threshold int) bool {
	if token1 == token2 {
		return true
	}

	// Only apply fuzzy matching to tokens > 4 chars to avoid false positives
	if len(token1) < 4 || len(token2) < 4 {
		return false
	}

	lenDiff := len(token1) - len(token2)
	if lenDiff < 0 {
		lenDiff = -lenDiff
	}
	if lenDiff > threshold {
		return false
	}

	return levenshteinDistance(token1, token2) <= threshold
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	n := len(r2)

	// Two rows instead of the full matrix
	prev := make([]int, n+1)
	curr := make([]int, n+1)
	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}
