package usecase

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/nutrisnap/backend/internal/domain"
)

// ClassificationService classifies food images into the fixed vocabulary.
// It is built once at startup and shared by request handlers.
type ClassificationService struct {
	detector domain.LabelDetector
	matcher  *LabelMatcher
}

var _ domain.Classifier = (*ClassificationService)(nil)

// NewClassificationService creates a classifier. A nil detector yields a service that
// reports the model as unavailable.
func NewClassificationService(detector domain.LabelDetector, matcher *LabelMatcher) *ClassificationService {
	if matcher == nil {
		matcher = NewLabelMatcher(MatchConfig{})
	}
	return &ClassificationService{
		detector: detector,
		matcher:  matcher,
	}
}

// Available reports whether a detector is configured
func (s *ClassificationService) Available() bool {
	return s != nil && s.detector != nil
}

// Classify returns the vocabulary label for an image
func (s *ClassificationService) Classify(ctx context.Context, image []byte) (domain.FoodLabel, error) {
	if !s.Available() {
		return "", domain.ErrModelUnavailable
	}

	if len(image) == 0 {
		return "", fmt.Errorf("%w: empty image", domain.ErrInvalidImage)
	}
	if contentType := http.DetectContentType(image); !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("%w: detected %s", domain.ErrInvalidImage, contentType)
	}

	candidates, err := s.detector.DetectLabels(ctx, image)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	}

	match, err := s.matcher.BestMatch(ctx, candidates)
	if err != nil {
		return "", err
	}

	log.Printf("[Classifier] Predicted %s from %q (%.1f%%)", match.Label, match.Candidate, match.Confidence)
	return match.Label, nil
}
