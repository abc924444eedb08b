package rekognition

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/nutrisnap/backend/internal/domain"
)

const (
	DefaultMaxLabels     = 10
	DefaultMinConfidence = 60
)

// DetectLabelsAPI is the subset of the Rekognition client used by the detector
type DetectLabelsAPI interface {
	DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// Detector reports the labels AWS Rekognition finds in an image
type Detector struct {
	client        DetectLabelsAPI
	maxLabels     int32
	minConfidence float32
}

var _ domain.LabelDetector = (*Detector)(nil)

// NewDetector creates a detector. Non-positive limits fall back to the defaults.
func NewDetector(client DetectLabelsAPI, maxLabels int, minConfidence float64) *Detector {
	if maxLabels <= 0 {
		maxLabels = DefaultMaxLabels
	}
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	return &Detector{
		client:        client,
		maxLabels:     int32(maxLabels),
		minConfidence: float32(minConfidence),
	}
}

// DetectLabels returns every named label as a candidate. Generic labels such as
// "Food" are passed through; the matcher discards them.
func (d *Detector) DetectLabels(ctx context.Context, image []byte) ([]domain.LabelCandidate, error) {
	out, err := d.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: image},
		MaxLabels:     aws.Int32(d.maxLabels),
		MinConfidence: aws.Float32(d.minConfidence),
	})
	if err != nil {
		return nil, fmt.Errorf("rekognition detect labels: %w", err)
	}

	candidates := make([]domain.LabelCandidate, 0, len(out.Labels))
	for _, l := range out.Labels {
		name := aws.ToString(l.Name)
		if name == "" {
			continue
		}
		candidates = append(candidates, domain.LabelCandidate{
			Name:       name,
			Confidence: float64(aws.ToFloat32(l.Confidence)),
		})
	}
	return candidates, nil
}
