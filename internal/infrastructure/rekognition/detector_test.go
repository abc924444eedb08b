package rekognition

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrisnap/backend/internal/domain"
)

type mockRekognition struct {
	input  *rekognition.DetectLabelsInput
	labels []types.Label
	err    error
}

func (m *mockRekognition) DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error) {
	m.input = params
	if m.err != nil {
		return nil, m.err
	}
	return &rekognition.DetectLabelsOutput{Labels: m.labels}, nil
}

func TestDetector_DetectLabels(t *testing.T) {
	client := &mockRekognition{
		labels: []types.Label{
			{Name: aws.String("Food"), Confidence: aws.Float32(99.5)},
			{Name: aws.String("Pizza"), Confidence: aws.Float32(97.25)},
			{Name: nil, Confidence: aws.Float32(90)},
		},
	}
	detector := NewDetector(client, 0, 0)

	got, err := detector.DetectLabels(context.Background(), []byte("img"))
	require.NoError(t, err)

	assert.Equal(t, []domain.LabelCandidate{
		{Name: "Food", Confidence: 99.5},
		{Name: "Pizza", Confidence: 97.25},
	}, got)
	assert.Equal(t, []byte("img"), client.input.Image.Bytes)
	assert.Equal(t, int32(DefaultMaxLabels), aws.ToInt32(client.input.MaxLabels))
	assert.Equal(t, float32(DefaultMinConfidence), aws.ToFloat32(client.input.MinConfidence))
}

func TestDetector_DetectLabels_Error(t *testing.T) {
	detector := NewDetector(&mockRekognition{err: errors.New("throttled")}, 5, 75)

	_, err := detector.DetectLabels(context.Background(), []byte("img"))
	assert.ErrorContains(t, err, "throttled")
}
