package s3

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/nutrisnap/backend/internal/domain"
)

// KeyPrefix is the folder tracker images are written under
const KeyPrefix = "tracker-images"

// PutObjectAPI is the subset of the S3 client used by the image store
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ImageStore uploads base64 data-URI images to an S3 bucket and returns public URLs
type ImageStore struct {
	client    PutObjectAPI
	bucket    string
	publicURL string
}

var _ domain.ImageStore = (*ImageStore)(nil)

// NewImageStore creates an image store. publicURL is the CDN or bucket URL objects are
// served from; when empty the virtual-hosted bucket URL for region is used.
func NewImageStore(client PutObjectAPI, bucket, region, publicURL string) *ImageStore {
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &ImageStore{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}
}

// Upload decodes dataURI, writes it under the owner's folder and returns its URL
func (s *ImageStore) Upload(ctx context.Context, owner, dataURI string) (string, error) {
	img, err := domain.ParseDataURI(dataURI)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/%s/%s%s", KeyPrefix, owner, uuid.NewString(), extensionFor(img.ContentType))

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(img.Data),
		ContentType: aws.String(img.ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return fmt.Sprintf("%s/%s", s.publicURL, key), nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	}
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		return exts[0]
	}
	if _, sub, ok := strings.Cut(contentType, "/"); ok {
		return "." + sub
	}
	return ""
}
