package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DataURI is a decoded "data:<mime>;base64,<payload>" image
type DataURI struct {
	ContentType string
	Data        []byte
}

// ParseDataURI decodes a base64 data URI as produced by browser cameras and canvases
func ParseDataURI(uri string) (*DataURI, error) {
	meta, payload, ok := strings.Cut(strings.TrimSpace(uri), ",")
	if !ok || !strings.HasPrefix(meta, "data:") || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("%w: not a base64 data URI", ErrInvalidImage)
	}

	contentType := strings.TrimSuffix(strings.TrimPrefix(meta, "data:"), ";base64")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: unsupported content type %q", ErrInvalidImage, contentType)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}

	return &DataURI{ContentType: contentType, Data: data}, nil
}

// String re-encodes the image as a data URI
func (d DataURI) String() string {
	return "data:" + d.ContentType + ";base64," + base64.StdEncoding.EncodeToString(d.Data)
}
