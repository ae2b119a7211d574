package sink

import (
	"context"
	"errors"
	"strings"
)

// Sink stores a named blob and returns where it ended up.
type Sink interface {
	Put(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
}

var ErrInvalidDestination = errors.New("invalid destination")

const gcsScheme = "gs://"

// Destination is a parsed persist target: either a GCS object or a local path.
type Destination struct {
	Bucket string
	Object string
	Path   string
}

func (d Destination) IsGCS() bool {
	return d.Bucket != ""
}

// ParseDestination accepts "gs://bucket/object" or a filesystem path.
func ParseDestination(raw string) (Destination, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Destination{}, ErrInvalidDestination
	}
	if !strings.HasPrefix(raw, gcsScheme) {
		return Destination{Path: raw}, nil
	}
	bucket, object, ok := strings.Cut(strings.TrimPrefix(raw, gcsScheme), "/")
	if !ok || bucket == "" || object == "" {
		return Destination{}, ErrInvalidDestination
	}
	return Destination{Bucket: bucket, Object: object}, nil
}
