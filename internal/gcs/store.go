package gcs

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"
)

var ErrBucketRequired = errors.New("bucket is required")

// Store writes blobs as objects in one bucket.
type Store struct {
	Client *storage.Client
	Bucket string
}

func NewStore(client *storage.Client, bucket string) *Store {
	return &Store{Client: client, Bucket: bucket}
}

func (s *Store) Put(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	if s.Client == nil {
		return "", errors.New("storage client is required")
	}
	if s.Bucket == "" {
		return "", ErrBucketRequired
	}
	if objectName == "" {
		return "", errors.New("object name is required")
	}

	writer := s.Client.Bucket(s.Bucket).Object(objectName).NewWriter(ctx)
	if contentType != "" {
		writer.ContentType = contentType
	}

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}
	return objectURL(s.Bucket, objectName), nil
}

func objectURL(bucket, objectName string) string {
	return fmt.Sprintf("gs://%s/%s", bucket, objectName)
}
