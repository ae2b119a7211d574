package localstore

import (
	"context"
	"errors"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Store writes blobs under Dir, overwriting existing files.
type Store struct {
	Dir string
}

func NewStore(dir string) *Store {
	if dir == "" {
		dir = "."
	}
	return &Store{Dir: dir}
}

// Put writes data to Dir/objectName and returns the written path. The name
// may come from a server response, so it must stay inside Dir.
func (s *Store) Put(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	_ = contentType

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.Dir == "" {
		return "", errors.New("local storage dir is required")
	}
	if objectName == "" {
		return "", errors.New("object name is required")
	}

	clean, err := sanitizeObjectName(objectName)
	if err != nil {
		return "", err
	}

	fullPath := filepath.Join(s.Dir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", err
	}
	return fullPath, nil
}

func sanitizeObjectName(objectName string) (string, error) {
	objectName = filepath.ToSlash(objectName)
	if strings.Contains(objectName, "..") {
		return "", errors.New("invalid object name")
	}
	clean := path.Clean("/" + objectName)
	clean = strings.TrimPrefix(clean, "/")
	if clean == "" || clean == "." {
		return "", errors.New("invalid object name")
	}
	return clean, nil
}
