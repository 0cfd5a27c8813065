package services

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// BlobStore is the narrow attachment-storage collaborator: bytes in,
// reference URL out. Message rows of type "media" carry the URL.
type BlobStore interface {
	Put(filename string, data []byte) (string, error)
}

// LocalBlobStore writes attachments to a directory and serves them by
// URL prefix. Stands in for an external object store in development.
type LocalBlobStore struct {
	dir     string
	baseURL string
}

func NewLocalBlobStore(dir, baseURL string) (*LocalBlobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	return &LocalBlobStore{dir: dir, baseURL: baseURL}, nil
}

func (s *LocalBlobStore) Put(filename string, data []byte) (string, error) {
	name := uuid.NewString() + filepath.Ext(filename)
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return s.baseURL + "/" + name, nil
}
