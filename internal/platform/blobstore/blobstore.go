// Package blobstore stores patient photos. Store has an in-memory
// implementation for tests and development and a MinIO/S3 one for
// deployments.
package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

var (
	ErrBlobNotFound       = errors.New("blob not found")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("content type is not allowed")
	ErrMissingKey         = errors.New("blob key is required")
)

// MaxPhotoSize is the maximum accepted photo size in bytes (5 MB).
const MaxPhotoSize = 5 << 20

// AllowedContentTypes lists the image types accepted as patient photos.
var AllowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Object describes a stored blob.
type Object struct {
	Key         string    `json:"key"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store is the contract for blob storage backends.
type Store interface {
	Put(ctx context.Context, key, contentType string, content io.Reader, size int64) (*Object, error)
	Get(ctx context.Context, key string) (io.ReadCloser, *Object, error)
	Delete(ctx context.Context, key string) error
}

// CheckUpload validates the metadata of an upload before any bytes are read.
func CheckUpload(key, contentType string, size int64) error {
	if key == "" {
		return ErrMissingKey
	}
	if !AllowedContentTypes[contentType] {
		return ErrInvalidContentType
	}
	if size > MaxPhotoSize {
		return ErrFileTooLarge
	}
	return nil
}

type storedBlob struct {
	object  Object
	content []byte
}

// MemoryStore is a thread-safe in-memory Store.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]*storedBlob
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]*storedBlob)}
}

// Put stores content under key, replacing any previous blob. size may be -1
// when unknown.
func (s *MemoryStore) Put(_ context.Context, key, contentType string, content io.Reader, size int64) (*Object, error) {
	if err := CheckUpload(key, contentType, size); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(content, MaxPhotoSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > MaxPhotoSize {
		return nil, ErrFileTooLarge
	}

	obj := Object{
		Key:         key,
		ContentType: contentType,
		Size:        int64(len(data)),
		UpdatedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.blobs[key] = &storedBlob{object: obj, content: data}
	s.mu.Unlock()

	return &obj, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (io.ReadCloser, *Object, error) {
	s.mu.RLock()
	blob, ok := s.blobs[key]
	s.mu.RUnlock()

	if !ok {
		return nil, nil, ErrBlobNotFound
	}

	obj := blob.object
	return io.NopCloser(bytes.NewReader(blob.content)), &obj, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[key]; !ok {
		return ErrBlobNotFound
	}
	delete(s.blobs, key)
	return nil
}
