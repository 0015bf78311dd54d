// Package imagestore stores uploaded knee radiographs. It defines the
// Store interface and an in-memory implementation used in development and
// tests; a blob-backed implementation can replace it without touching the
// analysis domain.
package imagestore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("image not found")
	ErrFileTooLarge       = errors.New("image exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("content type is not allowed")
)

// MaxImageSize caps a single radiograph upload (20 MB).
const MaxImageSize = 20 * 1024 * 1024

// AllowedContentTypes lists accepted radiograph formats.
var AllowedContentTypes = map[string]bool{
	"image/png":         true,
	"image/jpeg":        true,
	"image/dicom":       true,
	"application/dicom": true,
}

// Metadata describes a stored radiograph.
type Metadata struct {
	ID          uuid.UUID `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	PatientID   uuid.UUID `json:"patient_id"`
	Hash        string    `json:"hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store is the radiograph storage contract.
type Store interface {
	Put(ctx context.Context, meta Metadata, content io.Reader) (*Metadata, error)
	Get(ctx context.Context, id uuid.UUID) (io.ReadCloser, *Metadata, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type storedImage struct {
	meta    Metadata
	content []byte
}

// MemoryStore keeps images in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	images map[uuid.UUID]*storedImage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{images: make(map[uuid.UUID]*storedImage)}
}

func (s *MemoryStore) Put(_ context.Context, meta Metadata, content io.Reader) (*Metadata, error) {
	if !AllowedContentTypes[meta.ContentType] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidContentType, meta.ContentType)
	}

	data, err := io.ReadAll(io.LimitReader(content, MaxImageSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > MaxImageSize {
		return nil, ErrFileTooLarge
	}

	meta.ID = uuid.New()
	meta.Size = int64(len(data))
	meta.Hash = fmt.Sprintf("%x", sha256.Sum256(data))
	meta.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[meta.ID] = &storedImage{meta: meta, content: data}
	return &meta, nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (io.ReadCloser, *Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[id]
	if !ok {
		return nil, nil, ErrNotFound
	}
	meta := img.meta
	return io.NopCloser(bytes.NewReader(img.content)), &meta, nil
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.images[id]; !ok {
		return ErrNotFound
	}
	delete(s.images, id)
	return nil
}
