// Package blobstore keeps uploaded document bytes out of the database. The
// relational store only records the opaque reference returned by Put.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrBlobNotFound       = errors.New("blob not found")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("content type is not allowed")
	ErrMissingFileName    = errors.New("file name is required")
	ErrEmptyFile          = errors.New("file is empty")
	ErrInvalidRef         = errors.New("invalid blob reference")
)

// DefaultMaxFileSize is used when a store is built with a non-positive limit.
const DefaultMaxFileSize = 16 << 20

// AllowedContentTypes lists the document formats accepted for prescriptions
// and reports. The type is sniffed from content, never taken from the client.
var AllowedContentTypes = map[string]bool{
	"image/png":       true,
	"image/jpeg":      true,
	"application/pdf": true,
}

// BlobMetadata describes a stored blob.
type BlobMetadata struct {
	Ref         string    `json:"ref"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Hash        string    `json:"sha256"`
	CreatedAt   time.Time `json:"created_at"`
}

// BlobStore defines the contract for blob storage backends.
type BlobStore interface {
	Put(ctx context.Context, fileName string, content io.Reader) (*BlobMetadata, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	Delete(ctx context.Context, ref string) error
}

// Inspect reads content (at most maxSize bytes), sniffs its type and hashes
// it. It is shared by every backend so validation cannot drift between them.
func Inspect(fileName string, content io.Reader, maxSize int64) ([]byte, *BlobMetadata, error) {
	name := SanitizeFileName(fileName)
	if name == "" {
		return nil, nil, ErrMissingFileName
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	data, err := io.ReadAll(io.LimitReader(content, maxSize+1))
	if err != nil {
		return nil, nil, fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, nil, ErrFileTooLarge
	}
	if len(data) == 0 {
		return nil, nil, ErrEmptyFile
	}

	mt := mimetype.Detect(data)
	contentType := ""
	for m := mt; m != nil; m = m.Parent() {
		if AllowedContentTypes[m.String()] {
			contentType = m.String()
			break
		}
	}
	if contentType == "" {
		return nil, nil, fmt.Errorf("%w: %s", ErrInvalidContentType, mt.String())
	}

	sum := sha256.Sum256(data)
	return data, &BlobMetadata{
		Ref:         uuid.NewString() + mt.Extension(),
		FileName:    name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Hash:        hex.EncodeToString(sum[:]),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// SanitizeFileName strips any directory part and control characters from a
// client-supplied name.
func SanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "." || name == "/" {
		return ""
	}
	if len(name) > 255 {
		name = name[:255]
	}
	return name
}

// validRef rejects anything that could escape the store's namespace.
func validRef(ref string) bool {
	return ref != "" && ref != "." && ref != ".." &&
		!strings.ContainsAny(ref, `/\`) && filepath.Base(ref) == ref
}

// InMemoryBlobStore is a thread-safe, in-memory BlobStore for tests and
// development.
type InMemoryBlobStore struct {
	mu      sync.RWMutex
	blobs   map[string][]byte
	maxSize int64
}

// NewInMemoryBlobStore returns a ready-to-use InMemoryBlobStore.
func NewInMemoryBlobStore(maxSize int64) *InMemoryBlobStore {
	return &InMemoryBlobStore{
		blobs:   make(map[string][]byte),
		maxSize: maxSize,
	}
}

func (s *InMemoryBlobStore) Put(_ context.Context, fileName string, content io.Reader) (*BlobMetadata, error) {
	data, meta, err := Inspect(fileName, content, s.maxSize)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.blobs[meta.Ref] = data
	s.mu.Unlock()

	return meta, nil
}

func (s *InMemoryBlobStore) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	s.mu.RLock()
	data, ok := s.blobs[ref]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *InMemoryBlobStore) Delete(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[ref]; !ok {
		return ErrBlobNotFound
	}
	delete(s.blobs, ref)
	return nil
}

// Len returns the number of stored blobs.
func (s *InMemoryBlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
