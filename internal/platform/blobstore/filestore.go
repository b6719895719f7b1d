package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore keeps blobs as files under a single directory. Files are written
// to a temporary name and renamed into place, so a reader never observes a
// partially written blob.
type FileStore struct {
	dir     string
	maxSize int64
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string, maxSize int64) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FileStore{dir: dir, maxSize: maxSize}, nil
}

func (s *FileStore) Put(ctx context.Context, fileName string, content io.Reader) (*BlobMetadata, error) {
	data, meta, err := Inspect(fileName, content, s.maxSize)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("sync blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close blob: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, meta.Ref)); err != nil {
		return nil, fmt.Errorf("store blob: %w", err)
	}
	return meta, nil
}

func (s *FileStore) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	if !validRef(ref) {
		return nil, ErrInvalidRef
	}
	f, err := os.Open(filepath.Join(s.dir, ref))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return f, nil
}

func (s *FileStore) Delete(_ context.Context, ref string) error {
	if !validRef(ref) {
		return ErrInvalidRef
	}
	err := os.Remove(filepath.Join(s.dir, ref))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrBlobNotFound
	}
	if err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}
