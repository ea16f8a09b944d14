package objectstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/huddleapp/huddle/internal/domain/ragModel"
)

// Store resolves uploaded files by key. The ingestion pipeline only ever
// reads; upload handlers write.
type Store interface {
	Save(ctx context.Context, key string, r io.Reader) error
	// Resolve returns a local filesystem path for the stored object.
	Resolve(key string) (string, error)
	Remove(ctx context.Context, key string) error
}

// DiskStore keeps objects as plain files under a base directory.
type DiskStore struct {
	baseDir string
}

func NewDiskStore(baseDir string) (*DiskStore, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating object store dir: %w", err)
	}
	return &DiskStore{baseDir: baseDir}, nil
}

func (s *DiskStore) Save(_ context.Context, key string, r io.Reader) error {
	f, err := os.Create(s.path(key))
	if err != nil {
		return fmt.Errorf("creating object %q: %w", key, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("writing object %q: %w", key, err)
	}
	return nil
}

func (s *DiskStore) Resolve(key string) (string, error) {
	p := s.path(key)
	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return "", ragModel.ErrNotFound
		}
		return "", err
	}
	return p, nil
}

func (s *DiskStore) Remove(_ context.Context, key string) error {
	return os.Remove(s.path(key))
}

func (s *DiskStore) path(key string) string {
	// Base(key) keeps traversal segments out of the base dir.
	return filepath.Join(s.baseDir, filepath.Base(key))
}
