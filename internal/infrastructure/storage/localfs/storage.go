package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Storage keeps small private state files under one directory.
// Directories are created 0700 and files 0600.
type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./.resumind"
	}
	if err := os.MkdirAll(basePath, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &Storage{basePath: basePath}, nil
}

func (s *Storage) Path(key string) string {
	return filepath.Join(s.basePath, filepath.Base(key))
}

// Save replaces key atomically through a temporary file in the same directory.
func (s *Storage) Save(_ context.Context, key string, data io.Reader) error {
	path := s.Path(key)
	f, err := os.CreateTemp(s.basePath, "."+filepath.Base(key)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if err := f.Chmod(0o600); err != nil {
		f.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := io.Copy(f, data); err != nil {
		f.Close()
		return fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace file: %w", err)
	}
	return nil
}

// Open returns fs.ErrNotExist (wrapped) when key was never saved.
func (s *Storage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(s.Path(key))
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

// Remove succeeds when key is already absent.
func (s *Storage) Remove(_ context.Context, key string) error {
	if err := os.Remove(s.Path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}
