// Package storage is the flat-directory file store behind uploads. Files are
// keyed by bare name; a repeated name overwrites the previous content.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileStore writes uploaded bytes under one directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed and returns the store.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory files are stored under.
func (s *FileStore) Dir() string {
	return s.dir
}

// Save writes data under filename, replacing any existing file. The name is
// reduced to its base so a crafted path cannot escape the directory.
func (s *FileStore) Save(filename string, data []byte) error {
	path := filepath.Join(s.dir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(filename), err)
	}
	return nil
}
