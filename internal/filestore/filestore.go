// Package filestore keeps uploaded images on the local filesystem under a
// configured media directory, addressed by relative path.
package filestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Store reads and writes files below a single root directory. Paths passed
// to its methods are relative to that root.
type Store struct {
	root string
}

// New creates the root directory if needed and returns the store.
func New(root string) (*Store, error) {
	const op = "filestore.New"
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Store{root: root}, nil
}

// Save writes data under dir/name inside the root and returns the relative
// path it was stored at.
func (s *Store) Save(dir, name string, data []byte) (string, error) {
	const op = "filestore.Save"
	rel := filepath.Join(dir, name)
	full := filepath.Join(s.root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return rel, nil
}

// Read returns the contents of the file at the relative path.
func (s *Store) Read(rel string) ([]byte, error) {
	const op = "filestore.Read"
	data, err := os.ReadFile(filepath.Join(s.root, rel))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return data, nil
}

// Delete removes the file at the relative path. A file that is already
// gone is not an error: deleting a service must not fail because one of
// its images disappeared from disk.
func (s *Store) Delete(rel string) error {
	const op = "filestore.Delete"
	err := os.Remove(filepath.Join(s.root, rel))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
