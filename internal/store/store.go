// Package store provides the device-local persisted snippet store:
// a single versioned file holding one JSON array of snippet records.
package store

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// snippetsFile is the versioned storage key. Bump the suffix when the
// persisted layout changes incompatibly.
const snippetsFile = "snippets_v1.json"

// Store is the local persisted collection. Read reports absence
// separately from failure so a fresh install is not an error.
type Store interface {
	Read() (data []byte, found bool, err error)
	Write(data []byte) error
}

// FileStore persists the collection under a base directory.
type FileStore struct {
	path string
}

// NewFileStore creates a store rooted at baseDir. The directory is
// created on first write, not here.
func NewFileStore(baseDir string) *FileStore {
	return &FileStore{path: filepath.Join(baseDir, snippetsFile)}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Read returns the stored bytes, or found=false if nothing has been
// written yet.
func (s *FileStore) Read() ([]byte, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read snippet store: %w", err)
	}
	return data, true, nil
}

// Write replaces the stored bytes. The write goes to a temp file first
// and is renamed into place so a crash mid-write preserves the
// previous contents.
func (s *FileStore) Write(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return fmt.Errorf("generate temp file name: %w", err)
	}
	tempPath := s.path + "." + hex.EncodeToString(randBytes) + ".tmp"

	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("write snippet store: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("finalize snippet store: %w", err)
	}
	return nil
}
