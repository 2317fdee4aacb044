package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/canteen-works/mensa/internal/menu"
)

// SaveSnapshot writes the store's menus as a schema-valid JSON document.
// The write is atomic: a temp file in the target directory renamed over the
// destination, so a crash never leaves a truncated snapshot.
func (s *Store) SaveSnapshot(path string) error {
	data, err := menu.EncodeDocument(s.All())
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot merges a previously saved snapshot into the store. A missing
// file is not an error; the store just starts empty. A snapshot that fails
// schema validation is rejected whole.
func (s *Store) LoadSnapshot(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read snapshot: %w", err)
	}

	menus, err := menu.DecodeDocument(data)
	if err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	s.PutAll(menus)
	return nil
}
