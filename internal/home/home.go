package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the mensa home directory.
	DefaultDirName = ".mensa"

	// MenusDirName is the subdirectory scanned for menu documents.
	MenusDirName = "menus"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// SnapshotFileName is the persisted menu store snapshot.
	SnapshotFileName = "menus.json"
)

// Dir represents the mensa home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.mensa).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// MenusPath returns the directory scanned for menu documents. Uploaded
// documents are saved here too, so the scanner picks them up on restart.
func (d *Dir) MenusPath() string {
	return filepath.Join(d.path, MenusDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// SnapshotPath returns the path of the menu store snapshot.
func (d *Dir) SnapshotPath() string {
	return filepath.Join(d.path, SnapshotFileName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	// Creating the menus directory also creates the parent.
	if err := os.MkdirAll(d.MenusPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create menus directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
