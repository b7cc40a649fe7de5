// Package dotdir manages the .ragline/ and ~/.ragline directories that hold
// the configuration file and the local sqlite index.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DirName is the name of the ragline directory.
	DirName = ".ragline"

	// IndexFile is the default sqlite index inside the ragline directory.
	IndexFile = "ragline.db"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .ragline/ directory.
// Order of precedence is as follows:
//  1. Provided override
//  2. Local ./.ragline/ dir
//  3. Home ~/.ragline/ dir, created when missing
func (m *Manager) Target(overrideDir string) (string, error) {
	var dir string

	switch {
	case overrideDir != "":
		dir = overrideDir

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, DirName)

	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, DirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating ragline directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// IndexPath returns the path of the default sqlite index in the resolved
// ragline directory.
func (m *Manager) IndexPath(overrideDir string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, IndexFile), nil
}

// localDirExists checks whether a .ragline/ directory exists in the current
// working directory.
func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, DirName))
	return err == nil && info.IsDir()
}
