// Package dotdir resolves the .aichat/ directory that holds config.toml and
// the interactive input history.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the aichat directory.
	dirName = ".aichat"

	// HistoryFile is the interactive input history file inside the directory.
	HistoryFile = "history"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the absolute path to a .aichat/ directory.
// Order of precedence is as follows:
//  1. Provided override (created if missing)
//  2. Local ./.aichat/ dir
//  3. Home ~/.aichat/ dir
//
// When none applies Target returns an empty string.
func (m *Manager) Target(overrideDir string) (string, error) {
	if overrideDir != "" {
		if err := os.MkdirAll(overrideDir, 0o755); err != nil {
			return "", fmt.Errorf("creating aichat directory %s: %w", overrideDir, err)
		}
		return filepath.Abs(overrideDir)
	}

	if dir, ok := m.localDir(); ok {
		return dir, nil
	}

	home, err := m.homeDir()
	if err != nil {
		return "", err
	}
	if isDir(home) {
		return home, nil
	}

	return "", nil
}

// Ensure behaves like Target but creates ~/.aichat/ when no directory
// resolves.
func (m *Manager) Ensure(overrideDir string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil || dir != "" {
		return dir, err
	}

	home, err := m.homeDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(home, 0o755); err != nil {
		return "", fmt.Errorf("creating aichat directory %s: %w", home, err)
	}
	return home, nil
}

// localDir returns ./.aichat/ when it exists in the current working directory.
func (m *Manager) localDir() (string, bool) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false
	}

	dir := filepath.Join(cwd, dirName)
	return dir, isDir(dir)
}

func (m *Manager) homeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
