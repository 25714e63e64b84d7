// Package testutil provides fixture builders shared across package tests:
// sample descriptors, artifacts, and a fake origin fetcher.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ionlayer/tiercache/internal/config"
)

// NewTestConfig returns a default config suitable for tests, isolated from
// whatever config file the host machine happens to have.
func NewTestConfig(t *testing.T) *config.Config {
	t.Helper()
	return config.DefaultConfig()
}

// TempDir creates a temporary directory for test data.
func TempDir(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}

// WriteFile writes content to a file in the given directory.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}
