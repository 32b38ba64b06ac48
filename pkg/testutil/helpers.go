package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/modlay/modlay/pkg/types"
)

// WriteTree writes the given relative path → content map under root
// using the provided filesystem, creating parent directories.
func WriteTree(t *testing.T, fs types.FS, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := fs.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("mkdir %s: %v", full, err)
		}
		if err := fs.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", full, err)
		}
	}
}

// CreatePayloadDir materializes a mod payload on the real filesystem
// under a temp directory and returns its path. Used to exercise
// archive registration, which scans real directories.
func CreatePayloadDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("mkdir %s: %v", full, err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", full, err)
		}
	}
	return dir
}

// ReadFileString reads a file through the filesystem abstraction and
// fails the test on error.
func ReadFileString(t *testing.T, fs types.FS, path string) string {
	t.Helper()
	data, err := fs.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
