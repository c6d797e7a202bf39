package testutil

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"
)

// Logger returns a logger that only reports errors, for use in tests
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// WriteTree writes files (relative path -> content) below root on fs
func WriteTree(t *testing.T, fs afero.Fs, root string, files map[string]string) {
	t.Helper()

	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
		}
		if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
}

// ReadFile reads a file below root on fs and fails the test on error
func ReadFile(t *testing.T, fs afero.Fs, root, rel string) string {
	t.Helper()

	data, err := afero.ReadFile(fs, filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(data)
}

// ZipArchive builds a zip archive in memory from entry name -> content.
// Directory entries are added for every parent so the archive looks like
// one produced by a source-hosting service.
func ZipArchive(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	dirs := make(map[string]bool)
	for _, name := range names {
		for dir := filepath.ToSlash(filepath.Dir(name)); dir != "." && dir != "/"; dir = filepath.ToSlash(filepath.Dir(dir)) {
			if dirs[dir] {
				break
			}
			dirs[dir] = true
			if _, err := w.Create(dir + "/"); err != nil {
				t.Fatalf("zip dir %s: %v", dir, err)
			}
		}

		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("zip entry %s: %v", name, err)
		}
		if _, err := f.Write([]byte(entries[name])); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}

	if err := w.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}
