//go:build integration

package tier1

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cursorgallery/cursorgallery/internal/testutil"
)

const (
	binaryName     = "cursorgallery"
	defaultTimeout = 5 * time.Minute
	folderMimeType = "application/vnd.google-apps.folder"
)

// Harness builds the CLI once and runs it against fake remotes and a
// real library directory
type Harness struct {
	t       *testing.T
	binary  string
	workDir string
	keep    bool
}

// NewHarness creates a new test harness
func NewHarness(t *testing.T) *Harness {
	t.Helper()
	return &Harness{
		t:       t,
		workDir: t.TempDir(),
		keep:    os.Getenv("INTEGRATION_KEEP_WORKDIR") == "1",
	}
}

// Build compiles the cursorgallery binary into the work directory
func (h *Harness) Build(ctx context.Context) error {
	h.t.Helper()

	projectRoot, err := testutil.FindProjectRoot()
	if err != nil {
		return fmt.Errorf("get project root: %w", err)
	}

	h.binary = filepath.Join(h.workDir, binaryName)
	cmd := exec.CommandContext(ctx, "go", "build", "-o", h.binary, "./cmd/cursorgallery")
	cmd.Dir = projectRoot
	cmd.Stdout = &testWriter{t: h.t, prefix: "[build] "}
	cmd.Stderr = &testWriter{t: h.t, prefix: "[build] "}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("go build: %w", err)
	}

	h.t.Logf("Binary built at %s", h.binary)
	return nil
}

// LibraryDir is where synced themes land
func (h *Harness) LibraryDir() string {
	return filepath.Join(h.workDir, "CursorsLib")
}

// StateDir holds favorites and recent themes
func (h *Harness) StateDir() string {
	return filepath.Join(h.workDir, "state")
}

// WriteConfig writes a config file with the given remote section and
// returns its path
func (h *Harness) WriteConfig(name, remoteSection string) string {
	h.t.Helper()

	content := fmt.Sprintf("paths:\n  library_dir: %q\n  state_dir: %q\n%s",
		h.LibraryDir(), h.StateDir(), remoteSection)
	path := filepath.Join(h.workDir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		h.t.Fatalf("write config: %v", err)
	}
	return path
}

// Run executes the binary and returns stdout, stderr and the exit code
func (h *Harness) Run(ctx context.Context, args ...string) (string, string, int, error) {
	h.t.Helper()
	if h.binary == "" {
		return "", "", 0, fmt.Errorf("binary not built")
	}

	cmd := exec.CommandContext(ctx, h.binary, args...)
	cmd.Env = append(os.Environ(), "HOME="+h.workDir)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return "", "", 0, fmt.Errorf("exec failed: %w", err)
		}
	}

	return stdout.String(), stderr.String(), exitCode, nil
}

// MustRun executes the binary and fails the test on a non-zero exit
func (h *Harness) MustRun(ctx context.Context, args ...string) string {
	h.t.Helper()
	stdout, stderr, exitCode, err := h.Run(ctx, args...)
	if err != nil {
		h.t.Fatalf("run failed: %v", err)
	}
	if exitCode != 0 {
		h.t.Fatalf("command failed with exit code %d\nstdout: %s\nstderr: %s\nargs: %v",
			exitCode, stdout, stderr, args)
	}
	return stdout
}

// ReadLibraryFile reads a file below the library directory
func (h *Harness) ReadLibraryFile(rel string) (string, error) {
	data, err := os.ReadFile(filepath.Join(h.LibraryDir(), filepath.FromSlash(rel)))
	return string(data), err
}

// WriteLibraryFile overwrites a file below the library directory
func (h *Harness) WriteLibraryFile(rel, content string) {
	h.t.Helper()
	path := filepath.Join(h.LibraryDir(), filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		h.t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		h.t.Fatalf("write library file: %v", err)
	}
}

// FileExists checks if a file exists below the library directory
func (h *Harness) FileExists(rel string) bool {
	_, err := os.Stat(filepath.Join(h.LibraryDir(), filepath.FromSlash(rel)))
	return err == nil
}

// ResetLibrary removes every synced file
func (h *Harness) ResetLibrary() {
	h.t.Helper()
	if err := os.RemoveAll(h.LibraryDir()); err != nil {
		h.t.Fatalf("reset library: %v", err)
	}
}

// Cleanup reports the work directory when asked to keep it
func (h *Harness) Cleanup() {
	if h.keep && h.t.Failed() {
		h.t.Logf("Test failed and INTEGRATION_KEEP_WORKDIR=1, inspect %s before the test binary exits", h.workDir)
	}
}

// DriveServer serves a file tree in the shape of the Drive v3 files API
type DriveServer struct {
	*httptest.Server

	mu       sync.Mutex
	children map[string][]driveFile
	contents map[string]string
	requests int
}

type driveFile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MimeType    string `json:"mimeType"`
	MD5Checksum string `json:"md5Checksum,omitempty"`
	Size        string `json:"size,omitempty"`
}

// NewDriveServer builds a folder tree from slash separated paths
// below the folder "root"
func NewDriveServer(t *testing.T, files map[string]string) *DriveServer {
	t.Helper()

	d := &DriveServer{
		children: make(map[string][]driveFile),
		contents: make(map[string]string),
	}
	d.SetFiles(files)
	d.Server = httptest.NewServer(d)
	t.Cleanup(d.Close)
	return d
}

// SetFiles replaces the served tree
func (d *DriveServer) SetFiles(files map[string]string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.children = make(map[string][]driveFile)
	d.contents = make(map[string]string)
	folders := map[string]bool{"root": true}

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		parts := strings.Split(p, "/")
		parent := "root"
		for i, part := range parts[:len(parts)-1] {
			id := "dir:" + strings.Join(parts[:i+1], "/")
			if !folders[id] {
				folders[id] = true
				d.children[parent] = append(d.children[parent], driveFile{ID: id, Name: part, MimeType: folderMimeType})
			}
			parent = id
		}

		content := files[p]
		sum := md5.Sum([]byte(content))
		id := "file:" + p
		d.contents[id] = content
		d.children[parent] = append(d.children[parent], driveFile{
			ID:          id,
			Name:        parts[len(parts)-1],
			MimeType:    "application/octet-stream",
			MD5Checksum: hex.EncodeToString(sum[:]),
			Size:        fmt.Sprint(len(content)),
		})
	}
}

// Requests returns how many requests the server has handled
func (d *DriveServer) Requests() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.requests
}

func (d *DriveServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.requests++

	if id, ok := strings.CutPrefix(r.URL.Path, "/files/"); ok {
		content, found := d.contents[id]
		if !found || r.URL.Query().Get("alt") != "media" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, content)
		return
	}

	q := r.URL.Query().Get("q")
	id, ok := strings.CutSuffix(strings.TrimPrefix(q, "'"), "' in parents and trashed=false")
	if r.URL.Path != "/files" || !ok {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{"files": d.children[id]})
}

// NewArchiveServer serves a zip archive of files at /themes.zip
func NewArchiveServer(t *testing.T, files map[string]string) *httptest.Server {
	t.Helper()

	archive := testutil.ZipArchive(t, files)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/themes.zip" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Length", fmt.Sprint(len(archive)))
		_, _ = w.Write(archive)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// testWriter wraps test logging for command output
type testWriter struct {
	t      *testing.T
	prefix string
}

func (w *testWriter) Write(p []byte) (n int, err error) {
	lines := strings.Split(string(p), "\n")
	for _, line := range lines {
		if line != "" {
			w.t.Log(w.prefix + line)
		}
	}
	return len(p), nil
}

var _ io.Writer = (*testWriter)(nil)
