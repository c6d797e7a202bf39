package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/cursorgallery/cursorgallery/internal/inventory"
	"github.com/cursorgallery/cursorgallery/internal/progress"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeDrive serves a folder tree in the shape of the Drive v3 files API.
// Each folder's children are split into pages.
type fakeDrive struct {
	mu       sync.Mutex
	pages    map[string][][]driveFile
	contents map[string]string
	keys     []string
	failID   string
}

func (d *fakeDrive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	d.keys = append(d.keys, r.URL.Query().Get("key"))
	d.mu.Unlock()

	if r.URL.Path != "/files" {
		id := strings.TrimPrefix(r.URL.Path, "/files/")
		content, ok := d.contents[id]
		if !ok || r.URL.Query().Get("alt") != "media" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, content)
		return
	}

	q := r.URL.Query().Get("q")
	if !strings.HasSuffix(q, "' in parents and trashed=false") || !strings.HasPrefix(q, "'") {
		http.Error(w, "bad query", http.StatusBadRequest)
		return
	}
	id := strings.TrimSuffix(strings.TrimPrefix(q, "'"), "' in parents and trashed=false")
	if id == d.failID {
		http.Error(w, "quota", http.StatusForbidden)
		return
	}

	pages := d.pages[id]
	page := 0
	if tok := r.URL.Query().Get("pageToken"); tok != "" {
		page, _ = strconv.Atoi(strings.TrimPrefix(tok, "p"))
	}

	resp := fileList{}
	if page < len(pages) {
		resp.Files = pages[page]
	}
	if page+1 < len(pages) {
		resp.NextPageToken = "p" + strconv.Itoa(page+1)
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func newFakeDrive() *fakeDrive {
	return &fakeDrive{
		pages: map[string][][]driveFile{
			"root": {
				{{ID: "anime", Name: "Anime", MimeType: folderMimeType}},
				{{ID: "classic", Name: "Classic", MimeType: folderMimeType}},
			},
			"anime": {
				{{ID: "neko", Name: "Neko", MimeType: folderMimeType}},
			},
			"neko": {
				{
					{ID: "f1", Name: "pointer.cur", MD5Checksum: "ABCDEF0123", Size: 10},
					{ID: "f2", Name: "busy.ani"},
				},
			},
			"classic": {
				{
					{ID: "f3", Name: "arrow.cur", MD5Checksum: "c0ffee", Size: 3},
					{ID: "f4", Name: "..", MD5Checksum: "bad"},
				},
			},
		},
		contents: map[string]string{"f1": "pointer-bytes"},
	}
}

func TestListingFetcher_Inventory(t *testing.T) {
	drive := newFakeDrive()
	srv := httptest.NewServer(drive)
	defer srv.Close()

	var events []progress.Event
	l := NewListingFetcher(srv.Client(), srv.URL+"/", "root", "secret", testLogger())
	remote, err := l.Inventory(context.Background(), func(e progress.Event) {
		events = append(events, e)
	})
	if err != nil {
		t.Fatalf("Inventory() error: %v", err)
	}

	want := map[string]inventory.RemoteFileRecord{
		"Anime/Neko/pointer.cur": {RelativePath: "Anime/Neko/pointer.cur", RemoteID: "f1", DeclaredFingerprint: "abcdef0123", Size: 10},
		"Anime/Neko/busy.ani":    {RelativePath: "Anime/Neko/busy.ani", RemoteID: "f2", Size: -1},
		"Classic/arrow.cur":      {RelativePath: "Classic/arrow.cur", RemoteID: "f3", DeclaredFingerprint: "c0ffee", Size: 3},
	}
	if len(remote) != len(want) {
		t.Fatalf("Inventory() returned %d entries, want %d: %v", len(remote), len(want), remote)
	}
	for rel, rec := range want {
		if remote[rel] != rec {
			t.Errorf("entry %s = %+v, want %+v", rel, remote[rel], rec)
		}
	}

	if remote["Anime/Neko/busy.ani"].HasFingerprint() {
		t.Error("entry without md5Checksum should have no declared fingerprint")
	}

	// root, Anime, Classic, Neko plus the final event
	if len(events) != 5 {
		t.Fatalf("got %d progress events, want 5", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].Phase != progress.PhaseInventory {
			t.Errorf("event %d phase = %q, want inventory", i, events[i].Phase)
		}
		if events[i].Percent < events[i-1].Percent {
			t.Errorf("progress went backwards: %d -> %d", events[i-1].Percent, events[i].Percent)
		}
	}
	if events[len(events)-1].Percent != 100 {
		t.Errorf("final event percent = %d, want 100", events[len(events)-1].Percent)
	}

	for _, k := range drive.keys {
		if k != "secret" {
			t.Errorf("request sent api key %q, want secret", k)
		}
	}
}

func TestListingFetcher_StatusErrorAbortsWholeFetch(t *testing.T) {
	drive := newFakeDrive()
	drive.failID = "classic"
	srv := httptest.NewServer(drive)
	defer srv.Close()

	l := NewListingFetcher(srv.Client(), srv.URL, "root", "", testLogger())
	remote, err := l.Inventory(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if remote != nil {
		t.Errorf("expected no partial inventory, got %v", remote)
	}

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error %v is not a *StatusError", err)
	}
	if se.StatusCode != http.StatusForbidden {
		t.Errorf("status code = %d, want 403", se.StatusCode)
	}
	if strings.Contains(err.Error(), "key=") {
		t.Errorf("error leaks api key parameter: %v", err)
	}
}

func TestListingFetcher_Cancelled(t *testing.T) {
	srv := httptest.NewServer(newFakeDrive())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := NewListingFetcher(srv.Client(), srv.URL, "root", "", testLogger())
	if _, err := l.Inventory(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Inventory() error = %v, want context.Canceled", err)
	}
}

func TestListingFetcher_Open(t *testing.T) {
	srv := httptest.NewServer(newFakeDrive())
	defer srv.Close()

	l := NewListingFetcher(srv.Client(), srv.URL, "root", "", testLogger())

	rc, err := l.Open(context.Background(), inventory.RemoteFileRecord{RemoteID: "f1"})
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "pointer-bytes" {
		t.Errorf("Open() content = %q", data)
	}

	_, err = l.Open(context.Background(), inventory.RemoteFileRecord{RemoteID: "missing"})
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
		t.Errorf("Open(missing) error = %v, want 404 StatusError", err)
	}
}
