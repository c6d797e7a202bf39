package gallery

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/cursorgallery/cursorgallery/internal/catalog"
	"github.com/cursorgallery/cursorgallery/internal/cursor"
	"github.com/cursorgallery/cursorgallery/internal/testutil"
	"github.com/cursorgallery/cursorgallery/internal/userstate"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// mockApplier implements cursor.Applier for testing.
type mockApplier struct {
	applied    []cursor.Scheme
	resetCalls int
	err        error
}

func (m *mockApplier) Apply(_ context.Context, scheme cursor.Scheme) error {
	if m.err != nil {
		return m.err
	}
	m.applied = append(m.applied, scheme)
	return nil
}

func (m *mockApplier) Reset(_ context.Context) error {
	m.resetCalls++
	return m.err
}

func newTestService(t *testing.T, applier cursor.Applier) (*Service, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	testutil.WriteTree(t, fs, "/lib", map[string]string{
		"Anime/Neko/pointer.cur":   "p",
		"Anime/Neko/busy.ani":      "b",
		"Classic/Aero/pointer.cur": "p",
	})

	state, err := userstate.Open(fs, "/state/recent_cursors.json", "/state/favorites.json", testLogger())
	if err != nil {
		t.Fatal(err)
	}

	svc, err := New(fs, "/lib", 12, applier, state, testLogger())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return svc, fs
}

func TestService_Apply(t *testing.T) {
	applier := &mockApplier{}
	svc, fs := newTestService(t, applier)

	theme, err := svc.Apply(context.Background(), catalog.Key{Category: catalog.Anime, Name: "Neko"})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if theme.Name != "Neko" {
		t.Errorf("applied theme = %s", theme.Name)
	}
	if len(applier.applied) != 1 {
		t.Fatalf("applier called %d times", len(applier.applied))
	}
	if applier.applied[0]["busy"] != filepath.Join("/lib", "Anime", "Neko", "busy.ani") {
		t.Errorf("scheme = %v", applier.applied[0])
	}
	if !reflect.DeepEqual(svc.Recent(), []string{"Neko"}) {
		t.Errorf("Recent() = %v", svc.Recent())
	}
	if ok, _ := afero.Exists(fs, "/state/recent_cursors.json"); !ok {
		t.Error("recent file not saved")
	}
}

func TestService_ApplyFailureNotRecorded(t *testing.T) {
	applier := &mockApplier{err: cursor.ErrUnsupported}
	svc, _ := newTestService(t, applier)

	_, err := svc.Apply(context.Background(), catalog.Key{Category: catalog.Anime, Name: "Neko"})
	if !errors.Is(err, cursor.ErrUnsupported) {
		t.Fatalf("Apply() error = %v, want ErrUnsupported", err)
	}
	if len(svc.Recent()) != 0 {
		t.Errorf("failed apply recorded as recent: %v", svc.Recent())
	}
}

func TestService_ApplyUnknownTheme(t *testing.T) {
	svc, _ := newTestService(t, &mockApplier{})

	_, err := svc.Apply(context.Background(), catalog.Key{Category: catalog.Anime, Name: "Nek"})
	if !errors.Is(err, ErrThemeNotFound) {
		t.Fatalf("Apply() error = %v, want ErrThemeNotFound", err)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error is %T", err)
	}
	if len(nf.Suggestions) == 0 || nf.Suggestions[0] != (catalog.Key{Category: catalog.Anime, Name: "Neko"}) {
		t.Errorf("suggestions = %v", nf.Suggestions)
	}
	if !strings.Contains(err.Error(), "did you mean anime/Neko") {
		t.Errorf("error message = %q", err)
	}

	// category is part of the identity
	if _, err := svc.Apply(context.Background(), catalog.Key{Category: catalog.Classic, Name: "Neko"}); !errors.Is(err, ErrThemeNotFound) {
		t.Errorf("classic/Neko should not resolve to anime/Neko: %v", err)
	}
}

func TestService_Favorites(t *testing.T) {
	svc, _ := newTestService(t, &mockApplier{})
	aero := catalog.Key{Category: catalog.Classic, Name: "Aero"}

	on, err := svc.ToggleFavorite(aero)
	if err != nil || !on {
		t.Fatalf("ToggleFavorite() = %v, %v", on, err)
	}

	page := svc.Browse(catalog.Query{Category: catalog.Anime, FavoritesOnly: true})
	if len(page.Themes) != 1 || page.Themes[0].Key() != aero {
		t.Errorf("favorites page = %+v", page.Themes)
	}

	if _, err := svc.ToggleFavorite(catalog.Key{Category: catalog.Classic, Name: "Missing"}); !errors.Is(err, ErrThemeNotFound) {
		t.Errorf("adding an unknown favorite: %v", err)
	}

	on, err = svc.ToggleFavorite(aero)
	if err != nil || on {
		t.Fatalf("second ToggleFavorite() = %v, %v", on, err)
	}
	if svc.IsFavorite(aero) {
		t.Error("still a favorite after removal")
	}
}

func TestService_RemoveFavoriteOfDeletedTheme(t *testing.T) {
	svc, fs := newTestService(t, &mockApplier{})
	aero := catalog.Key{Category: catalog.Classic, Name: "Aero"}
	if _, err := svc.ToggleFavorite(aero); err != nil {
		t.Fatal(err)
	}

	if err := fs.RemoveAll("/lib/Classic/Aero"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Reload(); err != nil {
		t.Fatal(err)
	}

	on, err := svc.ToggleFavorite(aero)
	if err != nil || on {
		t.Errorf("removing a stale favorite = %v, %v", on, err)
	}
}

func TestService_Reset(t *testing.T) {
	applier := &mockApplier{}
	svc, _ := newTestService(t, applier)

	if err := svc.Reset(context.Background()); err != nil {
		t.Fatalf("Reset() error: %v", err)
	}
	if applier.resetCalls != 1 {
		t.Errorf("reset calls = %d", applier.resetCalls)
	}
}

func TestService_BrowseUsesConfiguredPageSize(t *testing.T) {
	svc, _ := newTestService(t, &mockApplier{})
	svc.perPage = 1

	page := svc.Browse(catalog.Query{Category: catalog.Anime})
	if page.TotalPages != 1 || len(page.Themes) != 1 {
		t.Errorf("page = %+v", page)
	}
}
