package cursor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeStore implements settingsStore for testing.
type fakeStore struct {
	values       map[string]string
	writeErr     error
	broadcastErr error
	broadcasts   int
}

func (f *fakeStore) Write(settings map[string]string) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	if f.values == nil {
		f.values = make(map[string]string)
	}
	for k, v := range settings {
		f.values[k] = v
	}
	return nil
}

func (f *fakeStore) Broadcast() error {
	f.broadcasts++
	return f.broadcastErr
}

func TestSettings(t *testing.T) {
	scheme := Scheme{
		"pointer":  `C:\lib\Anime\Neko\pointer.cur`,
		"normal":   `C:\lib\Anime\Neko\normal.cur`,
		"busy":     `C:\lib\Anime\Neko\busy.ani`,
		"dgn1":     `C:\lib\Anime\Neko\dgn1.cur`,
		"sparkles": `C:\lib\Anime\Neko\sparkles.cur`,
	}

	got := Settings(scheme)
	want := map[string]string{
		"Arrow":    `C:\lib\Anime\Neko\normal.cur`,
		"Busy":     `C:\lib\Anime\Neko\busy.ani`,
		"SizeNESW": `C:\lib\Anime\Neko\dgn1.cur`,
	}
	if len(got) != len(want) {
		t.Fatalf("Settings() = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("Settings()[%s] = %q, want %q", k, got[k], v)
		}
	}
}

func TestSettingNames(t *testing.T) {
	names := SettingNames()
	if len(names) != 19 {
		t.Errorf("SettingNames() returned %d names, want 19: %v", len(names), names)
	}
	if names[0] != "Arrow" {
		t.Errorf("first setting = %s, want Arrow", names[0])
	}
	seen := make(map[string]bool)
	for _, n := range names {
		if seen[n] {
			t.Errorf("duplicate setting %s", n)
		}
		seen[n] = true
	}
}

func TestClient_Apply(t *testing.T) {
	store := &fakeStore{}
	c := &Client{store: store, logger: testLogger()}

	err := c.Apply(context.Background(), Scheme{"pointer": "/lib/p.cur", "hand": "/lib/h.cur"})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if store.values["Arrow"] != "/lib/p.cur" || store.values["Hand"] != "/lib/h.cur" {
		t.Errorf("stored values = %v", store.values)
	}
	if store.broadcasts != 1 {
		t.Errorf("broadcasts = %d, want 1", store.broadcasts)
	}
}

func TestClient_ApplyErrors(t *testing.T) {
	t.Run("no known roles", func(t *testing.T) {
		store := &fakeStore{}
		c := &Client{store: store, logger: testLogger()}
		if err := c.Apply(context.Background(), Scheme{"sparkles": "/x.cur"}); !errors.Is(err, ErrNoKnownRoles) {
			t.Errorf("Apply() error = %v, want ErrNoKnownRoles", err)
		}
		if store.broadcasts != 0 {
			t.Error("broadcast after failed apply")
		}
	})

	t.Run("write failure", func(t *testing.T) {
		store := &fakeStore{writeErr: errors.New("access denied")}
		c := &Client{store: store, logger: testLogger()}
		if err := c.Apply(context.Background(), Scheme{"pointer": "/p.cur"}); !errors.Is(err, store.writeErr) {
			t.Errorf("Apply() error = %v", err)
		}
		if store.broadcasts != 0 {
			t.Error("broadcast after failed write")
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		c := &Client{store: &fakeStore{}, logger: testLogger()}
		if err := c.Apply(ctx, Scheme{"pointer": "/p.cur"}); !errors.Is(err, context.Canceled) {
			t.Errorf("Apply() error = %v, want context.Canceled", err)
		}
	})
}

func TestClient_Reset(t *testing.T) {
	store := &fakeStore{values: map[string]string{"Arrow": "/lib/p.cur"}}
	c := &Client{store: store, logger: testLogger()}

	if err := c.Reset(context.Background()); err != nil {
		t.Fatalf("Reset() error: %v", err)
	}
	for _, name := range SettingNames() {
		v, ok := store.values[name]
		if !ok || v != "" {
			t.Errorf("setting %s = %q, %v; want empty", name, v, ok)
		}
	}
	if store.broadcasts != 1 {
		t.Errorf("broadcasts = %d, want 1", store.broadcasts)
	}
}
