package sync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	gosync "sync"

	"github.com/cursorgallery/cursorgallery/internal/inventory"
	"github.com/cursorgallery/cursorgallery/internal/progress"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// mockFetcher implements remote.Fetcher for testing.
type mockFetcher struct {
	mu       gosync.Mutex
	contents map[string]string // remote id -> content
	declare  bool              // declare md5 fingerprints
	invErr   error
	openErr  map[string]error
	onOpen   func(id string)
	block    chan struct{} // when set, Inventory waits for it to close
	started  chan struct{}
	opened   []string
}

func newMockFetcher(files map[string]string) *mockFetcher {
	return &mockFetcher{contents: files, declare: true}
}

func (m *mockFetcher) Inventory(ctx context.Context, onProgress progress.Func) (inventory.Remote, error) {
	if m.started != nil {
		close(m.started)
	}
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.invErr != nil {
		return nil, m.invErr
	}

	remote := make(inventory.Remote)
	for rel, content := range m.contents {
		rec := inventory.RemoteFileRecord{RelativePath: rel, RemoteID: rel, Size: int64(len(content))}
		if m.declare {
			rec.DeclaredFingerprint = inventory.FingerprintBytes([]byte(content))
		}
		remote[rel] = rec
	}
	if onProgress != nil {
		onProgress(progress.Event{Phase: progress.PhaseInventory, Percent: 100, Label: "listing complete"})
	}
	return remote, nil
}

func (m *mockFetcher) Open(_ context.Context, rec inventory.RemoteFileRecord) (io.ReadCloser, error) {
	m.mu.Lock()
	m.opened = append(m.opened, rec.RemoteID)
	m.mu.Unlock()

	if m.onOpen != nil {
		m.onOpen(rec.RemoteID)
	}
	if err, ok := m.openErr[rec.RemoteID]; ok {
		return nil, err
	}
	content, ok := m.contents[rec.RemoteID]
	if !ok {
		return nil, errors.New("no such remote file")
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func (m *mockFetcher) openedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.opened...)
}

// eventRecorder collects progress events
type eventRecorder struct {
	mu     gosync.Mutex
	events []progress.Event
}

func (r *eventRecorder) record(e progress.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) all() []progress.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]progress.Event(nil), r.events...)
}

func remoteRecord(rel, content string) inventory.RemoteFileRecord {
	return inventory.RemoteFileRecord{
		RelativePath:        rel,
		RemoteID:            rel,
		DeclaredFingerprint: inventory.FingerprintBytes([]byte(content)),
		Size:                int64(len(content)),
	}
}
