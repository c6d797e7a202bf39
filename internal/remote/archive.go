package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/klauspost/compress/zip"

	"github.com/cursorgallery/cursorgallery/internal/inventory"
	"github.com/cursorgallery/cursorgallery/internal/progress"
)

const downloadChunk = 32 * 1024

// ArchiveFetcher downloads one zip archive and serves the inventory and file
// contents from it. The archive is held in memory between Inventory and Open.
type ArchiveFetcher struct {
	client     *http.Client
	url        string
	rootPrefix string
	logger     *slog.Logger

	mu      sync.Mutex
	entries map[string]*zip.File
}

// NewArchiveFetcher creates a fetcher for the archive at url. Entries outside
// rootPrefix are ignored and the prefix is stripped from the rest. The prefix
// may contain glob segments, e.g. "*/CursorsLib" for a repository snapshot
// whose top-level directory name is not known in advance.
func NewArchiveFetcher(client *http.Client, url, rootPrefix string, logger *slog.Logger) *ArchiveFetcher {
	return &ArchiveFetcher{
		client:     client,
		url:        url,
		rootPrefix: inventory.NormalizePath(rootPrefix),
		logger:     logger,
	}
}

// Inventory downloads the archive and fingerprints every file entry.
// Download progress is reported as bytes received over the declared length.
func (a *ArchiveFetcher) Inventory(ctx context.Context, onProgress progress.Func) (inventory.Remote, error) {
	meter := progress.NewMeter(progress.PhaseInventory, onProgress)

	data, err := a.download(ctx, meter)
	if err != nil {
		return nil, err
	}

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}

	remote := make(inventory.Remote)
	entries := make(map[string]*zip.File)

	for _, f := range reader.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}

		rel, ok := a.strip(inventory.NormalizePath(f.Name))
		if !ok {
			continue
		}
		if _, dup := remote[rel]; dup {
			a.logger.Warn("skipping duplicate archive entry", "path", rel)
			continue
		}

		fp, err := fingerprintEntry(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read archive entry %s: %w", f.Name, err)
		}

		remote[rel] = inventory.RemoteFileRecord{
			RelativePath:        rel,
			RemoteID:            f.Name,
			DeclaredFingerprint: fp,
			Size:                int64(f.UncompressedSize64),
		}
		entries[f.Name] = f
	}

	a.mu.Lock()
	a.entries = entries
	a.mu.Unlock()

	a.logger.Debug("indexed archive", "entries", len(remote), "bytes", len(data))
	meter.Finish(int64(len(data)), "archive indexed")
	return remote, nil
}

// Open extracts one entry from the archive loaded by Inventory
func (a *ArchiveFetcher) Open(ctx context.Context, rec inventory.RemoteFileRecord) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	entries := a.entries
	a.mu.Unlock()

	if entries == nil {
		return nil, ErrArchiveNotLoaded
	}
	f, ok := entries[rec.RemoteID]
	if !ok {
		return nil, fmt.Errorf("archive entry %s: %w", rec.RemoteID, fs.ErrNotExist)
	}
	return f.Open()
}

func (a *ArchiveFetcher) download(ctx context.Context, meter *progress.Meter) ([]byte, error) {
	resp, err := get(ctx, a.client, a.url, a.url)
	if err != nil {
		return nil, fmt.Errorf("failed to download archive: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	total := resp.ContentLength
	var buf bytes.Buffer
	if total > 0 {
		buf.Grow(int(total))
	}

	chunk := make([]byte, downloadChunk)
	var received int64
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, readErr := resp.Body.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			received += int64(n)
			meter.Report(received, total, received, "downloading archive")
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("failed to download archive: %w", readErr)
		}
	}

	if total > 0 && received != total {
		return nil, fmt.Errorf("failed to download archive: received %d of %d bytes", received, total)
	}
	return buf.Bytes(), nil
}

// strip removes the configured root prefix from name. It reports false for
// entries outside the prefix.
func (a *ArchiveFetcher) strip(name string) (string, bool) {
	if a.rootPrefix == "" {
		return name, name != ""
	}

	depth := strings.Count(a.rootPrefix, "/") + 1
	parts := strings.SplitN(name, "/", depth+1)
	if len(parts) <= depth {
		return "", false
	}

	head := strings.Join(parts[:depth], "/")
	if ok, err := doublestar.Match(a.rootPrefix, head); err != nil || !ok {
		return "", false
	}
	return parts[depth], true
}

func fingerprintEntry(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer func() {
		_ = rc.Close()
	}()
	return inventory.Fingerprint(rc)
}
