// Package remote obtains the remote theme inventory and file contents,
// either from a folder-listing API or from a single downloaded archive.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/cursorgallery/cursorgallery/internal/config"
	"github.com/cursorgallery/cursorgallery/internal/inventory"
	"github.com/cursorgallery/cursorgallery/internal/progress"
)

const userAgent = "cursorgallery"

// ErrArchiveNotLoaded is returned by ArchiveFetcher.Open before Inventory succeeded
var ErrArchiveNotLoaded = errors.New("archive not loaded")

// Fetcher describes the remote side of a sync
type Fetcher interface {
	// Inventory enumerates every remote asset. It either returns the full
	// inventory or an error, never a partial result.
	Inventory(ctx context.Context, onProgress progress.Func) (inventory.Remote, error)

	// Open streams the contents of one remote asset
	Open(ctx context.Context, rec inventory.RemoteFileRecord) (io.ReadCloser, error)
}

// New creates the fetcher selected by remote.strategy. A nil client gets a
// default one using remote.timeout.
func New(cfg *config.Config, client *http.Client, logger *slog.Logger) (Fetcher, error) {
	if err := cfg.ValidateRemote(); err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Remote.Timeout}
	}

	switch cfg.Remote.Strategy {
	case config.StrategyListing:
		key, err := cfg.APIKey()
		if err != nil {
			return nil, err
		}
		return NewListingFetcher(client, cfg.Remote.Listing.BaseURL, cfg.Remote.Listing.RootFolderID, key, logger), nil
	case config.StrategyArchive:
		return NewArchiveFetcher(client, cfg.Remote.Archive.URL, cfg.Remote.Archive.RootPrefix, logger), nil
	default:
		return nil, fmt.Errorf("unsupported remote strategy: %s", cfg.Remote.Strategy)
	}
}

// StatusError reports a non-2xx response from the remote
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %s", e.URL, e.Status)
}

// get issues a GET request and returns the response for a 2xx status. The
// caller owns the body.
func get(ctx context.Context, client *http.Client, url, display string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", display, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, &StatusError{URL: display, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	return resp, nil
}
