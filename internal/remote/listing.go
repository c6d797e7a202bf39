package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/cursorgallery/cursorgallery/internal/inventory"
	"github.com/cursorgallery/cursorgallery/internal/progress"
)

const (
	folderMimeType = "application/vnd.google-apps.folder"
	listFields     = "nextPageToken,files(id,name,mimeType,md5Checksum,size)"
	listPageSize   = "1000"
)

// ListingFetcher walks a folder tree exposed by a Drive-style files API
type ListingFetcher struct {
	client  *http.Client
	baseURL string
	rootID  string
	apiKey  string
	logger  *slog.Logger
}

// NewListingFetcher creates a fetcher rooted at the folder rootID
func NewListingFetcher(client *http.Client, baseURL, rootID, apiKey string, logger *slog.Logger) *ListingFetcher {
	return &ListingFetcher{
		client:  client,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		rootID:  rootID,
		apiKey:  apiKey,
		logger:  logger,
	}
}

type fileList struct {
	NextPageToken string      `json:"nextPageToken"`
	Files         []driveFile `json:"files"`
}

type driveFile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MimeType    string `json:"mimeType"`
	MD5Checksum string `json:"md5Checksum"`
	Size        int64  `json:"size,string"`
}

type folder struct {
	id     string
	prefix string
}

// Inventory lists the folder tree breadth first. One progress event is
// emitted per listed folder.
func (l *ListingFetcher) Inventory(ctx context.Context, onProgress progress.Func) (inventory.Remote, error) {
	meter := progress.NewMeter(progress.PhaseInventory, onProgress)
	remote := make(inventory.Remote)

	queue := []folder{{id: l.rootID}}
	done := 0

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current := queue[0]
		queue = queue[1:]

		files, err := l.list(ctx, current.id)
		if err != nil {
			return nil, fmt.Errorf("failed to list folder %q: %w", displayPrefix(current.prefix), err)
		}

		for _, f := range files {
			if !validName(f.Name) {
				l.logger.Warn("skipping remote entry with unusable name", "name", f.Name, "id", f.ID)
				continue
			}
			rel := inventory.NormalizePath(current.prefix + "/" + f.Name)

			if f.MimeType == folderMimeType {
				queue = append(queue, folder{id: f.ID, prefix: rel})
				continue
			}

			if _, dup := remote[rel]; dup {
				l.logger.Warn("skipping duplicate remote entry", "path", rel, "id", f.ID)
				continue
			}

			size := f.Size
			if size == 0 && f.MD5Checksum == "" {
				size = -1
			}
			remote[rel] = inventory.RemoteFileRecord{
				RelativePath:        rel,
				RemoteID:            f.ID,
				DeclaredFingerprint: strings.ToLower(f.MD5Checksum),
				Size:                size,
			}
		}

		done++
		meter.Report(int64(done), int64(done+len(queue)), 0, displayPrefix(current.prefix))
		l.logger.Debug("listed remote folder", "path", displayPrefix(current.prefix), "entries", len(files))
	}

	meter.Finish(0, "listing complete")
	return remote, nil
}

// list returns all children of one folder, following page tokens
func (l *ListingFetcher) list(ctx context.Context, folderID string) ([]driveFile, error) {
	var (
		files     []driveFile
		pageToken string
	)

	for {
		params := url.Values{}
		params.Set("q", fmt.Sprintf("'%s' in parents and trashed=false", folderID))
		params.Set("fields", listFields)
		params.Set("pageSize", listPageSize)
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		page, err := l.fetchPage(ctx, params)
		if err != nil {
			return nil, err
		}
		files = append(files, page.Files...)

		if page.NextPageToken == "" {
			return files, nil
		}
		pageToken = page.NextPageToken
	}
}

func (l *ListingFetcher) fetchPage(ctx context.Context, params url.Values) (*fileList, error) {
	display := l.baseURL + "/files?" + params.Encode()
	if l.apiKey != "" {
		params.Set("key", l.apiKey)
	}

	resp, err := get(ctx, l.client, l.baseURL+"/files?"+params.Encode(), display)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var page fileList
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode file list: %w", err)
	}
	return &page, nil
}

// Open downloads the media content of one file
func (l *ListingFetcher) Open(ctx context.Context, rec inventory.RemoteFileRecord) (io.ReadCloser, error) {
	params := url.Values{}
	params.Set("alt", "media")
	display := l.baseURL + "/files/" + url.PathEscape(rec.RemoteID) + "?" + params.Encode()
	if l.apiKey != "" {
		params.Set("key", l.apiKey)
	}

	resp, err := get(ctx, l.client, l.baseURL+"/files/"+url.PathEscape(rec.RemoteID)+"?"+params.Encode(), display)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, "/\\")
}

func displayPrefix(prefix string) string {
	if prefix == "" {
		return "/"
	}
	return prefix
}
