// Package update checks a release-metadata endpoint for newer versions.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/mod/semver"
)

// Release is the subset of release metadata the check needs
type Release struct {
	TagName    string `json:"tag_name"`
	ZipballURL string `json:"zipball_url"`
	HTMLURL    string `json:"html_url"`
}

// Checker compares the running version against the latest release
type Checker struct {
	client  *http.Client
	url     string
	current string
	logger  *slog.Logger
}

// NewChecker creates a checker for the release endpoint at url
func NewChecker(client *http.Client, url, current string, logger *slog.Logger) *Checker {
	if client == nil {
		client = http.DefaultClient
	}
	return &Checker{
		client:  client,
		url:     url,
		current: current,
		logger:  logger,
	}
}

// Check fetches the latest release and reports whether it is newer than the
// running version. Development builds are never reported as outdated.
func (c *Checker) Check(ctx context.Context) (*Release, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "cursorgallery")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("failed to fetch release metadata: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, false, fmt.Errorf("failed to fetch release metadata: unexpected status %s", resp.Status)
	}

	var rel Release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, false, fmt.Errorf("failed to decode release metadata: %w", err)
	}

	latest := canonical(rel.TagName)
	if !semver.IsValid(latest) {
		return nil, false, fmt.Errorf("release tag %q is not a semantic version", rel.TagName)
	}

	current := canonical(c.current)
	if !semver.IsValid(current) {
		c.logger.Debug("running version is not a release, skipping comparison", "version", c.current)
		return &rel, false, nil
	}

	return &rel, semver.Compare(latest, current) > 0, nil
}

// canonical adds the "v" prefix semver expects
func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}
