package inventory

import (
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FileRecord is one local asset file relative to the library root
type FileRecord struct {
	RelativePath string
	Fingerprint  string
}

// RemoteFileRecord is one asset file as described by the remote source
type RemoteFileRecord struct {
	RelativePath        string
	RemoteID            string // object id or archive entry name
	DeclaredFingerprint string // empty if the remote did not provide one
	Size                int64  // -1 if unknown
}

// HasFingerprint reports whether the remote declared a fingerprint
func (r RemoteFileRecord) HasFingerprint() bool {
	return r.DeclaredFingerprint != ""
}

// Local maps normalized relative paths to local file records
type Local map[string]FileRecord

// Remote maps normalized relative paths to remote file records
type Remote map[string]RemoteFileRecord

// Paths returns the inventory keys in lexicographic order
func (r Remote) Paths() []string {
	paths := make([]string, 0, len(r))
	for p := range r {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Filter returns the entries matching any of patterns. An empty pattern
// list keeps everything except hidden paths, which the scanner never
// reports locally.
func (r Remote) Filter(patterns []string) Remote {
	out := make(Remote, len(r))
	for p, rec := range r {
		if IsHidden(p) {
			continue
		}
		if Match(patterns, p) {
			out[p] = rec
		}
	}
	return out
}

// IsHidden reports whether any segment of the normalized relative path
// starts with a dot.
func IsHidden(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") && seg != "." {
			return true
		}
	}
	return false
}

// Match reports whether the normalized relative path matches any pattern.
// Matching is case-insensitive since asset names come from Windows authors.
func Match(patterns []string, rel string) bool {
	if len(patterns) == 0 {
		return true
	}
	lower := strings.ToLower(rel)
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(strings.ToLower(pattern), lower); err == nil && ok {
			return true
		}
	}
	return false
}

// NormalizePath converts p to the inventory key form: forward slashes,
// cleaned, without leading "./" or "/".
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}

// ValidatePatterns checks that all include patterns are well formed
func ValidatePatterns(patterns []string) error {
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return &PatternError{Pattern: pattern}
		}
	}
	return nil
}

// PatternError reports a malformed include pattern
type PatternError struct {
	Pattern string
}

func (e *PatternError) Error() string {
	return "invalid include pattern: " + e.Pattern
}
