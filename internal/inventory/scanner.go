package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// Scanner builds a Local inventory from a directory tree
type Scanner struct {
	fs       afero.Fs
	patterns []string
	workers  int
	logger   *slog.Logger
}

// NewScanner creates a scanner. Files are kept when their relative path
// matches any of patterns; no patterns means every file.
func NewScanner(fs afero.Fs, patterns []string, workers int, logger *slog.Logger) *Scanner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Scanner{
		fs:       fs,
		patterns: patterns,
		workers:  workers,
		logger:   logger,
	}
}

// Patterns returns the include patterns used by the scanner
func (s *Scanner) Patterns() []string {
	return s.patterns
}

// Scan walks root and fingerprints every matching regular file. A missing
// root is created and yields an empty inventory. Files that cannot be
// fingerprinted are logged and left out.
func (s *Scanner) Scan(ctx context.Context, root string) (Local, error) {
	if err := s.fs.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create library directory: %w", err)
	}

	candidates, err := s.discover(ctx, root)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("discovered local files", "root", root, "count", len(candidates))

	var (
		mu    sync.Mutex
		local = make(Local, len(candidates))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for rel, abs := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			fp, err := FingerprintFile(s.fs, abs)
			if err != nil {
				s.logger.Warn("skipping unreadable file", "path", rel, "error", err)
				return nil
			}

			mu.Lock()
			local[rel] = FileRecord{RelativePath: rel, Fingerprint: fp}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return local, nil
}

// discover returns relative path -> absolute path for matching files.
// Hidden files and directories (e.g. in-flight temp files) are skipped.
func (s *Scanner) discover(ctx context.Context, root string) (map[string]string, error) {
	files := make(map[string]string)

	err := afero.Walk(s.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path != root {
				s.logger.Warn("skipping unreadable path", "path", path, "error", err)
				return nil
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if path != root && IsHidden(info.Name()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = NormalizePath(rel)

		if Match(s.patterns, rel) {
			files[rel] = path
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	return files, nil
}
