package sync

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"

	"github.com/cursorgallery/cursorgallery/internal/inventory"
	"github.com/cursorgallery/cursorgallery/internal/progress"
)

// Status is the lifecycle state of an Executor
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

const tempPattern = ".cursorgallery-tmp-*"

// Source opens remote file contents
type Source interface {
	Open(ctx context.Context, rec inventory.RemoteFileRecord) (io.ReadCloser, error)
}

// Result summarizes an execution
type Result struct {
	Written  int
	Bytes    int64
	Duration time.Duration
}

// Executor downloads the entries of a plan into the library directory
type Executor struct {
	fs     afero.Fs
	root   string
	src    Source
	logger *slog.Logger

	busy   atomic.Bool
	status atomic.Value
}

// NewExecutor creates an executor writing below root
func NewExecutor(fs afero.Fs, root string, src Source, logger *slog.Logger) *Executor {
	e := &Executor{
		fs:     fs,
		root:   root,
		src:    src,
		logger: logger,
	}
	e.status.Store(StatusIdle)
	return e
}

// Status returns the current state. Safe for concurrent use.
func (e *Executor) Status() Status {
	return e.status.Load().(Status)
}

// Execute downloads every plan entry in order. Each file is written to a
// temporary file and renamed over the target. The first failure aborts the
// remaining entries. Cancellation is checked between entries and between
// copied chunks.
func (e *Executor) Execute(ctx context.Context, plan *Plan, onProgress progress.Func) (*Result, error) {
	if !e.busy.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer e.busy.Store(false)

	e.status.Store(StatusRunning)
	start := time.Now()
	result := &Result{}
	meter := progress.NewMeter(progress.PhaseDownload, onProgress)

	finish := func(status Status, err error) (*Result, error) {
		result.Duration = time.Since(start)
		e.status.Store(status)
		return result, err
	}

	if plan.Empty() {
		meter.Finish(0, "nothing to fetch")
		return finish(StatusCompleted, nil)
	}

	total := int64(len(plan.Entries))
	for i, entry := range plan.Entries {
		if err := ctx.Err(); err != nil {
			e.logger.Warn("fetch cancelled", "written", result.Written, "remaining", len(plan.Entries)-i)
			return finish(StatusCancelled, fmt.Errorf("fetch cancelled: %w", err))
		}

		n, err := e.fetch(ctx, entry)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				e.logger.Warn("fetch cancelled", "path", entry.Remote.RelativePath)
				return finish(StatusCancelled, fmt.Errorf("fetch cancelled: %w", err))
			}
			e.logger.Error("fetch failed", "path", entry.Remote.RelativePath, "error", err)
			return finish(StatusFailed, fmt.Errorf("failed to fetch %s: %w", entry.Remote.RelativePath, err))
		}

		result.Written++
		result.Bytes += n
		e.logger.Info("fetched file", "path", entry.Remote.RelativePath, "reason", entry.Reason, "bytes", n)
		meter.Report(int64(i+1), total, result.Bytes, entry.Remote.RelativePath)
	}

	return finish(StatusCompleted, nil)
}

// fetch streams one remote file into place and returns the bytes written
func (e *Executor) fetch(ctx context.Context, entry Entry) (int64, error) {
	rel := inventory.NormalizePath(entry.Remote.RelativePath)
	if rel == "" {
		return 0, fmt.Errorf("empty relative path")
	}
	dst := filepath.Join(e.root, filepath.FromSlash(rel))
	dir := filepath.Dir(dst)

	if err := e.fs.MkdirAll(dir, 0755); err != nil {
		return 0, err
	}

	rc, err := e.src.Open(ctx, entry.Remote)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = rc.Close()
	}()

	tmpFile, err := afero.TempFile(e.fs, dir, tempPattern)
	if err != nil {
		return 0, err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = e.fs.Remove(tmpPath)
	}() // cleanup on error

	h := md5.New()
	n, err := io.Copy(io.MultiWriter(tmpFile, h), &ctxReader{ctx: ctx, r: rc})
	if err != nil {
		_ = tmpFile.Close()
		return n, err
	}

	if err := tmpFile.Close(); err != nil {
		return n, err
	}

	if entry.Remote.HasFingerprint() {
		if got := hex.EncodeToString(h.Sum(nil)); got != entry.Remote.DeclaredFingerprint {
			return n, fmt.Errorf("fingerprint mismatch: got %s, want %s", got, entry.Remote.DeclaredFingerprint)
		}
	}

	if err := e.fs.Rename(tmpPath, dst); err != nil {
		return n, err
	}

	return n, nil
}

// ctxReader fails the copy once ctx is done
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
