// Package sync reconciles the local theme library with a remote source.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/cursorgallery/cursorgallery/internal/config"
	"github.com/cursorgallery/cursorgallery/internal/inventory"
	"github.com/cursorgallery/cursorgallery/internal/progress"
	"github.com/cursorgallery/cursorgallery/internal/remote"
)

// ErrSyncInProgress is returned when a sync is triggered while another one runs
var ErrSyncInProgress = errors.New("sync already in progress")

// ConfirmFunc is asked before any file is written. Returning false cancels
// the sync without error.
type ConfirmFunc func(plan *Plan) (bool, error)

// Option configures an Engine
type Option func(*Engine)

// WithDryRun makes Run stop after planning
func WithDryRun(dryRun bool) Option {
	return func(e *Engine) {
		e.dryRun = dryRun
	}
}

// WithConfirm sets the confirmation callback
func WithConfirm(fn ConfirmFunc) Option {
	return func(e *Engine) {
		e.confirm = fn
	}
}

// WithProgress sets the progress callback for both the inventory fetch and
// the download phase. Each phase reports its own 0-100 sequence.
func WithProgress(fn progress.Func) Option {
	return func(e *Engine) {
		e.onProgress = fn
	}
}

// Report describes the outcome of one sync operation
type Report struct {
	OperationID string
	Plan        *Plan
	Result      *Result
	DryRun      bool
	Declined    bool
}

// Engine orchestrates the sync process
type Engine struct {
	cfg        *config.Config
	fetcher    remote.Fetcher
	scanner    *inventory.Scanner
	fs         afero.Fs
	logger     *slog.Logger
	dryRun     bool
	confirm    ConfirmFunc
	onProgress progress.Func

	running  atomic.Bool
	executor atomic.Pointer[Executor]
}

// NewEngine creates a new sync engine
func NewEngine(cfg *config.Config, fetcher remote.Fetcher, scanner *inventory.Scanner, fs afero.Fs, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		cfg:     cfg,
		fetcher: fetcher,
		scanner: scanner,
		fs:      fs,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Status returns the state of the most recent download phase
func (e *Engine) Status() Status {
	if ex := e.executor.Load(); ex != nil {
		return ex.Status()
	}
	return StatusIdle
}

// Run executes the complete sync process. Only one Run or Check may be
// active at a time; concurrent calls fail with ErrSyncInProgress.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	if !e.running.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer e.running.Store(false)

	report := &Report{OperationID: newOperationID(), DryRun: e.dryRun}
	logger := e.logger.With("op", report.OperationID)

	logger.Info("starting sync",
		"strategy", e.cfg.Remote.Strategy,
		"library_dir", e.cfg.Paths.LibraryDir,
		"dry_run", e.dryRun)

	plan, err := e.plan(ctx, logger)
	if err != nil {
		return report, err
	}
	report.Plan = plan

	if e.dryRun {
		logPlanDetails(logger, plan)
		logger.Info("dry-run complete, no changes applied")
		return report, nil
	}

	if plan.Empty() {
		logger.Info("library is up to date")
	} else if e.confirm != nil {
		ok, err := e.confirm(plan)
		if err != nil {
			return report, fmt.Errorf("confirmation failed: %w", err)
		}
		if !ok {
			logger.Info("sync declined")
			report.Declined = true
			return report, nil
		}
	}

	executor := NewExecutor(e.fs, e.cfg.Paths.LibraryDir, e.fetcher, logger)
	e.executor.Store(executor)

	result, err := executor.Execute(ctx, plan, e.onProgress)
	report.Result = result
	if err != nil {
		return report, err
	}

	logger.Info("sync completed successfully",
		"written", result.Written,
		"bytes", result.Bytes,
		"duration", result.Duration)
	return report, nil
}

// Check computes the plan without downloading anything
func (e *Engine) Check(ctx context.Context) (*Plan, error) {
	if !e.running.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer e.running.Store(false)

	logger := e.logger.With("op", newOperationID())
	return e.plan(ctx, logger)
}

// plan scans the library and fetches the remote inventory concurrently,
// then compares them
func (e *Engine) plan(ctx context.Context, logger *slog.Logger) (*Plan, error) {
	var (
		local inventory.Local
		rem   inventory.Remote
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		local, err = e.scanner.Scan(gctx, e.cfg.Paths.LibraryDir)
		if err != nil {
			return fmt.Errorf("failed to scan library: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		rem, err = e.fetcher.Inventory(gctx, e.onProgress)
		if err != nil {
			return fmt.Errorf("failed to fetch remote inventory: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rem = rem.Filter(e.scanner.Patterns())
	logger.Info("inventories ready", "local", len(local), "remote", len(rem))

	plan := BuildPlan(local, rem)
	logger.Info("sync plan",
		"missing", plan.Count(ReasonMissing),
		"stale", plan.Count(ReasonStale),
		"unverified", len(plan.Unverified))

	return plan, nil
}

// logPlanDetails logs detailed plan information for dry-run
func logPlanDetails(logger *slog.Logger, plan *Plan) {
	for _, entry := range plan.Entries {
		logger.Info("[dry-run] would fetch", "path", entry.Remote.RelativePath, "reason", entry.Reason)
	}
	for _, rel := range plan.Unverified {
		logger.Info("[dry-run] no remote fingerprint, keeping local file", "path", rel)
	}
}

func newOperationID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
