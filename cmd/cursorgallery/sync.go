package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/cursorgallery/cursorgallery/internal/inventory"
	"github.com/cursorgallery/cursorgallery/internal/remote"
	"github.com/cursorgallery/cursorgallery/internal/sync"
)

var (
	dryRun     bool
	assumeYes  bool
	noProgress bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download missing and changed theme files from the remote source",
	Long: `Sync lists the configured remote source, fingerprints the local library and
downloads every file that is missing locally or whose content differs.

Local files are never deleted. Files the remote does not provide a checksum
for are kept as they are.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be downloaded without making changes")
	syncCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "download without asking for confirmation")
	syncCmd.Flags().BoolVar(&noProgress, "no-progress", false, "do not print progress lines")
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, cancel := setupSignalHandler()
	defer cancel()

	logger := setupLogger()

	cfg, err := loadConfig(logger)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HasRemote() {
		return fmt.Errorf("no remote source configured (set remote.listing.root_folder_id or remote.archive.url)")
	}

	fetcher, err := remote.New(cfg, &http.Client{Timeout: cfg.Remote.Timeout}, logger)
	if err != nil {
		return fmt.Errorf("failed to create remote fetcher: %w", err)
	}

	fs := afero.NewOsFs()
	scanner := inventory.NewScanner(fs, cfg.Sync.Patterns, cfg.Sync.Workers, logger)

	out := cmd.OutOrStdout()
	opts := []sync.Option{
		sync.WithDryRun(dryRun),
		sync.WithConfirm(func(plan *sync.Plan) (bool, error) {
			renderPlan(out, plan)
			if assumeYes {
				return true, nil
			}
			return confirmDownload(plan)
		}),
	}
	if !noProgress {
		opts = append(opts, sync.WithProgress(newProgressPrinter(cmd.ErrOrStderr()).print))
	}

	engine := sync.NewEngine(cfg, fetcher, scanner, fs, logger, opts...)

	report, err := engine.Run(ctx)
	if err != nil {
		logger.Error("sync failed", "error", err)
		return err
	}

	switch {
	case report.DryRun:
		renderPlan(out, report.Plan)
	case report.Declined:
		_, _ = fmt.Fprintln(out, dimStyle.Render("Nothing downloaded."))
	case report.Result != nil && report.Result.Written > 0:
		_, _ = fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("Downloaded %d files (%s) in %s.",
			report.Result.Written,
			humanize.Bytes(uint64(report.Result.Bytes)),
			report.Result.Duration.Round(time.Millisecond))))
	default:
		renderPlan(out, report.Plan)
	}

	return nil
}

func confirmDownload(plan *sync.Plan) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(fmt.Sprintf("Download %d files (%s)?", len(plan.Entries), humanize.Bytes(uint64(plan.Bytes())))).
		Affirmative("Download").
		Negative("Cancel").
		Value(&ok).
		Run()
	if err != nil {
		return false, err
	}
	return ok, nil
}
