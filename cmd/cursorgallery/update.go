package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/cursorgallery/cursorgallery/internal/update"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check whether a newer release is available",
	Args:  cobra.NoArgs,
	RunE:  runUpdate,
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx, cancel := setupSignalHandler()
	defer cancel()

	logger := setupLogger()

	cfg, err := loadConfigOrDefault(logger)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Update.ReleaseURL == "" {
		return fmt.Errorf("update.release_url is not configured")
	}

	checker := update.NewChecker(&http.Client{Timeout: cfg.Remote.Timeout}, cfg.Update.ReleaseURL, version, logger)
	rel, newer, err := checker.Check(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !newer {
		_, _ = fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("cursorgallery %s is up to date (latest release %s).", version, rel.TagName)))
		return nil
	}

	_, _ = fmt.Fprintln(out, favoriteStyle.Render(fmt.Sprintf("cursorgallery %s is available (running %s).", rel.TagName, version)))
	if rel.HTMLURL != "" {
		_, _ = fmt.Fprintf(out, "  release notes: %s\n", rel.HTMLURL)
	}
	if rel.ZipballURL != "" {
		_, _ = fmt.Fprintf(out, "  download:      %s\n", rel.ZipballURL)
	}
	return nil
}
