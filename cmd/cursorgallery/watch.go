package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cursorgallery/cursorgallery/internal/catalog"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the library and report when themes are added or removed",
	Long: `Watch keeps running until interrupted and reloads the library whenever files
below it change, for example while a sync is writing new themes.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := setupSignalHandler()
	defer cancel()

	logger := setupLogger()

	svc, cfg, err := newGallery(logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printCounts := func() {
		lib := svc.Library()
		_, _ = fmt.Fprintf(out, "%s %d anime, %d classic\n",
			titleStyle.Render("library:"),
			len(lib.Themes(catalog.Anime)),
			len(lib.Themes(catalog.Classic)))
	}
	printCounts()

	watcher := catalog.NewWatcher(cfg.Paths.LibraryDir, catalog.DefaultDebounce, func() {
		if err := svc.Reload(); err != nil {
			logger.Error("reload failed", "error", err)
			return
		}
		printCounts()
	}, logger)

	return watcher.Run(ctx)
}
