package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/cursorgallery/cursorgallery/internal/catalog"
	"github.com/cursorgallery/cursorgallery/internal/config"
	"github.com/cursorgallery/cursorgallery/internal/cursor"
	"github.com/cursorgallery/cursorgallery/internal/gallery"
	"github.com/cursorgallery/cursorgallery/internal/userstate"
)

var (
	categoryName  string
	searchText    string
	favoritesOnly bool
	pageNumber    int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List themes of a category",
	Long: `List shows one page of themes. --search filters names with a fuzzy,
case-insensitive match; --favorites lists favorite themes of every category.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var applyCmd = &cobra.Command{
	Use:   "apply NAME",
	Short: "Make a theme the active pointer scheme",
	Args:  cobra.ExactArgs(1),
	RunE:  runApply,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the system default pointers",
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

var favoriteCmd = &cobra.Command{
	Use:   "favorite NAME",
	Short: "Add a theme to favorites, or remove it if it already is one",
	Args:  cobra.ExactArgs(1),
	RunE:  runFavorite,
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show recently applied themes",
	Args:  cobra.NoArgs,
	RunE:  runRecent,
}

func init() {
	for _, cmd := range []*cobra.Command{listCmd, applyCmd, favoriteCmd} {
		cmd.Flags().StringVarP(&categoryName, "category", "c", string(catalog.Anime), "theme category (anime, classic)")
	}
	listCmd.Flags().StringVarP(&searchText, "search", "s", "", "filter theme names")
	listCmd.Flags().BoolVarP(&favoritesOnly, "favorites", "f", false, "list favorites of all categories")
	listCmd.Flags().IntVarP(&pageNumber, "page", "p", 1, "page to show, starting at 1")
}

// newGallery wires the catalog, user state and cursor applier
func newGallery(logger *slog.Logger) (*gallery.Service, *config.Config, error) {
	cfg, err := loadConfigOrDefault(logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	fs := afero.NewOsFs()
	state, err := userstate.Open(fs, cfg.RecentFilePath(), cfg.FavoritesFilePath(), logger)
	if err != nil {
		return nil, nil, err
	}

	svc, err := gallery.New(fs, cfg.Paths.LibraryDir, cfg.Catalog.PerPage, cursor.NewClient(logger), state, logger)
	if err != nil {
		return nil, nil, err
	}
	return svc, cfg, nil
}

func themeKey(name string) (catalog.Key, error) {
	cat, err := catalog.ParseCategory(categoryName)
	if err != nil {
		return catalog.Key{}, err
	}
	return catalog.Key{Category: cat, Name: name}, nil
}

func runList(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	svc, _, err := newGallery(logger)
	if err != nil {
		return err
	}

	cat, err := catalog.ParseCategory(categoryName)
	if err != nil {
		return err
	}

	page := svc.Browse(catalog.Query{
		Category:      cat,
		Search:        searchText,
		FavoritesOnly: favoritesOnly,
		Page:          pageNumber - 1,
	})

	heading := "Themes: " + cat.Dir()
	if favoritesOnly {
		heading = "Favorites"
	}
	if searchText != "" {
		heading += fmt.Sprintf(" matching %q", searchText)
	}

	renderPage(cmd.OutOrStdout(), heading, page, svc.IsFavorite)
	return nil
}

func runApply(cmd *cobra.Command, args []string) error {
	ctx, cancel := setupSignalHandler()
	defer cancel()

	logger := setupLogger()

	svc, _, err := newGallery(logger)
	if err != nil {
		return err
	}

	key, err := themeKey(args[0])
	if err != nil {
		return err
	}

	theme, err := svc.Apply(ctx, key)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("Cursor theme '%s' applied.", theme.Name)))
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	ctx, cancel := setupSignalHandler()
	defer cancel()

	logger := setupLogger()

	svc, _, err := newGallery(logger)
	if err != nil {
		return err
	}

	if err := svc.Reset(ctx); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Default cursors restored."))
	return nil
}

func runFavorite(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	svc, _, err := newGallery(logger)
	if err != nil {
		return err
	}

	key, err := themeKey(args[0])
	if err != nil {
		return err
	}

	on, err := svc.ToggleFavorite(key)
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("%s removed from favorites.", key)
	if on {
		msg = favoriteStyle.Render("★") + fmt.Sprintf(" %s added to favorites.", key)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}

func runRecent(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	svc, _, err := newGallery(logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	recent := svc.Recent()
	if len(recent) == 0 {
		_, _ = fmt.Fprintln(out, dimStyle.Render("No themes applied yet."))
		return nil
	}

	_, _ = fmt.Fprintln(out, titleStyle.Render("Recently applied"))
	for i, name := range recent {
		_, _ = fmt.Fprintf(out, "%d. %s\n", i+1, name)
	}
	return nil
}
