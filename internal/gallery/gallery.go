// Package gallery combines the theme catalog, the user state and the cursor
// applier into the operations offered to the user.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/cursorgallery/cursorgallery/internal/catalog"
	"github.com/cursorgallery/cursorgallery/internal/cursor"
	"github.com/cursorgallery/cursorgallery/internal/userstate"
)

const maxSuggestions = 3

// ErrThemeNotFound is matched by every *NotFoundError
var ErrThemeNotFound = errors.New("theme not found")

// NotFoundError reports an unknown theme together with close matches
type NotFoundError struct {
	Key         catalog.Key
	Suggestions []catalog.Key
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("theme %s not found", e.Key)
	if len(e.Suggestions) == 0 {
		return msg
	}
	hints := make([]string, 0, len(e.Suggestions))
	for _, k := range e.Suggestions {
		hints = append(hints, k.String())
	}
	return msg + " (did you mean " + strings.Join(hints, ", ") + "?)"
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrThemeNotFound
}

// Service is the gallery used by the command line
type Service struct {
	fs      afero.Fs
	root    string
	perPage int
	applier cursor.Applier
	state   *userstate.Store
	logger  *slog.Logger

	mu  sync.RWMutex
	lib *catalog.Library
}

// New loads the library at root and returns a ready service
func New(fs afero.Fs, root string, perPage int, applier cursor.Applier, state *userstate.Store, logger *slog.Logger) (*Service, error) {
	s := &Service{
		fs:      fs,
		root:    root,
		perPage: perPage,
		applier: applier,
		state:   state,
		logger:  logger,
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the library from disk
func (s *Service) Reload() error {
	lib, err := catalog.Load(s.fs, s.root)
	if err != nil {
		return fmt.Errorf("failed to load library: %w", err)
	}

	s.mu.Lock()
	s.lib = lib
	s.mu.Unlock()

	s.logger.Debug("library loaded", "root", s.root, "themes", lib.Len())
	return nil
}

// Library returns the current library snapshot
func (s *Service) Library() *catalog.Library {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lib
}

// Browse returns one page of themes. In favorites mode the stored
// favorites are used and the category is ignored.
func (s *Service) Browse(q catalog.Query) catalog.Page {
	if q.PerPage <= 0 {
		q.PerPage = s.perPage
	}
	if q.FavoritesOnly {
		q.Favorites = s.state.Favorites()
	}
	return s.Library().Browse(q)
}

// Apply activates the theme and records it as recently applied
func (s *Service) Apply(ctx context.Context, key catalog.Key) (*catalog.Theme, error) {
	theme, err := s.find(key)
	if err != nil {
		return nil, err
	}

	if err := s.applier.Apply(ctx, cursor.Scheme(theme.Cursors)); err != nil {
		return nil, fmt.Errorf("failed to apply %s: %w", key, err)
	}
	s.logger.Info("theme applied", "theme", key.String(), "cursors", len(theme.Cursors))

	s.state.PushRecent(theme.Name)
	if err := s.state.Save(); err != nil {
		return theme, err
	}
	return theme, nil
}

// Reset restores the system default pointers
func (s *Service) Reset(ctx context.Context) error {
	if err := s.applier.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset cursors: %w", err)
	}
	s.logger.Info("default cursors restored")
	return nil
}

// ToggleFavorite flips the favorite flag of key and reports the new state.
// Unknown themes can be removed from favorites but not added.
func (s *Service) ToggleFavorite(key catalog.Key) (bool, error) {
	if !s.state.IsFavorite(key) {
		if _, err := s.find(key); err != nil {
			return false, err
		}
	}

	now := s.state.ToggleFavorite(key)
	if err := s.state.Save(); err != nil {
		return now, err
	}
	return now, nil
}

// IsFavorite reports whether key is a favorite
func (s *Service) IsFavorite(key catalog.Key) bool {
	return s.state.IsFavorite(key)
}

// Recent returns recently applied theme names, newest first
func (s *Service) Recent() []string {
	return s.state.Recent()
}

func (s *Service) find(key catalog.Key) (*catalog.Theme, error) {
	lib := s.Library()
	if theme, ok := lib.Theme(key); ok {
		return theme, nil
	}
	return nil, &NotFoundError{Key: key, Suggestions: lib.Suggest(key.Name, maxSuggestions)}
}
