// Package userstate persists recently applied themes and favorites.
package userstate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/cursorgallery/cursorgallery/internal/catalog"
)

// MaxRecent bounds the recently applied list
const MaxRecent = 5

// favoriteRecord is the on-disk form of a favorite
type favoriteRecord struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Store holds the user state in memory and writes it back on Save
type Store struct {
	fs            afero.Fs
	recentPath    string
	favoritesPath string
	logger        *slog.Logger

	mu        sync.Mutex
	recent    []string
	favorites []catalog.Key
	favSet    map[catalog.Key]struct{}
}

// Open loads both state files. Missing files yield empty state. A file that
// cannot be parsed is moved aside to <file>.corrupt and treated as empty.
func Open(fs afero.Fs, recentPath, favoritesPath string, logger *slog.Logger) (*Store, error) {
	s := &Store{
		fs:            fs,
		recentPath:    recentPath,
		favoritesPath: favoritesPath,
		logger:        logger,
		favSet:        make(map[catalog.Key]struct{}),
	}

	recent, err := s.loadRecent()
	if err != nil {
		return nil, err
	}
	for _, name := range recent {
		s.pushRecent(name, false)
	}

	favorites, err := s.loadFavorites()
	if err != nil {
		return nil, err
	}
	for _, key := range favorites {
		if _, dup := s.favSet[key]; dup {
			continue
		}
		s.favSet[key] = struct{}{}
		s.favorites = append(s.favorites, key)
	}

	return s, nil
}

// Recent returns theme names, most recently applied first
func (s *Store) Recent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.recent...)
}

// PushRecent moves name to the front of the recent list
func (s *Store) PushRecent(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushRecent(name, true)
}

// pushRecent inserts name at the front, or at the back while loading
func (s *Store) pushRecent(name string, front bool) {
	if name == "" {
		return
	}
	for i, existing := range s.recent {
		if existing == name {
			if !front {
				return
			}
			s.recent = append(s.recent[:i], s.recent[i+1:]...)
			break
		}
	}
	if front {
		s.recent = append([]string{name}, s.recent...)
	} else {
		s.recent = append(s.recent, name)
	}
	if len(s.recent) > MaxRecent {
		s.recent = s.recent[:MaxRecent]
	}
}

// Favorites returns favorite themes in the order they were added
func (s *Store) Favorites() []catalog.Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]catalog.Key(nil), s.favorites...)
}

// IsFavorite reports whether key is a favorite
func (s *Store) IsFavorite(key catalog.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.favSet[key]
	return ok
}

// ToggleFavorite adds or removes key and reports whether it is now a favorite
func (s *Store) ToggleFavorite(key catalog.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.favSet[key]; ok {
		delete(s.favSet, key)
		for i, existing := range s.favorites {
			if existing == key {
				s.favorites = append(s.favorites[:i], s.favorites[i+1:]...)
				break
			}
		}
		return false
	}

	s.favSet[key] = struct{}{}
	s.favorites = append(s.favorites, key)
	return true
}

// Save writes both files atomically
func (s *Store) Save() error {
	s.mu.Lock()
	recent := append([]string{}, s.recent...)
	favorites := make([]favoriteRecord, 0, len(s.favorites))
	for _, key := range s.favorites {
		favorites = append(favorites, favoriteRecord{Name: key.Name, Category: string(key.Category)})
	}
	s.mu.Unlock()

	if err := s.writeJSON(s.recentPath, recent); err != nil {
		return fmt.Errorf("failed to save recent themes: %w", err)
	}
	if err := s.writeJSON(s.favoritesPath, favorites); err != nil {
		return fmt.Errorf("failed to save favorites: %w", err)
	}
	return nil
}

func (s *Store) loadRecent() ([]string, error) {
	data, err := s.read(s.recentPath)
	if err != nil || data == nil {
		return nil, err
	}

	var recent []string
	if err := json.Unmarshal(data, &recent); err != nil {
		return nil, s.quarantine(s.recentPath, err)
	}
	return recent, nil
}

// loadFavorites accepts {name, category} objects and legacy bare names,
// which all belonged to anime. Both forms may appear in one list; each
// element is decoded on its own and unreadable elements are dropped.
func (s *Store) loadFavorites() ([]catalog.Key, error) {
	data, err := s.read(s.favoritesPath)
	if err != nil || data == nil {
		return nil, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, s.quarantine(s.favoritesPath, err)
	}

	keys := make([]catalog.Key, 0, len(raw))
	legacy := 0
	for i, elem := range raw {
		key, isLegacy, err := decodeFavorite(elem)
		if err != nil {
			s.logger.Warn("skipping unreadable favorite", "path", s.favoritesPath, "index", i, "error", err)
			continue
		}
		if key.Name == "" {
			continue
		}
		if isLegacy {
			legacy++
		}
		keys = append(keys, key)
	}

	if legacy > 0 {
		s.logger.Info("migrating legacy favorites", "count", legacy)
	}
	return keys, nil
}

func decodeFavorite(elem json.RawMessage) (catalog.Key, bool, error) {
	if trimmed := bytes.TrimSpace(elem); len(trimmed) > 0 && trimmed[0] == '"' {
		var name string
		if err := json.Unmarshal(trimmed, &name); err != nil {
			return catalog.Key{}, false, err
		}
		return catalog.Key{Category: catalog.Anime, Name: name}, true, nil
	}

	var r favoriteRecord
	if err := json.Unmarshal(elem, &r); err != nil {
		return catalog.Key{}, false, err
	}
	cat := catalog.Category(r.Category)
	if cat == "" {
		cat = catalog.Anime
	}
	return catalog.Key{Category: cat, Name: r.Name}, false, nil
}

// read returns nil data for a missing file
func (s *Store) read(path string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// quarantine moves an unparsable file aside so the next save does not
// destroy it. It returns an error only if the move itself fails.
func (s *Store) quarantine(path string, parseErr error) error {
	aside := path + ".corrupt"
	s.logger.Warn("state file is corrupt, starting empty", "path", path, "moved_to", aside, "error", parseErr)
	if err := s.fs.Rename(path, aside); err != nil {
		return fmt.Errorf("failed to move corrupt state file %s: %w", path, err)
	}
	return nil
}

func (s *Store) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmpFile, err := afero.TempFile(s.fs, dir, ".cursorgallery-tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = s.fs.Remove(tmpPath)
	}() // cleanup on error

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	return s.fs.Rename(tmpPath, path)
}
