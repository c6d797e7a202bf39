// Package catalog loads the local theme library and answers browse queries.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/afero"
)

// Category groups themes in the library
type Category string

const (
	Anime   Category = "anime"
	Classic Category = "classic"
)

// Categories lists every category in display order
var Categories = []Category{Anime, Classic}

const previewName = "preview.gif"

// Dir returns the library subdirectory holding the category
func (c Category) Dir() string {
	switch c {
	case Anime:
		return "Anime"
	case Classic:
		return "Classic"
	default:
		return string(c)
	}
}

// ParseCategory accepts a category name in any letter case
func ParseCategory(s string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case Anime:
		return Anime, nil
	case Classic:
		return Classic, nil
	default:
		return "", fmt.Errorf("unknown category %q (must be anime or classic)", s)
	}
}

// Key identifies a theme. Names are only unique within a category.
type Key struct {
	Category Category `json:"category"`
	Name     string   `json:"name"`
}

func (k Key) String() string {
	return string(k.Category) + "/" + k.Name
}

// Theme is one cursor theme directory
type Theme struct {
	Name     string
	Category Category
	Cursors  map[string]string // role -> absolute file path
	Preview  string            // absolute path, empty if the theme has none
}

// Key returns the composite identity of the theme
func (t *Theme) Key() Key {
	return Key{Category: t.Category, Name: t.Name}
}

// Library is an in-memory snapshot of the themes on disk
type Library struct {
	root   string
	themes map[Category][]*Theme
	index  map[Key]*Theme
}

// Load reads every theme below root. Missing category directories are
// created. Directories without any .cur or .ani file are not themes.
func Load(fs afero.Fs, root string) (*Library, error) {
	lib := &Library{
		root:   root,
		themes: make(map[Category][]*Theme),
		index:  make(map[Key]*Theme),
	}

	for _, cat := range Categories {
		dir := filepath.Join(root, cat.Dir())
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create category directory: %w", err)
		}

		entries, err := afero.ReadDir(fs, dir)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", dir, err)
		}

		for _, entry := range entries {
			if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			theme, err := loadTheme(fs, filepath.Join(dir, entry.Name()), cat)
			if err != nil {
				return nil, err
			}
			if theme == nil {
				continue
			}
			lib.themes[cat] = append(lib.themes[cat], theme)
			lib.index[theme.Key()] = theme
		}

		sort.SliceStable(lib.themes[cat], func(i, j int) bool {
			return strings.ToLower(lib.themes[cat][i].Name) < strings.ToLower(lib.themes[cat][j].Name)
		})
	}

	return lib, nil
}

func loadTheme(fs afero.Fs, dir string, cat Category) (*Theme, error) {
	files, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read theme %s: %w", dir, err)
	}

	theme := &Theme{
		Name:     filepath.Base(dir),
		Category: cat,
		Cursors:  make(map[string]string),
	}
	for _, f := range files {
		if !isRegular(f) {
			continue
		}
		lower := strings.ToLower(f.Name())
		switch {
		case lower == previewName:
			theme.Preview = filepath.Join(dir, f.Name())
		case strings.HasSuffix(lower, ".cur"), strings.HasSuffix(lower, ".ani"):
			role, _, _ := strings.Cut(lower, ".")
			if role == "" {
				continue
			}
			theme.Cursors[role] = filepath.Join(dir, f.Name())
		}
	}

	if len(theme.Cursors) == 0 {
		return nil, nil
	}
	return theme, nil
}

func isRegular(info os.FileInfo) bool {
	return info.Mode().IsRegular()
}

// Root returns the library directory
func (l *Library) Root() string {
	return l.root
}

// Theme looks up a theme by key
func (l *Library) Theme(key Key) (*Theme, bool) {
	t, ok := l.index[key]
	return t, ok
}

// Themes returns the themes of one category sorted by name
func (l *Library) Themes(cat Category) []*Theme {
	return l.themes[cat]
}

// Len returns the total number of themes
func (l *Library) Len() int {
	return len(l.index)
}

// Query selects a page of themes
type Query struct {
	Category      Category
	Search        string // fuzzy, case-insensitive; empty matches all
	FavoritesOnly bool   // ignore Category and list Favorites in their order
	Favorites     []Key
	Page          int // zero based
	PerPage       int
}

// Page is one page of a browse result
type Page struct {
	Themes     []*Theme
	Number     int // zero based, clamped to the last page
	TotalPages int // at least 1
	Total      int
}

// HasPrev reports whether an earlier page exists
func (p Page) HasPrev() bool {
	return p.Number > 0
}

// HasNext reports whether a later page exists
func (p Page) HasNext() bool {
	return p.Number+1 < p.TotalPages
}

// Browse filters and paginates the library
func (l *Library) Browse(q Query) Page {
	perPage := q.PerPage
	if perPage <= 0 {
		perPage = 12
	}

	var candidates []*Theme
	if q.FavoritesOnly {
		for _, key := range q.Favorites {
			if t, ok := l.index[key]; ok {
				candidates = append(candidates, t)
			}
		}
	} else {
		candidates = l.themes[q.Category]
	}

	search := strings.TrimSpace(q.Search)
	matched := make([]*Theme, 0, len(candidates))
	for _, t := range candidates {
		if search == "" || fuzzy.MatchNormalizedFold(search, t.Name) {
			matched = append(matched, t)
		}
	}

	total := len(matched)
	pages := (total + perPage - 1) / perPage
	if pages < 1 {
		pages = 1
	}

	number := q.Page
	if number >= pages {
		number = pages - 1
	}
	if number < 0 {
		number = 0
	}

	start := number * perPage
	end := start + perPage
	if end > total {
		end = total
	}

	return Page{
		Themes:     matched[start:end],
		Number:     number,
		TotalPages: pages,
		Total:      total,
	}
}
