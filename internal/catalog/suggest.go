package catalog

import (
	"github.com/sahilm/fuzzy"
)

// Suggest returns up to limit themes whose names best match name, ranked by
// match quality. It is used for "did you mean" hints.
func (l *Library) Suggest(name string, limit int) []Key {
	if limit <= 0 {
		return nil
	}

	var keys []Key
	var names []string
	for _, cat := range Categories {
		for _, t := range l.themes[cat] {
			keys = append(keys, t.Key())
			names = append(names, t.Name)
		}
	}

	matches := fuzzy.Find(name, names)
	out := make([]Key, 0, limit)
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, keys[m.Index])
	}
	return out
}
