// Package reference holds the curated table of supported UV monitoring cities
// and the lookups used to map free-form location text onto it.
package reference

import (
	"strings"

	"github.com/liam996405/uv-index-service/internal/models"
)

// Table is an immutable, ordered set of CityInfo entries with short-name and
// alternate-name indexes. Iteration order is insertion order and decides
// tie-breaks in fuzzy and nearest-city lookups.
type Table struct {
	entries    []models.CityInfo
	byID       map[string]int
	shortNames map[string]string // lower-case short code -> id
	alternates map[string]string // compacted lower-case name -> id
}

// NewTable builds a Table. shortNames and alternates map keys to entry ids;
// keys are lower-cased, and keys pointing at unknown ids are ignored on lookup.
func NewTable(entries []models.CityInfo, shortNames, alternates map[string]string) *Table {
	t := &Table{
		entries:    make([]models.CityInfo, len(entries)),
		byID:       make(map[string]int, len(entries)),
		shortNames: make(map[string]string, len(shortNames)),
		alternates: make(map[string]string, len(alternates)),
	}
	copy(t.entries, entries)
	for i, e := range t.entries {
		if _, dup := t.byID[e.ID]; !dup {
			t.byID[e.ID] = i
		}
	}
	for k, v := range shortNames {
		t.shortNames[strings.ToLower(k)] = v
	}
	for k, v := range alternates {
		t.alternates[compact(k)] = v
	}
	return t
}

// ListAll returns a copy of all entries in table order.
func (t *Table) ListAll() []models.CityInfo {
	out := make([]models.CityInfo, len(t.entries))
	copy(out, t.entries)
	return out
}

// LookupByID returns the entry whose canonical id equals id exactly.
func (t *Table) LookupByID(id string) (models.CityInfo, bool) {
	i, ok := t.byID[id]
	if !ok {
		return models.CityInfo{}, false
	}
	return t.entries[i], true
}

// LookupByShortName matches a 3-letter station code case-insensitively. The
// short-name index is consulted first; codes missing from it are found by a
// linear scan of the entries.
func (t *Table) LookupByShortName(code string) (models.CityInfo, bool) {
	if code == "" {
		return models.CityInfo{}, false
	}
	lower := strings.ToLower(code)
	if id, ok := t.shortNames[lower]; ok {
		if info, ok := t.LookupByID(id); ok {
			return info, true
		}
	}
	for _, e := range t.entries {
		if strings.ToLower(e.ShortName) == lower {
			return e, true
		}
	}
	return models.CityInfo{}, false
}

// LookupByFuzzyName resolves free-form text. First hit wins:
// exact id, alternate name (spaces removed, lower-cased), short name,
// then bidirectional case-insensitive containment against id and name.
func (t *Table) LookupByFuzzyName(text string) (models.CityInfo, bool) {
	if text == "" {
		return models.CityInfo{}, false
	}
	if info, ok := t.LookupByID(text); ok {
		return info, true
	}
	if id, ok := t.alternates[compact(text)]; ok {
		if info, ok := t.LookupByID(id); ok {
			return info, true
		}
	}
	lower := strings.ToLower(text)
	if id, ok := t.shortNames[lower]; ok {
		if info, ok := t.LookupByID(id); ok {
			return info, true
		}
	}
	for _, e := range t.entries {
		if containsEither(lower, strings.ToLower(e.ID)) || containsEither(lower, strings.ToLower(e.Name)) {
			return e, true
		}
	}
	return models.CityInfo{}, false
}

// containsEither reports whether a contains b or b contains a.
func containsEither(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// compact lower-cases s and drops all whitespace: "Gold Coast" -> "goldcoast".
func compact(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "")
}
