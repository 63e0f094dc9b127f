// Package aliases maps free-text team spellings to canonical ids.
//
// An Index is built once from master data and alias overlays and is read-only afterwards;
// callers share one instance across goroutines.
package aliases

import (
	"sort"
	"strings"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/textnorm"
)

// Kind separates namespaces: a team and a competition may share a key.
type Kind string

const (
	KindTeam        Kind = "team"
	KindCompetition Kind = "competition"
)

// Entry is one canonical entity.
type Entry struct {
	ID          string   `json:"id" yaml:"id"`
	DisplayName string   `json:"name" yaml:"name"`
	Kind        Kind     `json:"kind" yaml:"kind"`
	Keys        []string `json:"keys" yaml:"keys"`
	// Spellings are raw variants, display name first, used for catalogue fan-out.
	Spellings []string `json:"spellings" yaml:"spellings"`
}

// Index is the compiled alias table.
type Index struct {
	keys    map[Kind]map[string]string
	entries map[string]*Entry
}

func newIndex() *Index {
	return &Index{
		keys:    make(map[Kind]map[string]string),
		entries: make(map[string]*Entry),
	}
}

// LookupCanonical returns the canonical team id for rawName.
func (ix *Index) LookupCanonical(rawName string) (string, bool) {
	return ix.Lookup(KindTeam, rawName)
}

// Lookup returns the canonical id for rawName within kind.
func (ix *Index) Lookup(kind Kind, rawName string) (string, bool) {
	if ix == nil {
		return "", false
	}
	key := textnorm.Normalize(rawName)
	if key == "" {
		return "", false
	}
	id, ok := ix.keys[kind][key]
	return id, ok
}

// AliasKeysForCanonical returns the normalized alias keys of id, sorted.
func (ix *Index) AliasKeysForCanonical(id string) []string {
	if ix == nil {
		return nil
	}
	e, ok := ix.entries[id]
	if !ok {
		return nil
	}
	out := make([]string, len(e.Keys))
	copy(out, e.Keys)
	return out
}

// Entry returns the canonical entry for id.
func (ix *Index) Entry(id string) (Entry, bool) {
	if ix == nil {
		return Entry{}, false
	}
	e, ok := ix.entries[id]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// DisplayName returns the canonical spelling for rawName, or rawName itself when unknown.
func (ix *Index) DisplayName(rawName string) string {
	if id, ok := ix.LookupCanonical(rawName); ok {
		if e := ix.entries[id]; e != nil && e.DisplayName != "" {
			return e.DisplayName
		}
	}
	return strings.TrimSpace(rawName)
}

// Variants returns the spellings to try against the exchange text search for rawName:
// the canonical display name first, then rawName, then the remaining alias spellings.
// Variants are unique by normalized form. Unknown names yield just rawName.
func (ix *Index) Variants(rawName string) []string {
	raw := strings.TrimSpace(rawName)
	if raw == "" {
		return nil
	}
	id, ok := ix.LookupCanonical(raw)
	if !ok {
		return []string{raw}
	}
	e := ix.entries[id]

	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		k := textnorm.Normalize(s)
		if k == "" {
			return
		}
		if _, dup := seen[k]; dup {
			return
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	add(e.DisplayName)
	add(raw)
	for _, s := range e.Spellings {
		add(s)
	}
	return out
}

// Len returns the number of canonical entries.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.entries)
}

// Entries returns all entries sorted by id.
func (ix *Index) Entries() []Entry {
	if ix == nil {
		return nil
	}
	out := make([]Entry, 0, len(ix.entries))
	for _, e := range ix.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
