package aliases

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/entity"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/textnorm"
)

// Source priorities. On a key conflict across tiers the higher one wins.
const (
	PriorityBookmaker = 100
	PriorityExchange  = 80
	PriorityMaster    = 60
	PrioritySynonym   = 40
)

// ErrLint is wrapped by Build when the alias data has conflicts or orphans.
var ErrLint = errors.New("aliases: lint failed")

// MasterRecord is one canonical entity from the master list.
type MasterRecord struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	Kind    Kind     `yaml:"kind"`
	Aliases []string `yaml:"aliases"`
}

// AliasRecord maps one raw spelling to a canonical id.
type AliasRecord struct {
	Key  string
	ID   string
	Kind Kind
}

// Conflict is a normalized key claimed by several ids at the same priority.
type Conflict struct {
	Kind    Kind
	Key     string
	IDs     []string
	Sources []string
}

// Orphan is an alias pointing at an id missing from the master list.
type Orphan struct {
	Source string
	Key    string
	ID     string
}

// Warning is reported but does not reject the build.
type Warning struct {
	Code   string
	Source string
	Key    string
	ID     string
	Detail string
}

// Warning codes.
const (
	WarnOverride     = "OVERRIDE"
	WarnFlaggedKey   = "FLAGGED_KEY_EXCLUDED"
	WarnKindMismatch = "KIND_MISMATCH"
)

// Report is the lint outcome of a build.
type Report struct {
	Conflicts []Conflict
	Orphans   []Orphan
	Warnings  []Warning
}

// OK reports whether the build can be used.
func (r Report) OK() bool {
	return len(r.Conflicts) == 0 && len(r.Orphans) == 0
}

type mapping struct {
	kind     Kind
	key      string
	raw      string
	id       string
	priority int
	source   string
}

// Builder accumulates alias sources. It is not safe for concurrent use.
type Builder struct {
	classifier *entity.Classifier
	masters    map[string]*Entry
	masterSrc  map[string]string
	order      []string
	mappings   []mapping
	report     Report
}

// NewBuilder returns an empty builder. The classifier drops alias keys that carry
// youth/reserve/women/B markers their canonical entity does not.
func NewBuilder(classifier *entity.Classifier) *Builder {
	if classifier == nil {
		classifier = entity.NewClassifier()
	}
	return &Builder{
		classifier: classifier,
		masters:    make(map[string]*Entry),
		masterSrc:  make(map[string]string),
	}
}

// AddMasters registers canonical entities. Their names and aliases are keyed at PriorityMaster.
func (b *Builder) AddMasters(source string, records []MasterRecord) {
	for _, r := range records {
		id := strings.TrimSpace(r.ID)
		name := strings.TrimSpace(r.Name)
		if id == "" || name == "" {
			b.report.Warnings = append(b.report.Warnings, Warning{
				Code: "INVALID_MASTER", Source: source, ID: id, Detail: "master record needs id and name",
			})
			continue
		}
		kind := r.Kind
		if kind == "" {
			kind = KindTeam
		}
		if prev, dup := b.masterSrc[id]; dup {
			b.report.Conflicts = append(b.report.Conflicts, Conflict{
				Kind: kind, Key: id, IDs: []string{id}, Sources: []string{prev, source},
			})
			continue
		}
		b.masters[id] = &Entry{ID: id, DisplayName: name, Kind: kind}
		b.masterSrc[id] = source
		b.order = append(b.order, id)

		b.add(mapping{kind: kind, raw: name, id: id, priority: PriorityMaster, source: source})
		for _, a := range r.Aliases {
			b.add(mapping{kind: kind, raw: a, id: id, priority: PriorityMaster, source: source})
		}
	}
}

// AddAliases registers overlay or synonym spellings at the given priority.
func (b *Builder) AddAliases(source string, priority int, records []AliasRecord) {
	for _, r := range records {
		b.add(mapping{kind: r.Kind, raw: r.Key, id: strings.TrimSpace(r.ID), priority: priority, source: source})
	}
}

func (b *Builder) add(m mapping) {
	m.raw = strings.TrimSpace(m.raw)
	m.key = textnorm.Normalize(m.raw)
	if m.key == "" {
		return
	}
	b.mappings = append(b.mappings, m)
}

// Build resolves precedence, lints, and returns the index. A non-OK report yields an error
// wrapping ErrLint; the report is returned either way.
func (b *Builder) Build() (*Index, Report, error) {
	report := Report{
		Conflicts: append([]Conflict(nil), b.report.Conflicts...),
		Warnings:  append([]Warning(nil), b.report.Warnings...),
	}

	type keyRef struct {
		kind Kind
		key  string
	}
	groups := make(map[keyRef][]mapping)
	var keyOrder []keyRef

	for _, m := range b.mappings {
		e, ok := b.masters[m.id]
		if !ok {
			report.Orphans = append(report.Orphans, Orphan{Source: m.source, Key: m.raw, ID: m.id})
			continue
		}
		if m.kind == "" {
			m.kind = e.Kind
		}
		if m.kind != e.Kind {
			report.Warnings = append(report.Warnings, Warning{
				Code: WarnKindMismatch, Source: m.source, Key: m.raw, ID: m.id,
				Detail: fmt.Sprintf("alias kind %s, entity kind %s", m.kind, e.Kind),
			})
			m.kind = e.Kind
		}
		if b.flagsDiffer(m.raw, e.DisplayName) {
			report.Warnings = append(report.Warnings, Warning{
				Code: WarnFlaggedKey, Source: m.source, Key: m.raw, ID: m.id,
				Detail: "alias carries youth/reserve/women/B markers absent from " + e.DisplayName,
			})
			continue
		}
		ref := keyRef{kind: m.kind, key: m.key}
		if _, seen := groups[ref]; !seen {
			keyOrder = append(keyOrder, ref)
		}
		groups[ref] = append(groups[ref], m)
	}

	ix := newIndex()
	for _, id := range b.order {
		e := *b.masters[id]
		ix.entries[id] = &e
	}

	for _, ref := range keyOrder {
		ms := groups[ref]
		top := ms[0].priority
		for _, m := range ms[1:] {
			if m.priority > top {
				top = m.priority
			}
		}

		var winners []mapping
		for _, m := range ms {
			if m.priority == top {
				winners = append(winners, m)
			}
		}
		if ids := distinctIDs(winners); len(ids) > 1 {
			report.Conflicts = append(report.Conflicts, Conflict{
				Kind: ref.kind, Key: ref.key, IDs: ids, Sources: distinctSources(winners),
			})
			continue
		}

		winner := winners[0]
		for _, m := range ms {
			if m.priority < top && m.id != winner.id {
				report.Warnings = append(report.Warnings, Warning{
					Code: WarnOverride, Source: winner.source, Key: m.raw, ID: winner.id,
					Detail: fmt.Sprintf("overrides %s from %s", m.id, m.source),
				})
			}
		}

		byKind := ix.keys[ref.kind]
		if byKind == nil {
			byKind = make(map[string]string)
			ix.keys[ref.kind] = byKind
		}
		byKind[ref.key] = winner.id

		e := ix.entries[winner.id]
		e.Keys = append(e.Keys, ref.key)
		for _, m := range ms {
			if m.id == winner.id {
				e.Spellings = appendUnique(e.Spellings, m.raw)
			}
		}
	}

	for _, e := range ix.entries {
		sort.Strings(e.Keys)
		e.Spellings = displayFirst(e.DisplayName, e.Spellings)
	}

	if !report.OK() {
		return ix, report, fmt.Errorf("%w: %d conflicts, %d orphans", ErrLint, len(report.Conflicts), len(report.Orphans))
	}
	return ix, report, nil
}

func (b *Builder) flagsDiffer(raw, display string) bool {
	rf := b.classifier.Classify(raw)
	if !rf.Any() {
		return false
	}
	df := b.classifier.Classify(display)
	return rf.Women != df.Women || rf.Youth != df.Youth || rf.Reserve != df.Reserve || rf.BTeam != df.BTeam
}

func distinctIDs(ms []mapping) []string {
	var out []string
	for _, m := range ms {
		out = appendUnique(out, m.id)
	}
	sort.Strings(out)
	return out
}

func distinctSources(ms []mapping) []string {
	var out []string
	for _, m := range ms {
		out = appendUnique(out, m.source)
	}
	return out
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

func displayFirst(display string, spellings []string) []string {
	out := []string{display}
	for _, s := range spellings {
		if s != display {
			out = append(out, s)
		}
	}
	return out
}
