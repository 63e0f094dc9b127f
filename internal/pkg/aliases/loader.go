package aliases

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/entity"
)

// Sources says where alias data lives on disk. Files may be YAML or JSON.
type Sources struct {
	// MastersPath is a file or a directory of master lists.
	MastersPath string
	// OverlaysDir holds one file per bookmaker; the file name is the source name.
	OverlaysDir string
	// ExchangeOverlay is the overlay file name (without extension) treated as the exchange tier.
	ExchangeOverlay string
	// SynonymsPath is an optional id -> spellings file of observed synonyms.
	SynonymsPath string
	UseSynonyms  bool
}

type overlayFile struct {
	Teams        map[string]string `yaml:"teams"`
	Competitions map[string]string `yaml:"competitions"`
}

// Load reads every source and builds the index.
func Load(src Sources, classifier *entity.Classifier) (*Index, Report, error) {
	b := NewBuilder(classifier)

	masterFiles, err := dataFiles(src.MastersPath)
	if err != nil {
		return nil, Report{}, fmt.Errorf("failed to list master files: %w", err)
	}
	if len(masterFiles) == 0 {
		return nil, Report{}, fmt.Errorf("no master alias files under %q", src.MastersPath)
	}
	for _, path := range masterFiles {
		var records []MasterRecord
		if err := readYAML(path, &records); err != nil {
			return nil, Report{}, err
		}
		b.AddMasters(sourceName(path), records)
	}

	if src.OverlaysDir != "" {
		overlayFiles, err := dataFiles(src.OverlaysDir)
		if err != nil {
			return nil, Report{}, fmt.Errorf("failed to list overlay files: %w", err)
		}
		for _, path := range overlayFiles {
			var of overlayFile
			if err := readYAML(path, &of); err != nil {
				return nil, Report{}, err
			}
			name := sourceName(path)
			priority := PriorityBookmaker
			if src.ExchangeOverlay != "" && strings.EqualFold(name, src.ExchangeOverlay) {
				priority = PriorityExchange
			}
			b.AddAliases(name, priority, mapRecords(of.Teams, KindTeam))
			b.AddAliases(name, priority, mapRecords(of.Competitions, KindCompetition))
		}
	}

	if src.UseSynonyms && src.SynonymsPath != "" {
		var syn map[string][]string
		if err := readYAML(src.SynonymsPath, &syn); err != nil {
			return nil, Report{}, err
		}
		ids := make([]string, 0, len(syn))
		for id := range syn {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		var records []AliasRecord
		for _, id := range ids {
			for _, s := range syn[id] {
				records = append(records, AliasRecord{Key: s, ID: id})
			}
		}
		b.AddAliases(sourceName(src.SynonymsPath), PrioritySynonym, records)
	}

	return b.Build()
}

func mapRecords(m map[string]string, kind Kind) []AliasRecord {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]AliasRecord, 0, len(keys))
	for _, k := range keys {
		out = append(out, AliasRecord{Key: k, ID: m[k], Kind: kind})
	}
	return out
}

func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read alias file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse alias file %s: %w", path, err)
	}
	return nil
}

func dataFiles(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
			out = append(out, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

func sourceName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
