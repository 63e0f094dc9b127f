package resolver

import (
	"strings"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/textnorm"
)

func isDrawRunner(name string) bool {
	n := textnorm.Normalize(name)
	return n == "draw" || n == "the draw"
}

func isYesRunner(name string) bool {
	return textnorm.Normalize(name) == "yes"
}

// parseYesLabel extracts the team part of a combined-market runner label such
// as "Arsenal/Yes", "Arsenal - Yes", "Arsenal (Yes)" or "Yes/Arsenal".
func parseYesLabel(label string) (string, bool) {
	tokens := textnorm.Tokens(label)
	switch {
	case len(tokens) == 0:
		return "", false
	case tokens[len(tokens)-1] == "yes":
		return strings.Join(tokens[:len(tokens)-1], " "), true
	case tokens[0] == "yes":
		return strings.Join(tokens[1:], " "), true
	}
	return "", false
}

var (
	homePlaceholders = map[string]struct{}{"home": {}, "home team": {}, "1": {}}
	awayPlaceholders = map[string]struct{}{"away": {}, "away team": {}, "2": {}}
)
