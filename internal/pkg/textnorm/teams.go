package textnorm

import "strings"

// clubAffixes are dropped when comparing runner labels so "FC Porto/Yes" and "Porto" line up.
var clubAffixes = map[string]struct{}{
	"fc": {}, "cf": {}, "club": {}, "cp": {}, "the": {}, "de": {}, "cd": {}, "ud": {},
	"ac": {}, "sc": {}, "sv": {}, "bk": {}, "nk": {}, "fk": {}, "afc": {},
}

// tokenAliases expands the short forms exchanges and bookmakers use in runner labels.
var tokenAliases = map[string]string{
	"at": "atletico", "atl": "atletico", "atleti": "atletico",
	"ath": "athletic", "athl": "athletic",
	"sp": "sporting", "sport": "sporting",
	"lis": "lisbon", "lisb": "lisbon",
	"utd": "united", "man": "manchester",
}

// CanonTokens is Tokens with club affixes removed and common abbreviations expanded.
func CanonTokens(s string) []string {
	var out []string
	for _, t := range Tokens(s) {
		if _, drop := clubAffixes[t]; drop {
			continue
		}
		if full, ok := tokenAliases[t]; ok {
			t = full
		}
		out = append(out, t)
	}
	return out
}

// SameTeam reports whether two labels name the same side once affixes and abbreviations are
// canonicalized: equal token lists, or one contained word-wise in the other.
func SameTeam(a, b string) bool {
	ta, tb := CanonTokens(a), CanonTokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return false
	}
	return ContainsTokens(ta, tb) || ContainsTokens(tb, ta)
}

// eventSeparators are tried in order; exchanges use " v ", bookmakers mix the rest.
var eventSeparators = []string{" v ", " vs ", " vs. ", " - ", " — ", " – "}

// SplitEventName extracts home and away team names from an event name such as "Arsenal v Chelsea".
func SplitEventName(name string) (string, string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", false
	}
	for _, sep := range eventSeparators {
		parts := strings.Split(name, sep)
		if len(parts) != 2 {
			continue
		}
		home := strings.TrimSpace(parts[0])
		away := strings.TrimSpace(parts[1])
		if home == "" || away == "" {
			return "", "", false
		}
		return home, away, true
	}
	return "", "", false
}
