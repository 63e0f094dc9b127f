// Package entity derives youth/reserve/women/B-team markers from free-text team names.
package entity

import (
	"regexp"
	"strings"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/textnorm"
)

// Flags are derived from a name and never stored.
type Flags struct {
	Women            bool `json:"women"`
	Youth            bool `json:"youth"`
	Reserve          bool `json:"reserve"`
	BTeam            bool `json:"b_team"`
	WhitelistedBTeam bool `json:"whitelisted_b_team"`
}

// Any reports whether any exclusion marker is set.
func (f Flags) Any() bool {
	return f.Women || f.Youth || f.Reserve || f.BTeam
}

// DefaultBTeamWhitelist lists B sides that trade as primary teams on the exchange.
var DefaultBTeamWhitelist = []string{
	"Real Sociedad B",
	"Bayern Munich II",
	"Real Madrid Castilla",
	"Jong Ajax",
	"Jong PSV",
	"Jong AZ",
	"Jong Utrecht",
	"Borussia Dortmund II",
	"VfB Stuttgart II",
	"Villarreal B",
}

var (
	womenTokens   = map[string]struct{}{"women": {}, "womens": {}, "ladies": {}, "femenino": {}, "fem": {}}
	reserveTokens = map[string]struct{}{"reserve": {}, "reserves": {}, "res": {}}
	youthToken    = regexp.MustCompile(`^u\d{2}s?$`)
	twoDigits     = regexp.MustCompile(`^\d{2}$`)
	womenSuffix   = regexp.MustCompile(`(?i)\(\s*w\s*\)`)
)

// Classifier computes Flags. It is safe for concurrent use.
type Classifier struct {
	whitelist map[string]struct{}
}

// NewClassifier builds a classifier with the default whitelist plus extra names.
func NewClassifier(extraWhitelist ...string) *Classifier {
	c := &Classifier{whitelist: make(map[string]struct{})}
	for _, name := range DefaultBTeamWhitelist {
		c.whitelist[textnorm.Normalize(name)] = struct{}{}
	}
	for _, name := range extraWhitelist {
		if n := textnorm.Normalize(name); n != "" {
			c.whitelist[n] = struct{}{}
		}
	}
	return c
}

// Classify is a pure function of name.
func (c *Classifier) Classify(name string) Flags {
	tokens := textnorm.Tokens(name)
	var f Flags
	if len(tokens) == 0 {
		return f
	}

	f.Women = hasAny(tokens, womenTokens) || womenSuffix.MatchString(name)
	f.Youth = isYouth(tokens)
	f.Reserve = hasAny(tokens, reserveTokens)

	last := tokens[len(tokens)-1]
	switch {
	case len(tokens) > 1 && (last == "b" || last == "ii" || last == "iii"):
		f.BTeam = true
	case contains(tokens, "castilla"):
		f.BTeam = true
	case len(tokens) > 1 && tokens[0] == "jong":
		f.BTeam = true
	}
	if f.BTeam {
		_, f.WhitelistedBTeam = c.whitelist[strings.Join(tokens, " ")]
	}
	return f
}

func isYouth(tokens []string) bool {
	for i, t := range tokens {
		if t == "youth" || youthToken.MatchString(t) {
			return true
		}
		if (t == "u" || t == "under") && i+1 < len(tokens) && twoDigits.MatchString(tokens[i+1]) {
			return true
		}
	}
	return false
}

func hasAny(tokens []string, set map[string]struct{}) bool {
	for _, t := range tokens {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

func contains(tokens []string, want string) bool {
	for _, t := range tokens {
		if t == want {
			return true
		}
	}
	return false
}
