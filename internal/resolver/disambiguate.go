package resolver

import (
	"sort"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/aliases"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/entity"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/models"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/textnorm"
)

const maxHint = 8

// Side is the position of the requested team in its fixture.
type Side int

const (
	SideUnknown Side = iota
	SideHome
	SideAway
)

func (s Side) String() string {
	switch s {
	case SideHome:
		return "home"
	case SideAway:
		return "away"
	}
	return "unknown"
}

// Anchor is the fixture chosen for a team, with the runner that represents it.
type Anchor struct {
	Market    models.MarketCandidate
	Self      models.Runner
	Opponent  string
	MatchType models.MatchType
	Side      Side
	HomeName  string
	AwayName  string
}

// Disambiguator picks exactly one candidate market for a team.
type Disambiguator struct {
	aliases    *aliases.Index
	classifier *entity.Classifier
}

func NewDisambiguator(ix *aliases.Index, classifier *entity.Classifier) *Disambiguator {
	if classifier == nil {
		classifier = entity.NewClassifier()
	}
	return &Disambiguator{aliases: ix, classifier: classifier}
}

type match struct {
	cand      models.MarketCandidate
	self      models.Runner
	hasRunner bool
	exact     bool
	opponent  string
	side      Side
	home      string
	away      string
}

// Disambiguate filters candidates down to one market+runner for requestedTeam.
// rawText is the team text as the bookmaker wrote it and drives explicit
// intent (a bettor writing "Fulham U21" wants the youth side).
func (d *Disambiguator) Disambiguate(requestedTeam string, candidates []models.MarketCandidate, rawText string) (Anchor, *models.LegFailure) {
	variants := d.variants(requestedTeam, rawText)

	var matched []match
	for _, c := range candidates {
		if m, ok := matchCandidate(c, variants); ok {
			matched = append(matched, m)
		}
	}
	if len(matched) == 0 {
		return Anchor{}, &models.LegFailure{
			Reason:         models.ReasonNoEventMatch,
			Detail:         "no runner matches " + requestedTeam,
			CandidatesHint: eventNames(candidates),
		}
	}

	intent := d.classifier.Classify(rawText)
	var kept []match
	var dropped []models.MarketCandidate
	for _, m := range matched {
		if d.dropSelf(m.self.RunnerName, intent) {
			dropped = append(dropped, m.cand)
			continue
		}
		kept = append(kept, m)
	}
	if len(kept) == 0 {
		return Anchor{}, &models.LegFailure{
			Reason:         models.ReasonNoEventMatchAfterFilter,
			Detail:         "all candidates excluded by women/youth/reserve/B-team filter",
			CandidatesHint: eventNames(dropped),
		}
	}

	var exact, fuzzy []match
	for _, m := range kept {
		if m.exact {
			exact = append(exact, m)
		} else {
			fuzzy = append(fuzzy, m)
		}
	}
	sortByKickoff(exact)
	sortByKickoff(fuzzy)

	chosen := fuzzy
	matchType := models.MatchFuzzy
	if len(exact) > 0 {
		chosen = exact
		matchType = models.MatchExact
	}
	best := chosen[0]
	if !best.hasRunner {
		return Anchor{}, &models.LegFailure{
			Reason:    models.ReasonNoRunnerForTeam,
			Detail:    "market " + best.cand.MarketID + " has no runner for " + requestedTeam,
			EventID:   best.cand.EventID,
			EventName: best.cand.EventName,
		}
	}

	return Anchor{
		Market:    best.cand,
		Self:      best.self,
		Opponent:  best.opponent,
		MatchType: matchType,
		Side:      best.side,
		HomeName:  best.home,
		AwayName:  best.away,
	}, nil
}

func (d *Disambiguator) variants(requestedTeam, rawText string) []string {
	out := d.aliases.Variants(rawText)
	if requestedTeam == "" {
		return out
	}
	key := textnorm.Normalize(requestedTeam)
	for _, v := range out {
		if textnorm.Normalize(v) == key {
			return out
		}
	}
	return append([]string{requestedTeam}, out...)
}

// dropSelf applies the exclusion policy to the self runner only; opponents
// never cause a drop.
func (d *Disambiguator) dropSelf(selfName string, intent entity.Flags) bool {
	self := d.classifier.Classify(selfName)
	switch {
	case self.Women && !intent.Women:
		return true
	case (self.Youth || self.Reserve) && !(intent.Youth || intent.Reserve):
		return true
	case self.BTeam && !self.WhitelistedBTeam && !intent.BTeam:
		return true
	}
	return false
}

// matchCandidate finds the self runner of c. An exact normalized match on any
// variant beats a word-contains match.
func matchCandidate(c models.MarketCandidate, variants []string) (match, bool) {
	keys := make([]string, 0, len(variants))
	for _, v := range variants {
		if k := textnorm.Normalize(v); k != "" {
			keys = append(keys, k)
		}
	}

	home, away, split := textnorm.SplitEventName(c.EventName)
	m := match{cand: c, home: home, away: away}

	teams := nonDrawRunners(c.Runners)
	if len(teams) == 0 {
		// catalogue without runner descriptions: match on the event name so
		// the caller can report the missing runner
		if !split {
			return m, false
		}
		for i, name := range []string{home, away} {
			if exact, ok := nameMatches(name, keys); ok {
				m.exact = exact
				m.self = models.Runner{RunnerName: name}
				m.side = Side(i + 1)
				return m, true
			}
		}
		return m, false
	}

	idx := -1
	for i, r := range teams {
		exact, ok := nameMatches(r.RunnerName, keys)
		if !ok {
			continue
		}
		if exact {
			idx, m.exact = i, true
			break
		}
		if idx < 0 {
			idx = i
		}
	}
	if idx < 0 {
		return m, false
	}

	m.self = teams[idx]
	m.hasRunner = true
	for i, r := range teams {
		if i != idx {
			m.opponent = r.RunnerName
			break
		}
	}
	if !split && len(teams) >= 2 {
		m.home, m.away = teams[0].RunnerName, teams[1].RunnerName
	}
	m.side = sideOf(m.self.RunnerName, idx, m.home, m.away)
	return m, true
}

func nameMatches(name string, keys []string) (exact bool, ok bool) {
	n := textnorm.Normalize(name)
	if n == "" {
		return false, false
	}
	for _, k := range keys {
		if n == k {
			return true, true
		}
	}
	tokens := textnorm.Tokens(name)
	for _, k := range keys {
		if textnorm.ContainsTokens(tokens, textnorm.Tokens(k)) {
			return false, true
		}
	}
	return false, false
}

func sideOf(selfName string, idx int, home, away string) Side {
	self := textnorm.Normalize(selfName)
	switch {
	case home != "" && textnorm.Normalize(home) == self:
		return SideHome
	case away != "" && textnorm.Normalize(away) == self:
		return SideAway
	case home != "" && textnorm.SameTeam(home, selfName) && !textnorm.SameTeam(away, selfName):
		return SideHome
	case away != "" && textnorm.SameTeam(away, selfName) && !textnorm.SameTeam(home, selfName):
		return SideAway
	case idx == 0:
		return SideHome
	case idx == 1:
		return SideAway
	}
	return SideUnknown
}

func nonDrawRunners(runners []models.Runner) []models.Runner {
	out := make([]models.Runner, 0, len(runners))
	for _, r := range runners {
		if !isDrawRunner(r.RunnerName) {
			out = append(out, r)
		}
	}
	return out
}

func sortByKickoff(ms []match) {
	sort.SliceStable(ms, func(i, j int) bool {
		a, b := ms[i].cand, ms[j].cand
		if !a.KickoffTime.Equal(b.KickoffTime) {
			return a.KickoffTime.Before(b.KickoffTime)
		}
		return a.MarketID < b.MarketID
	})
}

func eventNames(cands []models.MarketCandidate) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, c := range cands {
		if len(out) == maxHint {
			break
		}
		name := c.EventName
		if name == "" {
			name = c.MarketID
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
