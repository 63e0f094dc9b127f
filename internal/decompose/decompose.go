// Package decompose splits a classified bookmaker promotion into atomic
// single-team legs.
package decompose

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/models"
)

var (
	marketingPrefix = regexp.MustCompile(`^[^:]{1,40}:\s*`)

	groupWin      = regexp.MustCompile(`(?i)\b(both|all(\s+\d+)?|all\s+teams)\s+(teams\s+)?to\s+win\b`)
	groupWinScore = regexp.MustCompile(`(?i)\b(both|all(\s+\d+)?|all\s+teams)\s+(teams\s+)?to\s+win\s*(&|and|\+|,)\s*((both|all(\s+\d+)?)\s+teams\s+to\s+score|btts|both\s+teams\s+score)\b`)
	teamsScore    = regexp.MustCompile(`(?i)\b(both|all(\s+\d+)?)\s+teams\s+to\s+score\b|\bbtts\b|\bboth\s+teams\s+score\b`)
	winToNil      = regexp.MustCompile(`(?i)\bwin\s+to\s+nil\b`)
	drawClause    = regexp.MustCompile(`(?i)\b(to\s+)?draw\b`)
	winClause     = regexp.MustCompile(`(?i)\bwins?\b`)
	winBTTSClause = regexp.MustCompile(`(?i)\bwin\s*(&|and|\+)\s*(btts|(both|all(\s+\d+)?)\s+teams\s+to\s+score|both\s+teams\s+score)\b`)

	splitter    = regexp.MustCompile(`(?i),|&|\band\b`)
	placeholder = regexp.MustCompile(`\{\{(\d+)\}\}`)
)

// unsupported propositions make the whole offer unpriceable.
var unsupported = []struct {
	kind string
	re   *regexp.Regexp
}{
	{"ANYTIME_SCORER", regexp.MustCompile(`(?i)\b(anytime|first|last)\s+(goal\s*)?scorer\b|\bscorers?\b|\bto\s+score\b`)},
	{"SHOTS", regexp.MustCompile(`(?i)\bshots?\b|\bsot\b`)},
	{"GOALS_LINE", regexp.MustCompile(`(?i)\b(over|under)\s+\d+(\.\d+)?\b|\b\d+\+\s*goals?\b|\b\d+(\.\d+)?\s+goals\b`)},
	{"CORNERS", regexp.MustCompile(`(?i)\bcorners?\b`)},
	{"CARDS", regexp.MustCompile(`(?i)\b(cards?|booked|bookings?)\b`)},
}

// betTypeKinds is the fallback when the title names no per-leg clause.
var betTypeKinds = map[string]models.AtomicKind{
	"MULTI_AND":             models.KindTeamWin,
	"FOOTBALL_MULTI_AND":    models.KindTeamWin,
	"WIN_ALL":               models.KindTeamWin,
	"TEAM_WIN":              models.KindTeamWin,
	"WIN_AND_BTTS":          models.KindTeamWinAndBTTS,
	"FOOTBALL_WIN_AND_BTTS": models.KindTeamWinAndBTTS,
	"MO_BTTS":               models.KindTeamWinAndBTTS,
	"WIN_TO_NIL":            models.KindWinToNil,
	"TEAM_DRAW":             models.KindTeamDraw,
}

// Decompose turns offer into one AtomicLegRequest per team. It never drops a
// leg: anything it cannot classify fails the whole offer.
func Decompose(offer models.ClassifiedOffer) (models.CompositeOffer, *models.DecompositionFailure) {
	out := models.CompositeOffer{Title: offer.Title, BetTypeID: offer.BetTypeID}

	var legs []string
	for _, l := range offer.Legs {
		if l = strings.TrimSpace(l); l != "" {
			legs = append(legs, l)
		}
	}
	if len(legs) == 0 {
		return out, &models.DecompositionFailure{Reason: models.ReasonNoLegs, Detail: "offer has no team legs"}
	}

	title := marketingPrefix.ReplaceAllString(strings.TrimSpace(offer.Title), "")

	if kinds := unsupportedKinds(title); len(kinds) > 0 {
		return out, &models.DecompositionFailure{
			SkipType: true,
			Reason:   models.ReasonUnsupportedProp,
			Detail:   strings.Join(kinds, ","),
		}
	}

	// The group clause covers every leg only when it is the title's sole win
	// clause and any scoring clause hangs off it.
	perLeg := winToNil.MatchString(title) || drawClause.MatchString(title) ||
		len(winClause.FindAllStringIndex(title, -1)) > 1
	if groupWin.MatchString(title) && !perLeg {
		kind := models.KindTeamWin
		switch {
		case groupWinScore.MatchString(title):
			kind = models.KindTeamWinAndBTTS
		case teamsScore.MatchString(title):
			kind = ""
		}
		if kind != "" {
			for _, l := range legs {
				out.Legs = append(out.Legs, models.AtomicLegRequest{Team: l, Kind: kind})
			}
			return out, nil
		}
	}

	parsed, failure := splitFragments(title, legs, offer.BetTypeID)
	if failure != nil {
		return out, failure
	}
	out.Legs = parsed
	return out, nil
}

func unsupportedKinds(title string) []string {
	// team scoring clauses are part of BTTS, not player props
	stripped := teamsScore.ReplaceAllString(title, " ")
	var kinds []string
	for _, u := range unsupported {
		if u.re.MatchString(stripped) {
			kinds = append(kinds, u.kind)
		}
	}
	return kinds
}

type fragment struct {
	legs []int
	kind models.AtomicKind
}

// splitFragments classifies each conjunction-separated fragment by its own
// trailing clause. A fragment with no clause takes the kind of the next
// classified fragment ("A & B both to win").
func splitFragments(title string, legs []string, betTypeID string) ([]models.AtomicLegRequest, *models.DecompositionFailure) {
	protected, found := protectLegs(title, legs)
	protected = winBTTSClause.ReplaceAllString(protected, "win_btts")

	var frags []fragment
	var leftovers []string
	sharedScoring := false
	for _, part := range splitter.Split(protected, -1) {
		f := fragment{kind: fragmentKind(placeholder.ReplaceAllString(part, " "))}
		for _, m := range placeholder.FindAllStringSubmatch(part, -1) {
			i, _ := strconv.Atoi(m[1])
			f.legs = append(f.legs, i)
		}
		if len(f.legs) == 0 && f.kind == "" {
			switch {
			case teamsScore.MatchString(part):
				// "... & both teams to score" applies to every winning leg
				sharedScoring = true
			case strings.IndexFunc(part, isAlnum) >= 0:
				leftovers = append(leftovers, strings.TrimSpace(part))
			}
			continue
		}
		frags = append(frags, f)
	}

	if len(found) == 0 {
		return byBetType(legs, betTypeID)
	}
	if len(leftovers) > 0 {
		return nil, &models.DecompositionFailure{
			SkipType: true,
			Reason:   models.ReasonUnsupportedProp,
			Detail:   "unrecognised clause: " + strings.Join(leftovers, ", "),
		}
	}
	if allBare(frags) {
		return byBetType(legs, betTypeID)
	}
	if len(found) != len(legs) {
		var missing []string
		for i, l := range legs {
			if _, ok := found[i]; !ok {
				missing = append(missing, l)
			}
		}
		return nil, &models.DecompositionFailure{
			Reason: models.ReasonLegMismatch,
			Detail: "legs not found in title: " + strings.Join(missing, ", "),
		}
	}

	var out []models.AtomicLegRequest
	var pending []int
	for _, f := range frags {
		pending = append(pending, f.legs...)
		if f.kind == "" {
			continue
		}
		for _, i := range pending {
			out = append(out, models.AtomicLegRequest{Team: legs[i], Kind: f.kind})
		}
		pending = pending[:0]
	}
	if len(pending) > 0 {
		var names []string
		for _, i := range pending {
			names = append(names, legs[i])
		}
		return nil, &models.DecompositionFailure{
			Reason: models.ReasonUnclassifiedLeg,
			Detail: "no clause for " + strings.Join(names, ", "),
		}
	}
	if sharedScoring {
		for i := range out {
			switch out[i].Kind {
			case models.KindTeamWin, models.KindTeamWinAndBTTS:
				out[i].Kind = models.KindTeamWinAndBTTS
			default:
				return nil, &models.DecompositionFailure{
					Reason: models.ReasonUnclassifiedLeg,
					Detail: "both-teams-to-score clause cannot combine with " + string(out[i].Kind) + " for " + out[i].Team,
				}
			}
		}
	}
	return out, nil
}

// protectLegs swaps each leg's text in title for a {{i}} placeholder so team
// names containing "&" or "and" survive the split. Longer names go first.
func protectLegs(title string, legs []string) (string, map[int]struct{}) {
	order := make([]int, len(legs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return len(legs[order[a]]) > len(legs[order[b]]) })

	found := make(map[int]struct{})
	for _, i := range order {
		quoted := regexp.QuoteMeta(legs[i])
		re := regexp.MustCompile(`(?i)\b` + quoted + `\b`)
		loc := re.FindStringIndex(title)
		if loc == nil {
			re = regexp.MustCompile(`(?i)` + quoted)
			loc = re.FindStringIndex(title)
		}
		if loc == nil {
			continue
		}
		title = title[:loc[0]] + fmt.Sprintf("{{%d}}", i) + title[loc[1]:]
		found[i] = struct{}{}
	}
	return title, found
}

func fragmentKind(text string) models.AtomicKind {
	switch {
	case strings.Contains(strings.ToLower(text), "win_btts"):
		return models.KindTeamWinAndBTTS
	case winToNil.MatchString(text):
		return models.KindWinToNil
	case drawClause.MatchString(text):
		return models.KindTeamDraw
	case winClause.MatchString(text):
		return models.KindTeamWin
	}
	return ""
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func allBare(frags []fragment) bool {
	for _, f := range frags {
		if f.kind != "" {
			return false
		}
	}
	return true
}

func byBetType(legs []string, betTypeID string) ([]models.AtomicLegRequest, *models.DecompositionFailure) {
	kind, ok := betTypeKinds[strings.ToUpper(strings.TrimSpace(betTypeID))]
	if !ok {
		return nil, &models.DecompositionFailure{
			Reason: models.ReasonUnclassifiedLeg,
			Detail: fmt.Sprintf("title names no clause and bet type %q has no default kind", betTypeID),
		}
	}
	out := make([]models.AtomicLegRequest, 0, len(legs))
	for _, l := range legs {
		out = append(out, models.AtomicLegRequest{Team: l, Kind: kind})
	}
	return out, nil
}
