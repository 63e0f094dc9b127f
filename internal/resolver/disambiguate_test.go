package resolver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/models"
)

func newTestDisambiguator() *Disambiguator {
	return NewDisambiguator(nil, nil)
}

func TestDisambiguateKeepsFixtureAgainstFlaggedOpponent(t *testing.T) {
	c := matchOdds("1.1", "e1", "Real Madrid", "Barcelona B", testNow.Add(24*time.Hour))

	anchor, failure := newTestDisambiguator().Disambiguate("Real Madrid", []models.MarketCandidate{c}, "Real Madrid")
	require.Nil(t, failure)
	assert.Equal(t, "1.1", anchor.Market.MarketID)
	assert.Equal(t, "Real Madrid", anchor.Self.RunnerName)
	assert.Equal(t, "Barcelona B", anchor.Opponent)
	assert.Equal(t, SideHome, anchor.Side)
	assert.Equal(t, models.MatchExact, anchor.MatchType)
}

func TestDisambiguateExplicitBTeamIntent(t *testing.T) {
	c := matchOdds("1.1", "e1", "Real Madrid", "Barcelona B", testNow.Add(24*time.Hour))

	anchor, failure := newTestDisambiguator().Disambiguate("Barcelona B", []models.MarketCandidate{c}, "Barcelona B")
	require.Nil(t, failure)
	assert.Equal(t, "Barcelona B", anchor.Self.RunnerName)
	assert.Equal(t, SideAway, anchor.Side)
	assert.Equal(t, runnerID(t, c, "Barcelona B"), anchor.Self.SelectionID)
}

func TestDisambiguateDropsUnrequestedBTeam(t *testing.T) {
	c := matchOdds("1.1", "e1", "Real Madrid", "Barcelona B", testNow.Add(24*time.Hour))

	_, failure := newTestDisambiguator().Disambiguate("Barcelona", []models.MarketCandidate{c}, "Barcelona")
	require.NotNil(t, failure)
	assert.Equal(t, models.ReasonNoEventMatchAfterFilter, failure.Reason)
	assert.Equal(t, []string{"Real Madrid v Barcelona B"}, failure.CandidatesHint)
}

func TestDisambiguateWhitelistedBTeam(t *testing.T) {
	c := matchOdds("1.1", "e1", "Real Sociedad B", "Eibar", testNow.Add(24*time.Hour))

	anchor, failure := newTestDisambiguator().Disambiguate("Real Sociedad", []models.MarketCandidate{c}, "Real Sociedad")
	require.Nil(t, failure)
	assert.Equal(t, "Real Sociedad B", anchor.Self.RunnerName)
	assert.Equal(t, models.MatchFuzzy, anchor.MatchType)
}

func TestDisambiguateWomenAndYouth(t *testing.T) {
	women := matchOdds("1.1", "e1", "Arsenal Women", "Chelsea Women", testNow.Add(2*time.Hour))
	youth := matchOdds("1.2", "e2", "Fulham U21", "Spurs U21", testNow.Add(3*time.Hour))
	cands := []models.MarketCandidate{women, youth}
	d := newTestDisambiguator()

	_, failure := d.Disambiguate("Arsenal", cands, "Arsenal")
	require.NotNil(t, failure)
	assert.Equal(t, models.ReasonNoEventMatchAfterFilter, failure.Reason)

	anchor, failure := d.Disambiguate("Arsenal Women", cands, "Arsenal Women")
	require.Nil(t, failure)
	assert.Equal(t, "1.1", anchor.Market.MarketID)

	_, failure = d.Disambiguate("Fulham", cands, "Fulham")
	require.NotNil(t, failure)
	assert.Equal(t, models.ReasonNoEventMatchAfterFilter, failure.Reason)

	anchor, failure = d.Disambiguate("Fulham U21", cands, "Fulham U21")
	require.Nil(t, failure)
	assert.Equal(t, "1.2", anchor.Market.MarketID)
}

func TestDisambiguateExactBeatsFuzzy(t *testing.T) {
	reserves := matchOdds("1.1", "e1", "Chelsea Reserves", "Spurs Reserves", testNow.Add(1*time.Hour))
	first := matchOdds("1.2", "e2", "Chelsea", "Arsenal", testNow.Add(48*time.Hour))

	anchor, failure := newTestDisambiguator().Disambiguate("Chelsea", []models.MarketCandidate{reserves, first}, "Chelsea")
	require.Nil(t, failure)
	assert.Equal(t, "1.2", anchor.Market.MarketID)
	assert.Equal(t, models.MatchExact, anchor.MatchType)
}

func TestDisambiguateExactBeatsEarlierFuzzy(t *testing.T) {
	turku := matchOdds("1.1", "e1", "Inter Turku", "HJK", testNow.Add(1*time.Hour))
	milan := matchOdds("1.2", "e2", "Inter", "Milan", testNow.Add(30*time.Hour))

	anchor, failure := newTestDisambiguator().Disambiguate("Inter", []models.MarketCandidate{turku, milan}, "Inter")
	require.Nil(t, failure)
	assert.Equal(t, "1.2", anchor.Market.MarketID)

	// with only the fuzzy candidate left, it is used
	anchor, failure = newTestDisambiguator().Disambiguate("Inter", []models.MarketCandidate{turku}, "Inter")
	require.Nil(t, failure)
	assert.Equal(t, "1.1", anchor.Market.MarketID)
	assert.Equal(t, models.MatchFuzzy, anchor.MatchType)
}

func TestDisambiguateEarliestKickoffWins(t *testing.T) {
	cup := matchOdds("1.9", "e9", "Arsenal", "Leeds", testNow.Add(70*time.Hour))
	league := matchOdds("1.5", "e5", "Everton", "Arsenal", testNow.Add(20*time.Hour))

	anchor, failure := newTestDisambiguator().Disambiguate("Arsenal", []models.MarketCandidate{cup, league}, "Arsenal")
	require.Nil(t, failure)
	assert.Equal(t, "1.5", anchor.Market.MarketID)
	assert.Equal(t, SideAway, anchor.Side)
	assert.Equal(t, "Everton", anchor.HomeName)
}

func TestDisambiguateWordContainsNeedsAlignedTokens(t *testing.T) {
	c := matchOdds("1.1", "e1", "Internacional", "Gremio", testNow.Add(5*time.Hour))

	_, failure := newTestDisambiguator().Disambiguate("Inter", []models.MarketCandidate{c}, "Inter")
	require.NotNil(t, failure)
	assert.Equal(t, models.ReasonNoEventMatch, failure.Reason)
	assert.Equal(t, []string{"Internacional v Gremio"}, failure.CandidatesHint)
}

func TestDisambiguateRunnerlessCandidate(t *testing.T) {
	c := models.MarketCandidate{MarketID: "1.1", EventID: "e1", EventName: "Arsenal v Chelsea", KickoffTime: testNow}

	_, failure := newTestDisambiguator().Disambiguate("Arsenal", []models.MarketCandidate{c}, "Arsenal")
	require.NotNil(t, failure)
	assert.Equal(t, models.ReasonNoRunnerForTeam, failure.Reason)
	assert.Equal(t, "Arsenal v Chelsea", failure.EventName)
}

func TestDisambiguateHintIsCapped(t *testing.T) {
	var cands []models.MarketCandidate
	for i := range 12 {
		cands = append(cands, matchOdds("1."+string(rune('a'+i)), "e", "Leeds U21", "Team "+string(rune('A'+i)), testNow))
	}
	_, failure := newTestDisambiguator().Disambiguate("Leeds", cands, "Leeds")
	require.NotNil(t, failure)
	assert.Len(t, failure.CandidatesHint, maxHint)
}

func TestDisambiguateIsDeterministic(t *testing.T) {
	a := matchOdds("1.2", "e2", "Arsenal", "Leeds", testNow.Add(5*time.Hour))
	b := matchOdds("1.1", "e1", "Arsenal", "Spurs", testNow.Add(5*time.Hour))
	cands := []models.MarketCandidate{a, b}
	d := newTestDisambiguator()

	first, failure := d.Disambiguate("Arsenal", cands, "Arsenal")
	require.Nil(t, failure)
	for range 5 {
		again, _ := d.Disambiguate("Arsenal", cands, "Arsenal")
		assert.Equal(t, first, again)
	}
	// same kickoff: market id breaks the tie
	assert.Equal(t, "1.1", first.Market.MarketID)
}

func TestParseYesLabel(t *testing.T) {
	tests := []struct {
		in   string
		team string
		ok   bool
	}{
		{"Arsenal/Yes", "arsenal", true},
		{"Arsenal - Yes", "arsenal", true},
		{"Man City (Yes)", "man city", true},
		{"Yes/Chelsea", "chelsea", true},
		{"Home/Yes", "home", true},
		{"Arsenal/No", "", false},
		{"Yes", "", true},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			team, ok := parseYesLabel(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.team, team)
		})
	}
}
