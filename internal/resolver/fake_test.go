package resolver

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/aliases"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/models"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/textnorm"
)

var testNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

// fakeCatalogue filters a fixed market list the way the exchange would.
type fakeCatalogue struct {
	mu      sync.Mutex
	markets []models.MarketCandidate
	calls   []models.CatalogueFilter
	err     error
}

func (f *fakeCatalogue) ListMarketCatalogue(_ context.Context, filter models.CatalogueFilter) ([]models.MarketCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, filter)
	if f.err != nil {
		return nil, f.err
	}
	var out []models.MarketCandidate
	for _, m := range f.markets {
		if len(filter.MarketTypeCodes) > 0 && !slices.Contains(filter.MarketTypeCodes, m.MarketTypeCode) {
			continue
		}
		if len(filter.EventIDs) > 0 && !slices.Contains(filter.EventIDs, m.EventID) {
			continue
		}
		if filter.TextQuery != "" && !textMatches(m, filter.TextQuery) {
			continue
		}
		if !filter.From.IsZero() && m.KickoffTime.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && m.KickoffTime.After(filter.To) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeCatalogue) countText(marketType, text string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.TextQuery == text && slices.Contains(c.MarketTypeCodes, marketType) {
			n++
		}
	}
	return n
}

func textMatches(m models.MarketCandidate, q string) bool {
	if textnorm.WordContains(m.EventName, q) || textnorm.WordContains(m.MarketName, q) {
		return true
	}
	for _, r := range m.Runners {
		if textnorm.WordContains(r.RunnerName, q) {
			return true
		}
	}
	return false
}

var nextSelection int64 = 1000

// matchOdds builds a MATCH_ODDS market for "home v away" with a draw runner.
func matchOdds(marketID, eventID, home, away string, kickoff time.Time) models.MarketCandidate {
	return models.MarketCandidate{
		MarketID:        marketID,
		MarketName:      "Match Odds",
		MarketTypeCode:  "MATCH_ODDS",
		EventID:         eventID,
		EventName:       home + " v " + away,
		CompetitionName: "Test League",
		KickoffTime:     kickoff,
		Runners: []models.Runner{
			{SelectionID: selection(), RunnerName: home},
			{SelectionID: selection(), RunnerName: away},
			{SelectionID: selection(), RunnerName: "The Draw"},
		},
	}
}

func market(marketID, eventID, typeCode, name string, kickoff time.Time, runners ...string) models.MarketCandidate {
	m := models.MarketCandidate{
		MarketID:       marketID,
		MarketName:     name,
		MarketTypeCode: typeCode,
		EventID:        eventID,
		KickoffTime:    kickoff,
	}
	for _, r := range runners {
		m.Runners = append(m.Runners, models.Runner{SelectionID: selection(), RunnerName: r})
	}
	return m
}

func selection() int64 {
	nextSelection++
	return nextSelection
}

func runnerID(t *testing.T, m models.MarketCandidate, name string) int64 {
	t.Helper()
	for _, r := range m.Runners {
		if r.RunnerName == name {
			return r.SelectionID
		}
	}
	t.Fatalf("runner %q not in market %s", name, m.MarketID)
	return 0
}

func testIndex(t *testing.T) *aliases.Index {
	t.Helper()
	b := aliases.NewBuilder(nil)
	b.AddMasters("teams", []aliases.MasterRecord{
		{ID: "manchester_city", Name: "Manchester City", Aliases: []string{"Man City"}},
		{ID: "liverpool", Name: "Liverpool", Aliases: []string{"Liverpool FC"}},
		{ID: "arsenal", Name: "Arsenal"},
	})
	ix, _, err := b.Build()
	require.NoError(t, err)
	return ix
}

func newTestResolver(t *testing.T, cat *fakeCatalogue) *Resolver {
	t.Helper()
	return New(cat, testIndex(t), nil, Options{Now: func() time.Time { return testNow }})
}
