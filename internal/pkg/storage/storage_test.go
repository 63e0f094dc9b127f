package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/config"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/models"
)

func TestMemoryAlertGate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	gate := NewMemoryAlertGate(time.Hour)
	gate.now = func() time.Time { return now }

	ok, err := gate.Allow(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = gate.Allow(ctx, "abc")
	assert.False(t, ok, "second alert inside cooldown")

	ok, _ = gate.Allow(ctx, "other")
	assert.True(t, ok)

	now = now.Add(61 * time.Minute)
	ok, _ = gate.Allow(ctx, "abc")
	assert.True(t, ok, "cooldown elapsed")
	assert.Len(t, gate.seen, 1)
}

func TestNullFloatRoundTrip(t *testing.T) {
	assert.False(t, nullFloat(nil).Valid)
	v := 2.5
	n := nullFloat(&v)
	require.True(t, n.Valid)
	assert.Equal(t, 2.5, *floatPtr(n))
	assert.Nil(t, floatPtr(nullFloat(nil)))
	assert.Equal(t, []string{}, nonNil(nil))
}

func TestPostgresOfferStorage(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	ctx := context.Background()
	s, err := NewPostgresOfferStorage(&config.PostgresConfig{DSN: dsn})
	require.NoError(t, err)
	defer s.Close()

	fair, boosted, rating := 5.0, 6.0, 1.2
	offer := &models.ResolvedOffer{
		UID:         uuid.NewString(),
		RunID:       uuid.NewString(),
		Title:       "Liverpool & Man City to win",
		BetTypeID:   "FOOTBALL_MULTI_AND",
		Bookmaker:   "williamhill",
		BoostedOdds: &boosted,
		FairOdds:    &fair,
		Rating:      &rating,
		Diagnostics: models.OfferDiagnostics{MinLiquidity: 42},
		Publishable: true,
		Status:      models.StatusPriced,
		Legs:        []models.PricedLeg{{ResolvedLeg: models.ResolvedLeg{Team: "Liverpool", Kind: models.KindTeamWin}}},
		ResolvedAt:  time.Now().UTC().Truncate(time.Second),
	}

	inserted, err := s.StoreOffer(ctx, offer)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = s.StoreOffer(ctx, offer)
	require.NoError(t, err)
	assert.False(t, inserted, "same uid is stored once")

	recent, err := s.RecentOffers(ctx, offer.ResolvedAt.Add(-time.Minute), 10)
	require.NoError(t, err)
	var found bool
	for _, o := range recent {
		if o.UID == offer.UID {
			found = true
			assert.InDelta(t, 5.0, *o.FairOdds, 1e-9)
			assert.Nil(t, o.Diagnostics.MaxSpreadPct)
			require.Len(t, o.Legs, 1)
			assert.Equal(t, "Liverpool", o.Legs[0].Team)
		}
	}
	assert.True(t, found)

	require.NoError(t, s.StoreFailures(ctx, []models.FailureRecord{{
		Timestamp:  time.Now(),
		RunID:      offer.RunID,
		Stage:      models.StageResolve,
		Title:      offer.Title,
		Team:       "Man City",
		ReasonCode: models.ReasonNoCandidates,
		TriedNames: []string{"Man City", "Manchester City"},
	}}))
}

func TestRedisAlertGate(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	gate, err := NewRedisAlertGate(&config.RedisConfig{Addr: addr, AlertCooldown: time.Minute})
	require.NoError(t, err)
	defer gate.Close()

	key := uuid.NewString()
	ok, err := gate.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = gate.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}
