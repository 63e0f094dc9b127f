package storage

import (
	"context"
	"time"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/models"
)

// OfferStorage persists resolved offers and skip records.
type OfferStorage interface {
	// StoreOffer saves a resolved offer keyed by its uid.
	// Returns true if the offer was newly inserted, false if the uid was already stored.
	StoreOffer(ctx context.Context, offer *models.ResolvedOffer) (bool, error)

	// StoreFailures appends skip records in one transaction.
	StoreFailures(ctx context.Context, records []models.FailureRecord) error

	// RecentOffers returns publishable offers resolved after since, newest first.
	RecentOffers(ctx context.Context, since time.Time, limit int) ([]models.ResolvedOffer, error)

	Close() error
}

// AlertGate decides whether an alert for key may be sent now.
// Allow returns true at most once per key within the gate's cooldown.
type AlertGate interface {
	Allow(ctx context.Context, key string) (bool, error)
}
