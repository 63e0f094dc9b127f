package engine

import (
	"context"
	"log/slog"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/models"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/storage"
)

// FailureSink receives skip records, e.g. the JSONL skip log.
type FailureSink interface {
	Write(records []models.FailureRecord) error
}

// OfferStore is the part of storage.OfferStorage the publisher writes to.
type OfferStore interface {
	StoreOffer(ctx context.Context, offer *models.ResolvedOffer) (bool, error)
	StoreFailures(ctx context.Context, records []models.FailureRecord) error
}

type Alerter interface {
	SendOfferAlert(ctx context.Context, offer *models.ResolvedOffer) error
}

// Publisher fans a batch result out to the configured sinks. Any sink may be nil.
type Publisher struct {
	Skips  FailureSink
	Store  OfferStore
	Gate   storage.AlertGate
	Alerts Alerter
}

type PublishStats struct {
	Stored     int
	Duplicates int
	Alerted    int
	Suppressed int
}

// Publish never fails the batch: sink errors are logged and counted out.
func (p *Publisher) Publish(ctx context.Context, res *models.BatchResult) PublishStats {
	var stats PublishStats

	if p.Skips != nil {
		if err := p.Skips.Write(res.Failures); err != nil {
			slog.Error("Failed to write skip log", "run_id", res.RunID, "error", err)
		}
	}
	if p.Store != nil {
		if err := p.Store.StoreFailures(ctx, res.Failures); err != nil {
			slog.Error("Failed to store skip records", "run_id", res.RunID, "error", err)
		}
	}

	for i := range res.Offers {
		offer := &res.Offers[i]
		if offer.Status != models.StatusPriced {
			continue
		}

		isNew := true
		if p.Store != nil {
			inserted, err := p.Store.StoreOffer(ctx, offer)
			if err != nil {
				slog.Error("Failed to store offer", "uid", offer.UID, "error", err)
			} else {
				isNew = inserted
			}
			if inserted {
				stats.Stored++
			} else if err == nil {
				stats.Duplicates++
			}
		}

		if !offer.Publishable || !isNew || p.Alerts == nil {
			continue
		}
		if p.Gate != nil {
			ok, err := p.Gate.Allow(ctx, offer.UID)
			if err != nil {
				slog.Warn("Alert gate unavailable, skipping alert", "uid", offer.UID, "error", err)
				stats.Suppressed++
				continue
			}
			if !ok {
				stats.Suppressed++
				continue
			}
		}
		if err := p.Alerts.SendOfferAlert(ctx, offer); err != nil {
			slog.Warn("Failed to queue alert", "uid", offer.UID, "error", err)
			continue
		}
		stats.Alerted++
	}

	slog.Info("Batch published",
		"run_id", res.RunID,
		"stored", stats.Stored,
		"duplicates", stats.Duplicates,
		"alerted", stats.Alerted,
		"suppressed", stats.Suppressed)
	return stats
}
