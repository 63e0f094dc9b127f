// Package engine runs batches of classified offers through decomposition,
// resolution, pricing and the publication filter.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/decompose"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/models"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/oddstext"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pricing"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/resolver"
)

// BookFetcher loads order books keyed by market id.
type BookFetcher interface {
	Fetch(ctx context.Context, marketIDs []string) (map[string]*models.MarketBook, error)
}

type Options struct {
	Concurrency     int
	Filters         pricing.Filters
	DisableRunCache bool
	Now             func() time.Time
}

type Engine struct {
	resolver *resolver.Resolver
	books    BookFetcher
	opts     Options
}

func New(r *resolver.Resolver, books BookFetcher, opts Options) *Engine {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Filters == (pricing.Filters{}) {
		opts.Filters = pricing.DefaultFilters()
	}
	return &Engine{resolver: r, books: books, opts: opts}
}

// ProcessBatch resolves and prices every offer. Per-offer failures are
// recorded, not returned; the error is only set when ctx ends the batch.
// Offers come back in input order.
func (e *Engine) ProcessBatch(ctx context.Context, offers []models.ClassifiedOffer) (*models.BatchResult, error) {
	res := &models.BatchResult{RunID: uuid.NewString(), StartedAt: e.opts.Now().UTC()}

	r := e.resolver
	var cache *resolver.RunCache
	if !e.opts.DisableRunCache {
		cache = resolver.NewRunCache()
		r = r.ForRun(cache)
	}

	slog.Info("Batch started", "run_id", res.RunID, "offers", len(offers), "concurrency", e.opts.Concurrency)

	outcomes := make([]*offerRun, len(offers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for i, offer := range offers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			run, err := e.processOffer(gctx, r, res.RunID, offer)
			if err != nil {
				return err
			}
			outcomes[i] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch %s aborted: %w", res.RunID, err)
	}

	for _, o := range outcomes {
		res.Offers = append(res.Offers, o.out)
		res.Failures = append(res.Failures, o.failures...)
	}
	res.FinishedAt = e.opts.Now().UTC()

	args := []any{
		"run_id", res.RunID,
		"offers", len(res.Offers),
		"publishable", len(res.Publishable()),
		"failures", len(res.Failures),
		"duration", res.FinishedAt.Sub(res.StartedAt),
	}
	if cache != nil {
		hits, misses := cache.Stats()
		args = append(args, "cache_hits", hits, "cache_misses", misses)
	}
	slog.Info("Batch finished", args...)
	return res, nil
}

// offerRun carries one offer through the pipeline and collects its skip records.
type offerRun struct {
	out      models.ResolvedOffer
	failures []models.FailureRecord
}

func (run *offerRun) fail(stage string, reason models.Reason, detail string, leg *models.ResolvedLeg) {
	rec := models.FailureRecord{
		Timestamp:    run.out.ResolvedAt,
		RunID:        run.out.RunID,
		Stage:        stage,
		Bookmaker:    run.out.Bookmaker,
		OfferUID:     run.out.UID,
		Title:        run.out.Title,
		BetTypeID:    run.out.BetTypeID,
		ReasonCode:   reason,
		ReasonDetail: detail,
	}
	reasonText := string(reason)
	if leg != nil {
		rec.Team = leg.Team
		rec.Kind = leg.Kind
		rec.EventName = leg.EventName
		rec.MarketID = leg.MarketID
		rec.TriedNames = leg.TriedNames
		if leg.Failure != nil {
			rec.CandidatesHint = leg.Failure.CandidatesHint
			if rec.EventName == "" {
				rec.EventName = leg.Failure.EventName
			}
		}
		reasonText += ": " + leg.Team
	} else if detail != "" {
		reasonText += ": " + detail
	}
	run.failures = append(run.failures, rec)
	run.out.Reasons = append(run.out.Reasons, reasonText)
}

// processOffer only returns an error when ctx ends mid-offer; everything else
// becomes a failure record on the returned run.
func (e *Engine) processOffer(ctx context.Context, r *resolver.Resolver, runID string, offer models.ClassifiedOffer) (*offerRun, error) {
	now := e.opts.Now().UTC()
	run := &offerRun{out: models.ResolvedOffer{
		UID:        OfferUID(offer, now),
		RunID:      runID,
		Title:      offer.Title,
		BetTypeID:  offer.BetTypeID,
		Bookmaker:  offer.Bookmaker,
		SourceURL:  offer.SourceURL,
		ResolvedAt: now,
	}}
	if offer.BoostedOdds != "" {
		if v, err := oddstext.ParseOdds(offer.BoostedOdds); err == nil {
			run.out.BoostedOdds = &v
		} else {
			slog.Warn("Unparseable boosted odds", "title", offer.Title, "odds", offer.BoostedOdds, "error", err)
		}
	}

	composite, failure := decompose.Decompose(offer)
	if failure != nil {
		run.out.Status = models.StatusUnresolved
		if failure.SkipType {
			run.out.Status = models.StatusSkipped
		}
		run.fail(models.StageDecompose, failure.Reason, failure.Detail, nil)
		return run, nil
	}

	// Legs resolve one after another so repeated teams hit the run cache.
	legs := make([]models.ResolvedLeg, 0, len(composite.Legs))
	for _, req := range composite.Legs {
		leg, err := r.Resolve(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, interrupted(ctx, offer)
			}
			slog.Warn("Leg resolution failed", "title", offer.Title, "team", req.Team, "kind", req.Kind, "error", err)
			run.out.Status = models.StatusError
			run.fail(models.StageTransport, models.ReasonTransport, err.Error(), &leg)
			return run, nil
		}
		legs = append(legs, leg)
	}
	for i := range legs {
		run.out.Legs = append(run.out.Legs, models.PricedLeg{ResolvedLeg: legs[i]})
		if f := legs[i].Failure; f != nil {
			run.fail(models.StageResolve, f.Reason, f.Detail, &legs[i])
		}
	}
	unresolved := len(run.failures) > 0
	if unresolved {
		run.out.Status = models.StatusUnresolved
	}

	// Resolved legs of an unresolved offer are still priced for diagnostics.
	ids := make([]string, 0, len(legs))
	for _, l := range legs {
		if l.OK() {
			ids = append(ids, l.MarketID)
		}
	}
	if len(ids) == 0 {
		return run, nil
	}
	books, err := e.books.Fetch(ctx, ids)
	if err != nil {
		if ctx.Err() != nil {
			return nil, interrupted(ctx, offer)
		}
		slog.Warn("Order book fetch failed", "title", offer.Title, "error", err)
		if unresolved {
			return run, nil
		}
		run.out.Status = models.StatusError
		run.fail(models.StageTransport, models.ReasonTransport, err.Error(), nil)
		return run, nil
	}

	var priced []models.PricedLeg
	for i := range run.out.Legs {
		run.out.Legs[i] = pricing.PriceLeg(legs[i], books[legs[i].MarketID])
		if legs[i].OK() {
			priced = append(priced, run.out.Legs[i])
		}
	}
	if unresolved {
		run.out.Diagnostics = pricing.PriceOffer(priced).Diagnostics
		return run, nil
	}

	price := pricing.PriceOffer(run.out.Legs)
	run.out.FairOdds = price.FairOdds
	run.out.Diagnostics = price.Diagnostics
	if price.FairOdds == nil {
		run.out.Status = models.StatusUnpriced
		for _, issue := range price.Reasons {
			run.fail(models.StagePrice, issue.Reason, "", &run.out.Legs[issue.Index].ResolvedLeg)
		}
		return run, nil
	}

	run.out.Status = models.StatusPriced
	verdict := e.opts.Filters.Evaluate(run.out.BoostedOdds, run.out.FairOdds, run.out.Diagnostics)
	run.out.Rating = verdict.Rating
	run.out.Publishable = verdict.Publishable
	for i, reason := range verdict.Reasons {
		run.fail(models.StagePublish, reason, verdict.Details[i], nil)
	}
	return run, nil
}

func interrupted(ctx context.Context, offer models.ClassifiedOffer) error {
	return fmt.Errorf("offer %q interrupted: %w", offer.Title, ctx.Err())
}
