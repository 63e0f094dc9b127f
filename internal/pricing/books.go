package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/models"
)

// BookSource fetches order books for a set of market ids in one call.
type BookSource interface {
	ListMarketBook(ctx context.Context, marketIDs []string) ([]models.MarketBook, error)
}

type BookFetcherConfig struct {
	ChunkSize   int
	Concurrency int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// BookFetcher splits large book requests into chunks and halves any chunk
// the exchange rejects as too large.
type BookFetcher struct {
	source BookSource
	cfg    BookFetcherConfig
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewBookFetcher(source BookSource, cfg BookFetcherConfig) *BookFetcher {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 20
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 200 * time.Millisecond
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = 2 * time.Second
	}
	return &BookFetcher{source: source, cfg: cfg, sleep: sleepCtx}
}

// Fetch returns books keyed by market id. Empty and duplicate ids are ignored.
func (f *BookFetcher) Fetch(ctx context.Context, marketIDs []string) (map[string]*models.MarketBook, error) {
	ids := dedupe(marketIDs)
	out := make(map[string]*models.MarketBook, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.Concurrency)
	for start := 0; start < len(ids); start += f.cfg.ChunkSize {
		chunk := ids[start:min(start+f.cfg.ChunkSize, len(ids))]
		g.Go(func() error {
			books, err := f.fetchChunk(gctx, chunk, f.cfg.BackoffBase)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for i := range books {
				b := books[i]
				out[b.MarketID] = &b
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch market books: %w", err)
	}
	return out, nil
}

func (f *BookFetcher) fetchChunk(ctx context.Context, ids []string, delay time.Duration) ([]models.MarketBook, error) {
	books, err := f.source.ListMarketBook(ctx, ids)
	if err == nil || !errors.Is(err, models.ErrTooMuchData) || len(ids) == 1 {
		return books, err
	}

	slog.Warn("Market book request too large, splitting", "ids", len(ids), "delay", delay)
	half := (len(ids) + 1) / 2
	next := f.nextDelay(delay)

	var all []models.MarketBook
	for _, part := range [][]string{ids[:half], ids[half:]} {
		if err := f.sleep(ctx, delay); err != nil {
			return nil, err
		}
		books, err := f.fetchChunk(ctx, part, next)
		if err != nil {
			return nil, err
		}
		all = append(all, books...)
	}
	return all, nil
}

// nextDelay grows the backoff by 1.5x plus up to 50ms of jitter, capped.
func (f *BookFetcher) nextDelay(d time.Duration) time.Duration {
	next := time.Duration(float64(d)*1.5) + time.Duration(rand.Int64N(int64(50*time.Millisecond)))
	return min(next, f.cfg.BackoffMax)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
