package resolver

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/models"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/textnorm"
)

// lookback keeps fixtures that kicked off recently in the window.
const lookback = 2 * time.Hour

const defaultPageSize = 200

// Catalogue is the exchange catalogue query the resolvers depend on.
type Catalogue interface {
	ListMarketCatalogue(ctx context.Context, filter models.CatalogueFilter) ([]models.MarketCandidate, error)
}

// RunCache memoizes candidate lists for one batch run. Concurrent misses on
// the same key share one exchange call.
type RunCache struct {
	group singleflight.Group

	mu      sync.RWMutex
	entries map[string][]models.MarketCandidate
	hits    int
	misses  int
}

func NewRunCache() *RunCache {
	return &RunCache{entries: make(map[string][]models.MarketCandidate)}
}

// Stats returns hit and miss counts.
func (c *RunCache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

func (c *RunCache) get(key string) ([]models.MarketCandidate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return v, ok
}

// peek reads without touching the counters.
func (c *RunCache) peek(key string) ([]models.MarketCandidate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *RunCache) put(key string, v []models.MarketCandidate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = v
}

func cacheKey(name, marketType string, horizon time.Duration) string {
	return textnorm.Normalize(name) + "|" + marketType + "|" + horizon.String()
}

// Fetcher queries the catalogue for candidate markets that mention a team.
type Fetcher struct {
	catalogue Catalogue
	pageSize  int
	now       func() time.Time
	cache     *RunCache
}

func NewFetcher(catalogue Catalogue, pageSize int) *Fetcher {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Fetcher{catalogue: catalogue, pageSize: pageSize, now: time.Now}
}

// withCache returns a copy of f that reads through cache.
func (f *Fetcher) withCache(cache *RunCache) *Fetcher {
	cp := *f
	cp.cache = cache
	return &cp
}

// FetchCandidates returns football markets of marketType kicking off within
// [now-2h, now+horizon] whose text matches name. Errors are returned as-is.
func (f *Fetcher) FetchCandidates(ctx context.Context, name, marketType string, horizon time.Duration) ([]models.MarketCandidate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	if f.cache == nil {
		return f.query(ctx, name, marketType, horizon)
	}

	key := cacheKey(name, marketType, horizon)
	if v, ok := f.cache.get(key); ok {
		return v, nil
	}
	v, err, _ := f.cache.group.Do(key, func() (any, error) {
		if v, ok := f.cache.peek(key); ok {
			return v, nil
		}
		res, err := f.query(ctx, name, marketType, horizon)
		if err != nil {
			return nil, err
		}
		f.cache.put(key, res)
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.MarketCandidate), nil
}

func (f *Fetcher) query(ctx context.Context, name, marketType string, horizon time.Duration) ([]models.MarketCandidate, error) {
	now := f.now().UTC()
	return f.catalogue.ListMarketCatalogue(ctx, models.CatalogueFilter{
		MarketTypeCodes: []string{marketType},
		TextQuery:       name,
		From:            now.Add(-lookback),
		To:              now.Add(horizon),
		MaxResults:      f.pageSize,
	})
}

// FetchFanOut tries each variant in order and stops at the first non-empty
// result. It returns the variants actually tried.
func (f *Fetcher) FetchFanOut(ctx context.Context, variants []string, marketType string, horizon time.Duration) ([]models.MarketCandidate, []string, error) {
	var tried []string
	for _, v := range variants {
		tried = append(tried, v)
		cands, err := f.FetchCandidates(ctx, v, marketType, horizon)
		if err != nil {
			return nil, tried, fmt.Errorf("failed to fetch %s candidates for %q: %w", marketType, v, err)
		}
		if len(cands) > 0 {
			return cands, tried, nil
		}
	}
	return nil, tried, nil
}
