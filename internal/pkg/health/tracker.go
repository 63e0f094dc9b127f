package health

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/models"
)

// RunSummary is the status view of one batch.
type RunSummary struct {
	RunID       string         `json:"run_id"`
	StartedAt   time.Time      `json:"started_at"`
	Duration    string         `json:"duration"`
	Offers      int            `json:"offers"`
	Publishable int            `json:"publishable"`
	Failures    int            `json:"failures"`
	ByStatus    map[string]int `json:"by_status"`
}

type ReasonCount struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

type Status struct {
	Service          string        `json:"service"`
	StartedAt        time.Time     `json:"started_at"`
	Uptime           string        `json:"uptime"`
	TotalRuns        int           `json:"total_runs"`
	TotalOffers      int           `json:"total_offers"`
	TotalPublishable int           `json:"total_publishable"`
	TotalFailures    int           `json:"total_failures"`
	TopReasons       []ReasonCount `json:"top_reasons"`
	LastRun          *RunSummary   `json:"last_run,omitempty"`
	LastError        string        `json:"last_error,omitempty"`
}

// Tracker accumulates batch outcomes for the /status endpoint.
type Tracker struct {
	mu sync.RWMutex

	service   string
	startedAt time.Time
	now       func() time.Time

	totalRuns        int
	totalOffers      int
	totalPublishable int
	totalFailures    int
	reasons          map[string]int
	lastRun          *RunSummary
	lastError        string
}

func NewTracker(service string) *Tracker {
	return &Tracker{service: service, startedAt: time.Now(), now: time.Now, reasons: make(map[string]int)}
}

// Record adds a finished batch.
func (t *Tracker) Record(res *models.BatchResult) {
	summary := &RunSummary{
		RunID:       res.RunID,
		StartedAt:   res.StartedAt,
		Duration:    res.FinishedAt.Sub(res.StartedAt).String(),
		Offers:      len(res.Offers),
		Publishable: len(res.Publishable()),
		Failures:    len(res.Failures),
		ByStatus:    make(map[string]int),
	}
	for _, o := range res.Offers {
		summary.ByStatus[string(o.Status)]++
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalRuns++
	t.totalOffers += summary.Offers
	t.totalPublishable += summary.Publishable
	t.totalFailures += summary.Failures
	for _, f := range res.Failures {
		t.reasons[string(f.ReasonCode)]++
	}
	t.lastRun = summary
	t.lastError = ""
}

// RecordError notes a batch that did not complete.
func (t *Tracker) RecordError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastError = err.Error()
}

// Healthy fails while the most recent batch ended in an error.
func (t *Tracker) Healthy() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.lastError != "" {
		return errors.New(t.lastError)
	}
	return nil
}

// Snapshot returns the current status with the five most frequent failure reasons.
func (t *Tracker) Snapshot() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	top := make([]ReasonCount, 0, len(t.reasons))
	for r, c := range t.reasons {
		top = append(top, ReasonCount{Reason: r, Count: c})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Reason < top[j].Reason
	})
	if len(top) > 5 {
		top = top[:5]
	}

	return Status{
		Service:          t.service,
		StartedAt:        t.startedAt,
		Uptime:           t.now().Sub(t.startedAt).Round(time.Second).String(),
		TotalRuns:        t.totalRuns,
		TotalOffers:      t.totalOffers,
		TotalPublishable: t.totalPublishable,
		TotalFailures:    t.totalFailures,
		TopReasons:       top,
		LastRun:          t.lastRun,
		LastError:        t.lastError,
	}
}
