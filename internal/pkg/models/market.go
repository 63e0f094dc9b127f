package models

import (
	"errors"
	"time"
)

// ErrTooMuchData is returned by order-book sources when a request asks for more data than the
// exchange allows in one call. Callers split the request and retry.
var ErrTooMuchData = errors.New("exchange: too much data requested")

// Runner is one selection inside an exchange market.
type Runner struct {
	SelectionID int64  `json:"selection_id"`
	RunnerName  string `json:"runner_name"`
}

// MarketCandidate is one market returned by a catalogue query.
type MarketCandidate struct {
	MarketID        string    `json:"market_id"`
	MarketName      string    `json:"market_name"`
	MarketTypeCode  string    `json:"market_type_code"`
	EventID         string    `json:"event_id"`
	EventName       string    `json:"event_name"`
	CompetitionName string    `json:"competition_name"`
	KickoffTime     time.Time `json:"kickoff_time"`
	Runners         []Runner  `json:"runners"`
}

// RunnerByID returns the runner with the given selection id.
func (c MarketCandidate) RunnerByID(id int64) (Runner, bool) {
	for _, r := range c.Runners {
		if r.SelectionID == id {
			return r, true
		}
	}
	return Runner{}, false
}

// CatalogueFilter narrows a catalogue query. Sport is always football.
type CatalogueFilter struct {
	MarketTypeCodes []string
	EventIDs        []string
	TextQuery       string
	From            time.Time
	To              time.Time
	MaxResults      int
}

// PriceSize is one ladder level.
type PriceSize struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// RunnerBook holds top-of-book for one selection.
type RunnerBook struct {
	SelectionID int64       `json:"selection_id"`
	Status      string      `json:"status"`
	Back        []PriceSize `json:"back"`
	Lay         []PriceSize `json:"lay"`
}

// MarketBook is an order-book snapshot for one market.
type MarketBook struct {
	MarketID     string       `json:"market_id"`
	Status       string       `json:"status"`
	TotalMatched float64      `json:"total_matched"`
	Runners      []RunnerBook `json:"runners"`
}

// Runner returns the book for a selection, or nil.
func (b *MarketBook) Runner(selectionID int64) *RunnerBook {
	if b == nil {
		return nil
	}
	for i := range b.Runners {
		if b.Runners[i].SelectionID == selectionID {
			return &b.Runners[i]
		}
	}
	return nil
}
