package models

import "time"

// AtomicKind is the closed set of single-team propositions the resolvers understand.
type AtomicKind string

const (
	KindTeamWin        AtomicKind = "TEAM_WIN"
	KindTeamDraw       AtomicKind = "TEAM_DRAW"
	KindWinToNil       AtomicKind = "WIN_TO_NIL"
	KindTeamWinAndBTTS AtomicKind = "TEAM_WIN_AND_BTTS"
)

// Valid reports whether k is one of the known kinds.
func (k AtomicKind) Valid() bool {
	switch k {
	case KindTeamWin, KindTeamDraw, KindWinToNil, KindTeamWinAndBTTS:
		return true
	}
	return false
}

// ClassifiedOffer is a bookmaker promotion after bet-type classification.
type ClassifiedOffer struct {
	Title       string   `json:"title"`
	BetTypeID   string   `json:"bet_type_id"`
	Legs        []string `json:"legs"`
	Bookmaker   string   `json:"bookmaker,omitempty"`
	BoostedOdds string   `json:"boosted_odds,omitempty"`
	SourceURL   string   `json:"source_url,omitempty"`
}

// AtomicLegRequest asks a resolver for one team proposition.
type AtomicLegRequest struct {
	Team string     `json:"team"`
	Kind AtomicKind `json:"kind"`
}

// CompositeOffer is a decomposed promotion. Legs keep the order they were written in.
type CompositeOffer struct {
	Title     string             `json:"title"`
	BetTypeID string             `json:"bet_type_id"`
	Legs      []AtomicLegRequest `json:"legs"`
}

// PricedLeg is a resolved leg plus its top-of-book pricing.
type PricedLeg struct {
	ResolvedLeg
	BackPrice    *float64 `json:"back_price"`
	LayPrice     *float64 `json:"lay_price"`
	BackSize     float64  `json:"back_size"`
	LaySize      float64  `json:"lay_size"`
	MidPrice     *float64 `json:"mid_price"`
	SpreadPct    *float64 `json:"spread_pct"`
	Liquidity    float64  `json:"liquidity"`
	TotalMatched *float64 `json:"total_matched,omitempty"`
}

// OfferDiagnostics aggregates leg pricing diagnostics.
type OfferDiagnostics struct {
	MinLiquidity float64  `json:"min_liquidity"`
	MaxSpreadPct *float64 `json:"max_spread_pct"`
}

// OfferStatus summarizes how far an offer got through the pipeline.
type OfferStatus string

const (
	StatusPriced     OfferStatus = "PRICED"
	StatusUnresolved OfferStatus = "UNRESOLVED"
	StatusUnpriced   OfferStatus = "UNPRICED"
	StatusSkipped    OfferStatus = "SKIPPED"
	StatusError      OfferStatus = "ERROR"
)

// ResolvedOffer is handed to the publication stage.
type ResolvedOffer struct {
	UID         string           `json:"uid"`
	RunID       string           `json:"run_id"`
	Title       string           `json:"title"`
	BetTypeID   string           `json:"bet_type_id"`
	Bookmaker   string           `json:"bookmaker,omitempty"`
	SourceURL   string           `json:"source_url,omitempty"`
	BoostedOdds *float64         `json:"boosted_odds"`
	Legs        []PricedLeg      `json:"legs"`
	FairOdds    *float64         `json:"fair_odds_decimal"`
	Diagnostics OfferDiagnostics `json:"diagnostics"`
	Rating      *float64         `json:"rating"`
	Publishable bool             `json:"publishable"`
	Status      OfferStatus      `json:"status"`
	Reasons     []string         `json:"reasons,omitempty"`
	ResolvedAt  time.Time        `json:"resolved_at"`
}

// BatchResult collects one engine run.
type BatchResult struct {
	RunID      string          `json:"run_id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Offers     []ResolvedOffer `json:"offers"`
	Failures   []FailureRecord `json:"failures"`
}

// Publishable returns the offers that passed the publication filter.
func (b *BatchResult) Publishable() []ResolvedOffer {
	var out []ResolvedOffer
	for _, o := range b.Offers {
		if o.Publishable {
			out = append(out, o)
		}
	}
	return out
}
