package models

import "time"

// Reason is a machine-readable failure code carried into the skip log.
type Reason string

const (
	ReasonNoCandidates            Reason = "NO_CANDIDATES"
	ReasonNoEventMatch            Reason = "NO_EVENT_MATCH"
	ReasonNoEventMatchAfterFilter Reason = "NO_EVENT_MATCH_AFTER_FILTER"
	ReasonNoRunnerForTeam         Reason = "NO_RUNNER_FOR_TEAM"
	ReasonNoSGMMarket             Reason = "NO_SGM_MARKET"
	ReasonNoYesRunner             Reason = "NO_YES_RUNNER"
	ReasonNoWTNMarket             Reason = "NO_WTN_MARKET"
	ReasonNoDrawRunner            Reason = "NO_DRAW_RUNNER"

	ReasonUnsupportedProp  Reason = "UNSUPPORTED_PROP"
	ReasonUnclassifiedLeg  Reason = "UNCLASSIFIED_LEG"
	ReasonNoLegs           Reason = "NO_LEGS"
	ReasonLegMismatch      Reason = "LEG_MISMATCH"
	ReasonNoMidPrice       Reason = "NO_MID_PRICE"
	ReasonDegeneratePrice  Reason = "DEGENERATE_PRICE"
	ReasonTransport        Reason = "TRANSPORT_ERROR"
	ReasonNoFairPrice      Reason = "NO_FAIR_PRICE"
	ReasonNoBoostedOdds    Reason = "NO_BOOSTED_ODDS"
	ReasonBelowThreshold   Reason = "BELOW_THRESHOLD"
	ReasonLowLiquidity     Reason = "LOW_LIQUIDITY"
	ReasonWideSpread       Reason = "WIDE_SPREAD"
)

// MatchType records how the self runner was matched.
type MatchType string

const (
	MatchExact MatchType = "exact"
	MatchFuzzy MatchType = "fuzzy"
)

// LegFailure explains why a leg could not be resolved.
type LegFailure struct {
	Reason         Reason   `json:"reason"`
	Detail         string   `json:"detail,omitempty"`
	TriedNames     []string `json:"tried_names,omitempty"`
	CandidatesHint []string `json:"candidates_hint,omitempty"`
	EventID        string   `json:"event_id,omitempty"`
	EventName      string   `json:"event_name,omitempty"`
}

// ResolvedLeg is the resolver output for one atomic leg. Failure is nil on success.
type ResolvedLeg struct {
	Team            string      `json:"team"`
	Kind            AtomicKind  `json:"kind"`
	MarketID        string      `json:"market_id,omitempty"`
	MarketName      string      `json:"market_name,omitempty"`
	SelectionID     int64       `json:"selection_id,omitempty"`
	RunnerName      string      `json:"runner_name,omitempty"`
	EventID         string      `json:"event_id,omitempty"`
	EventName       string      `json:"event_name,omitempty"`
	CompetitionName string      `json:"competition_name,omitempty"`
	Kickoff         time.Time   `json:"kickoff,omitempty"`
	MatchType       MatchType   `json:"match_type,omitempty"`
	TriedNames      []string    `json:"tried_names,omitempty"`
	Failure         *LegFailure `json:"failure,omitempty"`
}

// OK reports whether the leg resolved to a market and selection.
func (l ResolvedLeg) OK() bool {
	return l.Failure == nil && l.MarketID != ""
}

// KickoffISO formats the kickoff as RFC 3339 in UTC, or "" when unknown.
func (l ResolvedLeg) KickoffISO() string {
	if l.Kickoff.IsZero() {
		return ""
	}
	return l.Kickoff.UTC().Format(time.RFC3339)
}

// DecompositionFailure rejects a whole offer before any network call.
type DecompositionFailure struct {
	SkipType bool   `json:"skip_type"`
	Reason   Reason `json:"reason"`
	Detail   string `json:"detail,omitempty"`
}

func (f *DecompositionFailure) String() string {
	if f.Detail == "" {
		return string(f.Reason)
	}
	return string(f.Reason) + ": " + f.Detail
}

// FailureRecord is one skip-log row.
type FailureRecord struct {
	Timestamp      time.Time  `json:"ts"`
	RunID          string     `json:"run_id"`
	Stage          string     `json:"stage"`
	Bookmaker      string     `json:"bookmaker,omitempty"`
	OfferUID       string     `json:"offer_uid,omitempty"`
	Title          string     `json:"title"`
	BetTypeID      string     `json:"bet_type_id,omitempty"`
	Team           string     `json:"team,omitempty"`
	Kind           AtomicKind `json:"kind,omitempty"`
	ReasonCode     Reason     `json:"reason_code"`
	ReasonDetail   string     `json:"reason_detail,omitempty"`
	TriedNames     []string   `json:"tried_names,omitempty"`
	CandidatesHint []string   `json:"candidates_hint,omitempty"`
	EventName      string     `json:"event_name,omitempty"`
	MarketID       string     `json:"market_id,omitempty"`
}

// Failure stages.
const (
	StageDecompose = "decompose"
	StageResolve   = "resolve"
	StagePrice     = "price"
	StagePublish   = "publish"
	StageTransport = "transport"
)
