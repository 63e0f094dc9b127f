package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/aliases"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/entity"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/models"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/textnorm"
)

// Options selects market type codes and the kickoff horizon.
type Options struct {
	Horizon           time.Duration
	PageSize          int
	MatchOddsType     string
	MatchOddsBTTSType string
	WinToNilTypes     []string
	// Now overrides the clock used for the kickoff window.
	Now func() time.Time
}

func (o *Options) setDefaults() {
	if o.Horizon <= 0 {
		o.Horizon = 72 * time.Hour
	}
	if o.MatchOddsType == "" {
		o.MatchOddsType = "MATCH_ODDS"
	}
	if o.MatchOddsBTTSType == "" {
		o.MatchOddsBTTSType = "MATCH_ODDS_AND_BOTH_TEAMS_TO_SCORE"
	}
	if len(o.WinToNilTypes) == 0 {
		o.WinToNilTypes = []string{"WIN_TO_NIL"}
	}
}

// Resolver maps atomic legs to exchange market+selection pairs. Every kind
// anchors on the match-result market first so all legs about one fixture
// land on the same event.
type Resolver struct {
	catalogue     Catalogue
	fetcher       *Fetcher
	disambiguator *Disambiguator
	aliases       *aliases.Index
	opts          Options
}

func New(catalogue Catalogue, ix *aliases.Index, classifier *entity.Classifier, opts Options) *Resolver {
	opts.setDefaults()
	fetcher := NewFetcher(catalogue, opts.PageSize)
	if opts.Now != nil {
		fetcher.now = opts.Now
	}
	return &Resolver{
		catalogue:     catalogue,
		fetcher:       fetcher,
		disambiguator: NewDisambiguator(ix, classifier),
		aliases:       ix,
		opts:          opts,
	}
}

// ForRun returns a resolver sharing r's configuration that reads candidate
// lists through cache.
func (r *Resolver) ForRun(cache *RunCache) *Resolver {
	cp := *r
	if cache != nil {
		cp.fetcher = r.fetcher.withCache(cache)
	}
	return &cp
}

// Resolve maps one leg. Lookup misses come back as leg.Failure; only
// transport errors are returned as errors.
func (r *Resolver) Resolve(ctx context.Context, leg models.AtomicLegRequest) (models.ResolvedLeg, error) {
	out := models.ResolvedLeg{Team: strings.TrimSpace(leg.Team), Kind: leg.Kind}
	if !leg.Kind.Valid() {
		return out, fmt.Errorf("unsupported leg kind %q", leg.Kind)
	}

	anchor, tried, failure, err := r.Anchor(ctx, out.Team)
	out.TriedNames = tried
	if err != nil {
		return out, err
	}
	if failure != nil {
		out.Failure = failure
		return out, nil
	}

	out.EventID = anchor.Market.EventID
	out.EventName = anchor.Market.EventName
	out.CompetitionName = anchor.Market.CompetitionName
	out.Kickoff = anchor.Market.KickoffTime
	out.MatchType = anchor.MatchType

	switch leg.Kind {
	case models.KindTeamWin:
		setSelection(&out, anchor.Market, anchor.Self)
	case models.KindTeamDraw:
		draw, ok := findRunner(anchor.Market.Runners, isDrawRunner)
		if !ok {
			out.Failure = anchorFailure(models.ReasonNoDrawRunner, "match-result market has no draw runner", anchor)
			break
		}
		setSelection(&out, anchor.Market, draw)
	case models.KindTeamWinAndBTTS:
		err = r.resolveBTTS(ctx, &out, anchor)
	case models.KindWinToNil:
		err = r.resolveWinToNil(ctx, &out, anchor)
	}
	if err != nil {
		return out, err
	}

	if out.Failure != nil {
		slog.Debug("Leg unresolved", "team", out.Team, "kind", out.Kind, "reason", out.Failure.Reason, "event", out.EventName)
	} else {
		slog.Debug("Leg resolved", "team", out.Team, "kind", out.Kind, "market_id", out.MarketID,
			"selection_id", out.SelectionID, "event", out.EventName, "match", out.MatchType)
	}
	return out, nil
}

// Anchor resolves team to its match-result market, fanning out over alias
// spellings until the catalogue returns something.
func (r *Resolver) Anchor(ctx context.Context, team string) (Anchor, []string, *models.LegFailure, error) {
	display := r.aliases.DisplayName(team)
	variants := r.disambiguator.variants(display, team)

	cands, tried, err := r.fetcher.FetchFanOut(ctx, variants, r.opts.MatchOddsType, r.opts.Horizon)
	if err != nil {
		return Anchor{}, tried, nil, err
	}
	if len(cands) == 0 {
		return Anchor{}, tried, &models.LegFailure{
			Reason:     models.ReasonNoCandidates,
			Detail:     "no " + r.opts.MatchOddsType + " markets for any spelling",
			TriedNames: tried,
		}, nil
	}

	anchor, failure := r.disambiguator.Disambiguate(display, cands, team)
	if failure != nil {
		failure.TriedNames = tried
	}
	return anchor, tried, failure, nil
}

func (r *Resolver) resolveBTTS(ctx context.Context, out *models.ResolvedLeg, anchor Anchor) error {
	markets, err := r.eventMarkets(ctx, anchor, []string{r.opts.MatchOddsBTTSType}, "")
	if err != nil {
		return err
	}
	market, ok := firstMarket(markets, func(m models.MarketCandidate) bool {
		return m.MarketTypeCode == r.opts.MatchOddsBTTSType || isBTTSMarketName(m.MarketName)
	})
	if !ok {
		markets, err = r.eventMarkets(ctx, anchor, nil, "Match Odds and Both Teams to Score")
		if err != nil {
			return err
		}
		market, ok = firstMarket(markets, func(m models.MarketCandidate) bool {
			return m.MarketTypeCode == r.opts.MatchOddsBTTSType || isBTTSMarketName(m.MarketName)
		})
	}
	if !ok {
		out.Failure = anchorFailure(models.ReasonNoSGMMarket, "no match odds + BTTS market for fixture", anchor)
		return nil
	}

	yes, ok := pickYesRunner(market.Runners, anchor, out.Team)
	if !ok {
		out.Failure = anchorFailure(models.ReasonNoYesRunner, "no <team>/Yes runner in "+market.MarketID, anchor)
		return nil
	}
	setSelection(out, market, yes)
	return nil
}

func (r *Resolver) resolveWinToNil(ctx context.Context, out *models.ResolvedLeg, anchor Anchor) error {
	names := []string{anchor.Self.RunnerName}
	names = append(names, r.aliases.Variants(out.Team)...)
	isWTN := func(m models.MarketCandidate) bool { return isWinToNilFor(m.MarketName, names) }

	markets, err := r.eventMarkets(ctx, anchor, r.opts.WinToNilTypes, "")
	if err != nil {
		return err
	}
	market, ok := firstMarket(markets, isWTN)
	if !ok {
		markets, err = r.eventMarkets(ctx, anchor, nil, anchor.Self.RunnerName+" Win To Nil")
		if err != nil {
			return err
		}
		market, ok = firstMarket(markets, isWTN)
	}
	if !ok {
		out.Failure = anchorFailure(models.ReasonNoWTNMarket, "no "+anchor.Self.RunnerName+" Win To Nil market", anchor)
		return nil
	}

	yes, ok := findRunner(market.Runners, isYesRunner)
	if !ok {
		out.Failure = anchorFailure(models.ReasonNoYesRunner, "no Yes runner in "+market.MarketID, anchor)
		return nil
	}
	setSelection(out, market, yes)
	return nil
}

// eventMarkets queries markets scoped to the anchor event.
func (r *Resolver) eventMarkets(ctx context.Context, anchor Anchor, types []string, text string) ([]models.MarketCandidate, error) {
	filter := models.CatalogueFilter{
		EventIDs:        []string{anchor.Market.EventID},
		MarketTypeCodes: types,
		TextQuery:       text,
		MaxResults:      50,
	}
	markets, err := r.catalogue.ListMarketCatalogue(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list markets for event %s: %w", anchor.Market.EventID, err)
	}
	out := markets[:0:0]
	for _, m := range markets {
		if m.EventID == "" || m.EventID == anchor.Market.EventID {
			out = append(out, m)
		}
	}
	return out, nil
}

// pickYesRunner finds the "<team>/Yes" runner for the anchored team, either by
// name or through a Home/Away placeholder label.
func pickYesRunner(runners []models.Runner, anchor Anchor, requested string) (models.Runner, bool) {
	type parsed struct {
		runner models.Runner
		team   string
	}
	var yes []parsed
	for _, rn := range runners {
		team, ok := parseYesLabel(rn.RunnerName)
		if !ok || team == "" || isDrawRunner(team) {
			continue
		}
		yes = append(yes, parsed{runner: rn, team: team})
	}
	if len(yes) == 0 {
		return models.Runner{}, false
	}

	for _, p := range yes {
		if textnorm.SameTeam(p.team, anchor.Self.RunnerName) && !sameOpponent(p.team, anchor) {
			return p.runner, true
		}
	}
	for _, p := range yes {
		if textnorm.SameTeam(p.team, requested) && !sameOpponent(p.team, anchor) {
			return p.runner, true
		}
	}

	placeholders := homePlaceholders
	if anchor.Side == SideAway {
		placeholders = awayPlaceholders
	}
	if anchor.Side != SideUnknown {
		for _, p := range yes {
			if _, ok := placeholders[p.team]; ok {
				return p.runner, true
			}
		}
	}

	// labels that name neither side: fall back to runner order
	if len(yes) == 2 && anchor.Side != SideUnknown && !mentionsEitherSide(yes[0].team, anchor) && !mentionsEitherSide(yes[1].team, anchor) {
		return yes[int(anchor.Side)-1].runner, true
	}
	return models.Runner{}, false
}

func sameOpponent(label string, anchor Anchor) bool {
	if anchor.Opponent == "" || textnorm.Normalize(anchor.Opponent) == textnorm.Normalize(anchor.Self.RunnerName) {
		return false
	}
	return textnorm.Normalize(label) == textnorm.Normalize(anchor.Opponent)
}

func mentionsEitherSide(label string, anchor Anchor) bool {
	if _, ok := homePlaceholders[label]; ok {
		return true
	}
	if _, ok := awayPlaceholders[label]; ok {
		return true
	}
	return textnorm.SameTeam(label, anchor.HomeName) || textnorm.SameTeam(label, anchor.AwayName)
}

func isBTTSMarketName(name string) bool {
	n := textnorm.Normalize(name)
	return strings.Contains(n, "both teams to score") || strings.Contains(n, "btts")
}

func isWinToNilFor(marketName string, names []string) bool {
	tokens := textnorm.Tokens(marketName)
	for _, name := range names {
		needle := textnorm.Tokens(name + " win to nil")
		if len(needle) > 3 && textnorm.ContainsTokens(tokens, needle) {
			return true
		}
	}
	return false
}

func firstMarket(markets []models.MarketCandidate, pred func(models.MarketCandidate) bool) (models.MarketCandidate, bool) {
	for _, m := range markets {
		if pred(m) {
			return m, true
		}
	}
	return models.MarketCandidate{}, false
}

func findRunner(runners []models.Runner, pred func(string) bool) (models.Runner, bool) {
	for _, rn := range runners {
		if pred(rn.RunnerName) {
			return rn, true
		}
	}
	return models.Runner{}, false
}

// setSelection records market and runner together; the selection always
// comes from that market's own runner list.
func setSelection(out *models.ResolvedLeg, market models.MarketCandidate, runner models.Runner) {
	out.MarketID = market.MarketID
	out.MarketName = market.MarketName
	out.SelectionID = runner.SelectionID
	out.RunnerName = runner.RunnerName
}

func anchorFailure(reason models.Reason, detail string, anchor Anchor) *models.LegFailure {
	return &models.LegFailure{
		Reason:    reason,
		Detail:    detail,
		EventID:   anchor.Market.EventID,
		EventName: anchor.Market.EventName,
	}
}
