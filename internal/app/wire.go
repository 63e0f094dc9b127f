// Package app assembles the exchange client, alias index and resolver from config.
package app

import (
	"fmt"
	"log/slog"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/aliases"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/betfair"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/config"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/entity"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pricing"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/resolver"
)

// Resolution bundles what every command needs to resolve legs.
type Resolution struct {
	Client     *betfair.Client
	Classifier *entity.Classifier
	Aliases    *aliases.Index
	Resolver   *resolver.Resolver
}

// LoadAliases builds the alias index. Lint failures are returned with the report.
func LoadAliases(cfg *config.Config, classifier *entity.Classifier) (*aliases.Index, aliases.Report, error) {
	return aliases.Load(aliases.Sources{
		MastersPath:     cfg.Aliases.MastersPath,
		OverlaysDir:     cfg.Aliases.OverlaysDir,
		ExchangeOverlay: cfg.Aliases.ExchangeOverlay,
		SynonymsPath:    cfg.Aliases.SynonymsPath,
		UseSynonyms:     cfg.Aliases.UseSynonyms,
	}, classifier)
}

func NewResolution(cfg *config.Config) (*Resolution, error) {
	classifier := entity.NewClassifier(cfg.Resolver.BTeamWhitelist...)

	ix, report, err := LoadAliases(cfg, classifier)
	if err != nil {
		return nil, fmt.Errorf("failed to load aliases: %w", err)
	}
	slog.Info("Aliases loaded", "entries", ix.Len(), "warnings", len(report.Warnings))

	session, err := betfair.NewSessionProvider(cfg.Betfair)
	if err != nil {
		return nil, fmt.Errorf("failed to create exchange session: %w", err)
	}
	client := betfair.NewClient(cfg.Betfair, session)

	r := resolver.New(client, ix, classifier, resolver.Options{
		Horizon:           cfg.Resolver.Horizon(),
		PageSize:          cfg.Resolver.MaxResults,
		MatchOddsType:     cfg.Resolver.MatchOddsType,
		MatchOddsBTTSType: cfg.Resolver.MatchOddsBTTSType,
		WinToNilTypes:     cfg.Resolver.WinToNilTypes,
	})
	return &Resolution{Client: client, Classifier: classifier, Aliases: ix, Resolver: r}, nil
}

func NewBookFetcher(cfg *config.Config, client *betfair.Client) *pricing.BookFetcher {
	return pricing.NewBookFetcher(client, pricing.BookFetcherConfig{
		ChunkSize:   cfg.Betfair.BookChunkSize,
		Concurrency: cfg.Betfair.BookConcurrency,
		BackoffBase: cfg.Betfair.BackoffBase,
		BackoffMax:  cfg.Betfair.BackoffMax,
	})
}

// Filters converts the publish section. Config defaults have filled the pointers.
func Filters(cfg config.PublishConfig) pricing.Filters {
	f := pricing.Filters{
		Threshold:           cfg.Threshold,
		MinLiquidity:        cfg.MinLiquidity,
		MaxSpreadPct:        cfg.MaxSpreadPct,
		RequireMinLiquidity: true,
		EnforceSpread:       true,
	}
	if cfg.RequireMinLiquidity != nil {
		f.RequireMinLiquidity = *cfg.RequireMinLiquidity
	}
	if cfg.EnforceSpread != nil {
		f.EnforceSpread = *cfg.EnforceSpread
	}
	return f
}
