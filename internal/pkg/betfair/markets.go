package betfair

import (
	"context"
	"time"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/models"
)

const footballEventType = "1"

var catalogueProjection = []string{
	"EVENT", "COMPETITION", "RUNNER_DESCRIPTION", "MARKET_DESCRIPTION", "MARKET_START_TIME",
}

type marketFilter struct {
	EventTypeIDs    []string   `json:"eventTypeIds,omitempty"`
	EventIDs        []string   `json:"eventIds,omitempty"`
	MarketTypeCodes []string   `json:"marketTypeCodes,omitempty"`
	MarketStartTime *timeRange `json:"marketStartTime,omitempty"`
	TextQuery       string     `json:"textQuery,omitempty"`
	InPlayOnly      bool       `json:"inPlayOnly"`
}

type timeRange struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

type catalogueParams struct {
	Filter           marketFilter `json:"filter"`
	MarketProjection []string     `json:"marketProjection"`
	Sort             string       `json:"sort"`
	MaxResults       int          `json:"maxResults"`
}

type marketCatalogue struct {
	MarketID        string    `json:"marketId"`
	MarketName      string    `json:"marketName"`
	MarketStartTime time.Time `json:"marketStartTime"`
	Description     *struct {
		MarketType string `json:"marketType"`
	} `json:"description"`
	Runners []struct {
		SelectionID  int64  `json:"selectionId"`
		RunnerName   string `json:"runnerName"`
		SortPriority int    `json:"sortPriority"`
	} `json:"runners"`
	Event *struct {
		ID       string    `json:"id"`
		Name     string    `json:"name"`
		OpenDate time.Time `json:"openDate"`
	} `json:"event"`
	Competition *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"competition"`
}

// ListMarketCatalogue queries football markets matching the filter.
func (c *Client) ListMarketCatalogue(ctx context.Context, filter models.CatalogueFilter) ([]models.MarketCandidate, error) {
	maxResults := filter.MaxResults
	if maxResults <= 0 {
		maxResults = c.maxResults
	}
	params := catalogueParams{
		Filter: marketFilter{
			EventTypeIDs:    []string{footballEventType},
			EventIDs:        filter.EventIDs,
			MarketTypeCodes: filter.MarketTypeCodes,
			TextQuery:       filter.TextQuery,
		},
		MarketProjection: catalogueProjection,
		Sort:             "FIRST_TO_START",
		MaxResults:       maxResults,
	}
	if !filter.From.IsZero() || !filter.To.IsZero() {
		params.Filter.MarketStartTime = &timeRange{From: formatTime(filter.From), To: formatTime(filter.To)}
	}

	var raw []marketCatalogue
	if err := c.call(ctx, "listMarketCatalogue", params, &raw); err != nil {
		return nil, err
	}

	out := make([]models.MarketCandidate, 0, len(raw))
	for _, m := range raw {
		out = append(out, toCandidate(m, filter.MarketTypeCodes))
	}
	return out, nil
}

func toCandidate(m marketCatalogue, requestedTypes []string) models.MarketCandidate {
	mc := models.MarketCandidate{
		MarketID:    m.MarketID,
		MarketName:  m.MarketName,
		KickoffTime: m.MarketStartTime.UTC(),
	}
	if m.Description != nil {
		mc.MarketTypeCode = m.Description.MarketType
	}
	if mc.MarketTypeCode == "" && len(requestedTypes) == 1 {
		mc.MarketTypeCode = requestedTypes[0]
	}
	if m.Event != nil {
		mc.EventID = m.Event.ID
		mc.EventName = m.Event.Name
		if mc.KickoffTime.IsZero() {
			mc.KickoffTime = m.Event.OpenDate.UTC()
		}
	}
	if m.Competition != nil {
		mc.CompetitionName = m.Competition.Name
	}
	for _, r := range m.Runners {
		mc.Runners = append(mc.Runners, models.Runner{SelectionID: r.SelectionID, RunnerName: r.RunnerName})
	}
	return mc
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

type priceProjection struct {
	PriceData             []string `json:"priceData"`
	ExBestOffersOverrides struct {
		BestPricesDepth int `json:"bestPricesDepth"`
	} `json:"exBestOffersOverrides"`
	Virtualise bool `json:"virtualise"`
}

type bookParams struct {
	MarketIDs       []string        `json:"marketIds"`
	PriceProjection priceProjection `json:"priceProjection"`
}

type marketBook struct {
	MarketID     string  `json:"marketId"`
	Status       string  `json:"status"`
	TotalMatched float64 `json:"totalMatched"`
	Runners      []struct {
		SelectionID int64  `json:"selectionId"`
		Status      string `json:"status"`
		Ex          struct {
			AvailableToBack []models.PriceSize `json:"availableToBack"`
			AvailableToLay  []models.PriceSize `json:"availableToLay"`
		} `json:"ex"`
	} `json:"runners"`
}

// ListMarketBook fetches best offers for the given markets in one call.
// Chunking is the caller's job.
func (c *Client) ListMarketBook(ctx context.Context, marketIDs []string) ([]models.MarketBook, error) {
	if len(marketIDs) == 0 {
		return nil, nil
	}
	params := bookParams{MarketIDs: marketIDs}
	params.PriceProjection.PriceData = []string{"EX_BEST_OFFERS"}
	params.PriceProjection.ExBestOffersOverrides.BestPricesDepth = c.depth
	params.PriceProjection.Virtualise = c.virtualise

	var raw []marketBook
	if err := c.call(ctx, "listMarketBook", params, &raw); err != nil {
		return nil, err
	}

	books := make([]models.MarketBook, 0, len(raw))
	for _, b := range raw {
		book := models.MarketBook{MarketID: b.MarketID, Status: b.Status, TotalMatched: b.TotalMatched}
		for _, r := range b.Runners {
			book.Runners = append(book.Runners, models.RunnerBook{
				SelectionID: r.SelectionID,
				Status:      r.Status,
				Back:        r.Ex.AvailableToBack,
				Lay:         r.Ex.AvailableToLay,
			})
		}
		books = append(books, book)
	}
	return books, nil
}
