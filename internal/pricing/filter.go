package pricing

import (
	"fmt"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/models"
)

// Filters decide whether a priced offer is worth publishing.
type Filters struct {
	Threshold           float64
	MinLiquidity        float64
	MaxSpreadPct        float64
	RequireMinLiquidity bool
	EnforceSpread       bool
}

func DefaultFilters() Filters {
	return Filters{
		Threshold:           1.05,
		MinLiquidity:        20,
		MaxSpreadPct:        20,
		RequireMinLiquidity: true,
		EnforceSpread:       true,
	}
}

// Verdict is the outcome of Evaluate.
type Verdict struct {
	Rating      *float64
	Publishable bool
	Reasons     []models.Reason
	Details     []string
}

// Evaluate rates boosted odds against the fair price: rating = boosted/fair.
func (f Filters) Evaluate(boosted, fair *float64, diag models.OfferDiagnostics) Verdict {
	var v Verdict
	reject := func(r models.Reason, detail string) {
		v.Reasons = append(v.Reasons, r)
		v.Details = append(v.Details, detail)
	}

	if fair == nil || *fair <= 1.0 {
		reject(models.ReasonNoFairPrice, "no fair price")
		return v
	}
	if boosted == nil || *boosted <= 1.0 {
		reject(models.ReasonNoBoostedOdds, "no boosted odds")
		return v
	}

	rating := *boosted / *fair
	v.Rating = &rating
	if rating < f.Threshold {
		reject(models.ReasonBelowThreshold, fmt.Sprintf("rating %.3f < %.3f", rating, f.Threshold))
	}
	if f.RequireMinLiquidity && diag.MinLiquidity < f.MinLiquidity {
		reject(models.ReasonLowLiquidity, fmt.Sprintf("min liquidity %.2f < %.2f", diag.MinLiquidity, f.MinLiquidity))
	}
	if f.EnforceSpread && diag.MaxSpreadPct != nil && *diag.MaxSpreadPct > f.MaxSpreadPct {
		reject(models.ReasonWideSpread, fmt.Sprintf("max spread %.2f%% > %.2f%%", *diag.MaxSpreadPct, f.MaxSpreadPct))
	}
	v.Publishable = len(v.Reasons) == 0
	return v
}
