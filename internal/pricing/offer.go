package pricing

import (
	"math"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/models"
)

// OfferPrice is the combined fair price of all legs plus diagnostics.
type OfferPrice struct {
	FairOdds    *float64
	Diagnostics models.OfferDiagnostics
	// Reasons lists why FairOdds is nil, one entry per offending leg.
	Reasons []LegIssue
}

type LegIssue struct {
	Index  int
	Reason models.Reason
}

// PriceOffer multiplies leg mids. Any leg without a mid above 1.0 voids the
// whole price; there is no partial product. Diagnostics are computed either way.
func PriceOffer(legs []models.PricedLeg) OfferPrice {
	var out OfferPrice
	if len(legs) == 0 {
		return out
	}

	product := 1.0
	minLiq := math.Inf(1)
	for i, l := range legs {
		minLiq = math.Min(minLiq, l.Liquidity)
		if l.SpreadPct != nil && (out.Diagnostics.MaxSpreadPct == nil || *l.SpreadPct > *out.Diagnostics.MaxSpreadPct) {
			v := *l.SpreadPct
			out.Diagnostics.MaxSpreadPct = &v
		}
		switch {
		case l.MidPrice == nil:
			out.Reasons = append(out.Reasons, LegIssue{Index: i, Reason: models.ReasonNoMidPrice})
		case *l.MidPrice <= 1.0:
			out.Reasons = append(out.Reasons, LegIssue{Index: i, Reason: models.ReasonDegeneratePrice})
		default:
			product *= *l.MidPrice
		}
	}
	out.Diagnostics.MinLiquidity = minLiq

	if len(out.Reasons) == 0 {
		out.FairOdds = &product
	}
	return out
}
