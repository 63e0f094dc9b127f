// Package pricing turns order-book snapshots into per-leg and per-offer fair
// prices and decides whether a boosted price is worth publishing.
package pricing

import (
	"math"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/models"
)

// PriceLeg reads the top of book for the leg's selection. A leg with no
// book, or no prices on either side, gets a nil MidPrice.
func PriceLeg(leg models.ResolvedLeg, book *models.MarketBook) models.PricedLeg {
	out := models.PricedLeg{ResolvedLeg: leg}
	if book == nil || !leg.OK() {
		return out
	}
	matched := book.TotalMatched
	out.TotalMatched = &matched

	rb := book.Runner(leg.SelectionID)
	if rb == nil {
		return out
	}

	back, backSize, hasBack := bestLevel(rb.Back)
	lay, laySize, hasLay := bestLevel(rb.Lay)
	if hasBack {
		out.BackPrice, out.BackSize = &back, backSize
	}
	if hasLay {
		out.LayPrice, out.LaySize = &lay, laySize
	}

	switch {
	case hasBack && hasLay:
		mid := (back + lay) / 2
		spread := (lay - back) / mid * 100
		out.MidPrice = &mid
		out.SpreadPct = &spread
		out.Liquidity = math.Min(backSize, laySize)
	case hasBack:
		out.MidPrice = &back
	case hasLay:
		out.MidPrice = &lay
	}
	return out
}

// bestLevel returns the first ladder level with a usable price.
func bestLevel(levels []models.PriceSize) (float64, float64, bool) {
	for _, l := range levels {
		if l.Price > 0 && !math.IsNaN(l.Price) && !math.IsInf(l.Price, 0) {
			return l.Price, l.Size, true
		}
	}
	return 0, 0, false
}
