package engine

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/models"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/textnorm"
)

// OfferUID identifies an offer for one UTC day: the same promotion seen again
// later that day maps to the same uid.
func OfferUID(offer models.ClassifiedOffer, at time.Time) string {
	key := strings.Join([]string{
		offer.BetTypeID,
		strings.ToLower(strings.TrimSpace(offer.Bookmaker)),
		textnorm.Normalize(offer.Title),
		at.UTC().Format("2006-01-02"),
	}, "|")
	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}
