package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/models"
)

type fakeBot struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, f.err
}

func (f *fakeBot) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), f.sent...)
}

func ptr(v float64) *float64 { return &v }

func sampleOffer() *models.ResolvedOffer {
	kickoff := time.Date(2026, 10, 17, 14, 0, 0, 0, time.UTC)
	return &models.ResolvedOffer{
		UID:         "abc",
		Title:       "Liverpool & Man_City to win",
		Bookmaker:   "williamhill",
		BoostedOdds: ptr(4.0),
		FairOdds:    ptr(3.2761),
		Rating:      ptr(1.221),
		Diagnostics: models.OfferDiagnostics{MinLiquidity: 40, MaxSpreadPct: ptr(1.1)},
		Legs: []models.PricedLeg{{
			ResolvedLeg: models.ResolvedLeg{
				Team: "Liverpool", MarketName: "Match Odds", RunnerName: "Liverpool",
				EventName: "Liverpool v Everton", Kickoff: kickoff,
			},
			MidPrice: ptr(1.81),
		}},
		SourceURL: "https://example.com/boosts",
	}
}

func TestFormatOfferAlert(t *testing.T) {
	text := FormatOfferAlert(sampleOffer())
	assert.Contains(t, text, "rating 1.22")
	assert.Contains(t, text, `*Liverpool & Man\_City to win*`)
	assert.Contains(t, text, "boosted *4.00* vs fair *3.28*")
	assert.Contains(t, text, "• Liverpool: Match Odds / Liverpool @ 1.81 (Liverpool v Everton, 2026-10-17 14:00 UTC)")
	assert.Contains(t, text, "min liquidity 40 | max spread 1.1%")
	assert.Contains(t, text, "https://example.com/boosts")
}

func TestNotifierSendsQueuedAlerts(t *testing.T) {
	bot := &fakeBot{}
	n := newNotifier(bot, 42, time.Millisecond)

	require.NoError(t, n.SendOfferAlert(context.Background(), sampleOffer()))
	second := sampleOffer()
	second.UID = "def"
	require.NoError(t, n.SendOfferAlert(context.Background(), second))
	n.Stop()

	sent := bot.messages()
	require.Len(t, sent, 2)
	assert.Equal(t, int64(42), sent[0].ChatID)
	assert.Equal(t, tgbotapi.ModeMarkdown, sent[0].ParseMode)

	assert.Error(t, n.SendOfferAlert(context.Background(), sampleOffer()), "stopped notifier rejects alerts")
}

func TestNotifierSendErrorDoesNotStopLoop(t *testing.T) {
	bot := &fakeBot{err: errors.New("429 Too Many Requests")}
	n := newNotifier(bot, 1, time.Millisecond)
	require.NoError(t, n.SendOfferAlert(context.Background(), sampleOffer()))
	require.NoError(t, n.SendOfferAlert(context.Background(), sampleOffer()))
	n.Stop()
	assert.Len(t, bot.messages(), 2)
}

func TestNilNotifier(t *testing.T) {
	var n *TelegramNotifier
	assert.Error(t, n.SendOfferAlert(context.Background(), sampleOffer()))
	assert.Zero(t, n.QueueLen())
	n.Stop()
}
