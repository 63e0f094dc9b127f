// Package notify sends value alerts for publishable offers.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/models"
)

// Min interval between two messages to the same chat to stay under Telegram's ~30/min limit.
const telegramSendInterval = 2 * time.Second

const queueSize = 100

// sender is the part of tgbotapi.BotAPI the notifier needs.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type queuedMessage struct {
	text     string
	uid      string
	queuedAt time.Time
}

// TelegramNotifier queues alerts and sends them from one goroutine with a fixed gap between sends.
type TelegramNotifier struct {
	bot      sender
	chatID   int64
	interval time.Duration
	lastSend time.Time

	queue     chan queuedMessage
	queueDone chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	stopOnce  sync.Once
}

// NewTelegramNotifier connects to the Bot API and starts the sender goroutine.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	bot.Debug = false

	n := newNotifier(bot, chatID, telegramSendInterval)
	slog.Info("Telegram notifier initialized", "chat_id", chatID, "bot", bot.Self.UserName)
	return n, nil
}

func newNotifier(bot sender, chatID int64, interval time.Duration) *TelegramNotifier {
	ctx, cancel := context.WithCancel(context.Background())
	n := &TelegramNotifier{
		bot:       bot,
		chatID:    chatID,
		interval:  interval,
		queue:     make(chan queuedMessage, queueSize),
		queueDone: make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
	go n.messageSender()
	return n
}

// QueueLen returns current number of messages in the send queue.
func (n *TelegramNotifier) QueueLen() int {
	if n == nil {
		return 0
	}
	return len(n.queue)
}

// SendOfferAlert queues an alert for a publishable offer (non-blocking).
func (n *TelegramNotifier) SendOfferAlert(ctx context.Context, offer *models.ResolvedOffer) error {
	if n == nil || n.bot == nil {
		return fmt.Errorf("telegram notifier not initialized")
	}
	if n.ctx.Err() != nil {
		return fmt.Errorf("notifier stopped")
	}

	msg := queuedMessage{text: FormatOfferAlert(offer), uid: offer.UID, queuedAt: time.Now()}
	select {
	case <-n.ctx.Done():
		return fmt.Errorf("notifier stopped")
	case <-ctx.Done():
		return ctx.Err()
	case n.queue <- msg:
		return nil
	default:
		slog.Warn("Telegram message queue is full, dropping message", "uid", offer.UID, "title", offer.Title)
		return fmt.Errorf("message queue is full")
	}
}

// Stop drains the queue and waits for the sender goroutine to exit.
func (n *TelegramNotifier) Stop() {
	if n == nil {
		return
	}
	n.stopOnce.Do(n.cancel)
	<-n.queueDone
}

func (n *TelegramNotifier) messageSender() {
	defer close(n.queueDone)
	for {
		select {
		case <-n.ctx.Done():
			// Drain remaining messages before exit
			for {
				select {
				case msg := <-n.queue:
					n.send(msg, false)
				default:
					return
				}
			}
		case msg := <-n.queue:
			n.send(msg, true)
		}
	}
}

func (n *TelegramNotifier) send(msg queuedMessage, paced bool) {
	if paced {
		if wait := n.interval - time.Since(n.lastSend); wait > 0 {
			select {
			case <-n.ctx.Done():
			case <-time.After(wait):
			}
		}
	}

	tgMsg := tgbotapi.NewMessage(n.chatID, msg.text)
	tgMsg.ParseMode = tgbotapi.ModeMarkdown
	tgMsg.DisableWebPagePreview = true

	sendStart := time.Now()
	n.lastSend = sendStart
	_, err := n.bot.Send(tgMsg)
	if err != nil {
		slog.Error("Telegram send: failed", "error", err, "uid", msg.uid)
		return
	}
	slog.Info("Telegram send: success",
		"uid", msg.uid,
		"queue_delay", sendStart.Sub(msg.queuedAt),
		"send_duration", time.Since(sendStart),
		"queue_length", len(n.queue))
}

// FormatOfferAlert renders an offer as a legacy-Markdown Telegram message.
func FormatOfferAlert(o *models.ResolvedOffer) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🚀 *Value boost* (rating %s)\n\n", formatOdds(o.Rating)))
	b.WriteString(fmt.Sprintf("*%s*\n", escapeMarkdown(o.Title)))
	bookmaker := strings.TrimSpace(o.Bookmaker)
	if bookmaker == "" {
		bookmaker = "unknown"
	}
	b.WriteString(fmt.Sprintf("🏠 %s | boosted *%s* vs fair *%s*\n\n",
		escapeMarkdown(bookmaker), formatOdds(o.BoostedOdds), formatOdds(o.FairOdds)))

	for _, l := range o.Legs {
		b.WriteString(fmt.Sprintf("• %s: %s / %s @ %s",
			escapeMarkdown(l.Team), escapeMarkdown(l.MarketName), escapeMarkdown(l.RunnerName), formatOdds(l.MidPrice)))
		if l.EventName != "" {
			b.WriteString(fmt.Sprintf(" (%s, %s)", escapeMarkdown(l.EventName), formatTime(l.Kickoff)))
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("\n💧 min liquidity %.0f", o.Diagnostics.MinLiquidity))
	if o.Diagnostics.MaxSpreadPct != nil {
		b.WriteString(fmt.Sprintf(" | max spread %.1f%%", *o.Diagnostics.MaxSpreadPct))
	}
	b.WriteString("\n")
	if o.SourceURL != "" {
		b.WriteString(o.SourceURL + "\n")
	}
	return b.String()
}

func formatOdds(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *v)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.UTC().Format("2006-01-02 15:04 UTC")
}

// escapeMarkdown escapes the characters legacy Markdown treats as entities.
func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"`", "\\`",
		"[", "\\[",
	)
	return replacer.Replace(text)
}
