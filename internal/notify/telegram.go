// Package notify sends Telegram alerts when symbols reach a BUY signal.
package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Dmitrii6776/PersonalTradeAssist/internal/models"
)

// Telegram sends BUY alerts to a single chat. A per-symbol cooldown keeps
// repeated cycles from spamming the same setup.
type Telegram struct {
	bot      *tgbotapi.BotAPI
	chatID   int64
	cooldown time.Duration

	mu       sync.Mutex
	lastSent map[string]time.Time

	logger zerolog.Logger
}

// NewTelegram creates a Telegram notifier.
func NewTelegram(botToken, chatID string, cooldown time.Duration) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("creating Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if cooldown <= 0 {
		cooldown = 6 * time.Hour
	}

	return &Telegram{
		bot:      bot,
		chatID:   chatIDInt,
		cooldown: cooldown,
		lastSent: make(map[string]time.Time),
		logger:   log.With().Str("component", "telegram_notifier").Logger(),
	}, nil
}

// NotifyBuys sends one message covering the given BUY analyses. Symbols
// alerted within the cooldown window are dropped; sending happens in a
// goroutine so the update cycle is never blocked.
func (t *Telegram) NotifyBuys(ctx context.Context, analyses []models.CoinAnalysis) {
	fresh := t.filterCooldown(analyses)
	if len(fresh) == 0 {
		return
	}

	go func() {
		msg := tgbotapi.NewMessage(t.chatID, formatBuys(fresh))
		if _, err := t.bot.Send(msg); err != nil {
			t.logger.Warn().Err(err).Int("count", len(fresh)).Msg("Failed to send BUY alert")
			return
		}
		t.logger.Info().Int("count", len(fresh)).Msg("Sent BUY alert")
	}()
}

func (t *Telegram) filterCooldown(analyses []models.CoinAnalysis) []models.CoinAnalysis {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	fresh := make([]models.CoinAnalysis, 0, len(analyses))
	for _, a := range analyses {
		if last, ok := t.lastSent[a.Symbol]; ok && now.Sub(last) < t.cooldown {
			continue
		}
		t.lastSent[a.Symbol] = now
		fresh = append(fresh, a)
	}
	return fresh
}

func formatBuys(analyses []models.CoinAnalysis) string {
	var b strings.Builder
	b.WriteString("Breakout BUY signals\n\n")
	for _, a := range analyses {
		fmt.Fprintf(&b, "%s  price=%.6g  score=%d  zone=%s  target=%s\n",
			a.Symbol, a.Price, a.BreakoutScore, a.VolatilityZone, a.TimeToTarget)
	}
	return b.String()
}
