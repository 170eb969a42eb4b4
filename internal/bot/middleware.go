package bot

import (
	"context"
	"runtime/debug"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

func (b *Bot) withRecovery(ctx context.Context, handler func()) {
	defer func() {
		if r := recover(); r != nil {
			b.metrics.ErrorsTotal.Inc()
			zerolog.Ctx(ctx).Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Recovered from panic in update handler")
		}
	}()
	handler()
}

// allow applies the per-user rate limit. A failed check lets the update through.
func (b *Bot) allow(ctx context.Context, update tgbotapi.Update, userID int64) bool {
	window := time.Duration(b.config.RateLimitWindow) * time.Second
	if b.config.RateLimitMessages <= 0 || window <= 0 {
		return true
	}

	allowed, err := b.stateService.CheckRateLimit(ctx, userID, b.config.RateLimitMessages, window)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Rate limit check failed")
		return true
	}
	if allowed {
		return true
	}

	b.metrics.RateLimited.Inc()
	zerolog.Ctx(ctx).Warn().Msg("Rate limit exceeded")
	switch {
	case update.CallbackQuery != nil:
		b.answerCallback(ctx, update.CallbackQuery.ID, msgRateLimited)
	case update.Message != nil:
		b.sendMessage(ctx, update.Message.Chat.ID, msgRateLimited)
	}
	return false
}

func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string) {
	if _, err := b.tgService.SendMessage(ctx, chatID, text); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

func (b *Bot) answerCallback(ctx context.Context, callbackID, text string) {
	if err := b.tgService.AnswerCallback(ctx, callbackID, text); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Failed to answer callback")
	}
}
