package bot

import (
	"context"
	"fmt"
	"strings"

	"salonbot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// handleCallbackQuery handles salon and slot buttons. Buttons pressed without a
// matching dialogue stage, or with a malformed payload, are acknowledged and ignored.
func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	userID := callback.From.ID
	chatID := userID
	if callback.Message != nil && callback.Message.Chat != nil {
		chatID = callback.Message.Chat.ID
	}

	state, err := b.stateService.GetState(ctx, userID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to load state for callback")
		b.answerCallback(ctx, callback.ID, "")
		return
	}
	if state == nil {
		b.answerCallback(ctx, callback.ID, "")
		return
	}

	data := callback.Data
	switch {
	case strings.HasPrefix(data, salonPayloadPrefix):
		salonID, ok := parseSalonPayload(data)
		if !ok || !state.HasDetails() {
			b.answerCallback(ctx, callback.ID, "")
			return
		}
		b.answerCallback(ctx, callback.ID, callbackFetchingSlots)
		b.handleSalonSelected(ctx, chatID, userID, salonID)

	case strings.HasPrefix(data, timePayloadPrefix):
		label, ok := parseTimePayload(data)
		if !ok || state.Stage() != models.StageAwaitingSlot {
			b.answerCallback(ctx, callback.ID, "")
			return
		}
		b.answerCallback(ctx, callback.ID, fmt.Sprintf(callbackBookingFormat, label))
		b.handleSlotSelected(ctx, chatID, userID, state, label)

	default:
		b.answerCallback(ctx, callback.ID, "")
	}
}
