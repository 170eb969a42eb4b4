package bot

import (
	"context"
	"strings"

	"salonbot/internal/events"
	"salonbot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	b.metrics.MessagesProcessed.Inc()

	switch {
	case msg.IsCommand() && msg.Command() == "start":
		b.metrics.CommandsProcessed.Inc()
		b.handleStart(ctx, msg)
	case msg.Location != nil:
		b.handleLocation(ctx, msg)
	case msg.Voice != nil:
		b.handleVoice(ctx, msg)
	case msg.Text != "":
		b.handleText(ctx, msg.Chat.ID, msg.From.ID, msg.Text)
	}
}

// handleStart drops any draft and asks for the location.
func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	if err := b.stateService.ClearState(ctx, msg.From.ID); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to clear state on start")
	}
	b.sendWithKeyboard(ctx, msg.Chat.ID, msgWelcome, locationKeyboard())
}

func (b *Bot) promptForLocation(ctx context.Context, chatID int64) {
	b.sendWithKeyboard(ctx, chatID, msgNeedLocation, locationKeyboard())
}

func (b *Bot) handleLocation(ctx context.Context, msg *tgbotapi.Message) {
	coords := models.Coordinates{Latitude: msg.Location.Latitude, Longitude: msg.Location.Longitude}

	// Новая локация начинает диалог заново.
	_, err := b.stateService.ResetState(ctx, msg.From.ID, models.StatePatch{
		Location: &coords,
		Awaiting: models.AwaitingPtr(models.AwaitingDetails),
	})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to save location")
		b.sendMessage(ctx, msg.Chat.ID, msgGenericError)
		return
	}

	b.publish(ctx, events.EventSessionStarted, events.SessionEventPayload{
		UserID:    msg.From.ID,
		Latitude:  coords.Latitude,
		Longitude: coords.Longitude,
	})
	b.sendWithKeyboard(ctx, msg.Chat.ID, msgAskDetails, tgbotapi.NewRemoveKeyboard(true))
}

// handleText routes free text by the dialogue stage. Without a location the user is re-prompted.
func (b *Bot) handleText(ctx context.Context, chatID, userID int64, text string) {
	state, err := b.stateService.GetState(ctx, userID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to load state")
		b.sendMessage(ctx, chatID, msgGenericError)
		return
	}
	if state == nil || state.Location == nil {
		b.promptForLocation(ctx, chatID)
		return
	}

	if state.Stage() == models.StageAwaitingName {
		b.handleName(ctx, chatID, userID, text)
		return
	}
	b.handleDetails(ctx, chatID, userID, state, text)
}

// handleName takes the text verbatim as the customer name.
func (b *Bot) handleName(ctx context.Context, chatID, userID int64, text string) {
	name := strings.TrimSpace(text)
	if name == "" {
		b.sendMessage(ctx, chatID, msgAskName)
		return
	}

	state, err := b.stateService.MergeState(ctx, userID, models.StatePatch{
		Name:     &name,
		Awaiting: models.AwaitingPtr(models.AwaitingDetails),
	})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to save name")
		b.sendMessage(ctx, chatID, msgGenericError)
		return
	}
	b.discoverSalons(ctx, chatID, state)
}

func (b *Bot) sendWithKeyboard(ctx context.Context, chatID int64, text string, markup interface{}) {
	if _, err := b.tgService.SendWithKeyboard(ctx, chatID, text, markup); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

func (b *Bot) publish(ctx context.Context, eventType string, payload interface{}) {
	if b.eventBus == nil {
		return
	}
	if err := b.eventBus.PublishJSON(eventType, payload); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("event", eventType).Msg("Event handler failed")
	}
}
