package bot

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"salonbot/internal/domain"
	"salonbot/internal/models"
	"salonbot/internal/slots"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// handleDetails extracts service, date and name and advances to the name prompt or salon search.
// Without both service and date the state is left unchanged.
func (b *Bot) handleDetails(ctx context.Context, chatID, userID int64, state *models.ConversationState, text string) {
	log := zerolog.Ctx(ctx)

	if err := b.tgService.SendChatAction(ctx, chatID, tgbotapi.ChatTyping); err != nil {
		log.Debug().Err(err).Msg("Failed to send typing action")
	}

	ex, err := b.extractor.Extract(ctx, text, b.now(), b.config.Location())
	if err != nil {
		log.Warn().Err(err).Msg("Extraction failed")
	}
	if err != nil || !ex.Complete() {
		b.sendMessage(ctx, chatID, msgClarify)
		return
	}

	patch := ex.Patch()
	needName := ex.Name == "" && state.Name == ""
	if needName {
		patch.Awaiting = models.AwaitingPtr(models.AwaitingName)
	}

	updated, err := b.stateService.MergeState(ctx, userID, patch)
	if err != nil {
		log.Error().Err(err).Msg("Failed to save booking details")
		b.sendMessage(ctx, chatID, msgGenericError)
		return
	}

	if needName {
		b.sendMessage(ctx, chatID, msgAskName)
		return
	}
	b.discoverSalons(ctx, chatID, updated)
}

// discoverSalons presents nearby salons. An empty result keeps the state so new details can retry.
func (b *Bot) discoverSalons(ctx context.Context, chatID int64, state *models.ConversationState) {
	log := zerolog.Ctx(ctx)
	b.sendMessage(ctx, chatID, msgSearching)

	salons, err := b.bookingService.NearbySalons(ctx, state.Location.Latitude, state.Location.Longitude)
	if err != nil {
		log.Error().Err(err).Msg("Nearby salon search failed")
	}
	if len(salons) == 0 {
		b.sendMessage(ctx, chatID, fmt.Sprintf(msgNoSalonsFormat, b.radiusKm()))
		return
	}

	b.sendMessage(ctx, chatID, msgSalonsHeader)
	for _, salon := range salons {
		b.sendSalonCard(ctx, chatID, salon)
	}
}

// sendSalonCard sends a photo card and falls back to text when the photo cannot be delivered.
func (b *Bot) sendSalonCard(ctx context.Context, chatID int64, salon models.Salon) {
	caption := fmt.Sprintf(msgSalonCaption, salon.Name, salon.PriceLabel())
	keyboard := salonKeyboard(salon.ID)

	if salon.ImageURL != "" {
		_, err := b.tgService.SendPhoto(ctx, chatID, salon.ImageURL, caption, &keyboard)
		if err == nil {
			return
		}
		b.metrics.PhotoFallbacks.Inc()
		zerolog.Ctx(ctx).Warn().Err(err).Int64("salon_id", salon.ID).Msg("Photo delivery failed, sending text")
	}

	if _, err := b.tgService.SendWithInlineKeyboard(ctx, chatID, caption, keyboard); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("salon_id", salon.ID).Msg("Failed to send salon card")
	}
}

func (b *Bot) radiusKm() string {
	radius := b.config.SearchRadiusMeters
	if radius <= 0 {
		radius = models.DefaultSearchRadiusMeters
	}
	return strconv.FormatFloat(radius/1000, 'f', -1, 64)
}

// handleSalonSelected stores the chosen salon and lists its free slots for the requested day.
func (b *Bot) handleSalonSelected(ctx context.Context, chatID, userID, salonID int64) {
	log := zerolog.Ctx(ctx).With().Int64("salon_id", salonID).Logger()

	salon, err := b.bookingService.Salon(ctx, salonID)
	if errors.Is(err, domain.ErrSalonNotFound) {
		b.sendMessage(ctx, chatID, msgSalonDetailsGone)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to load salon")
		b.sendMessage(ctx, chatID, msgGenericError)
		return
	}

	state, err := b.stateService.MergeState(ctx, userID, models.StatePatch{SalonID: &salon.ID})
	if err != nil {
		log.Error().Err(err).Msg("Failed to save salon selection")
		b.sendMessage(ctx, chatID, msgGenericError)
		return
	}

	if state.Date == nil {
		b.sendMessage(ctx, chatID, msgClarify)
		return
	}

	available, err := b.bookingService.AvailableSlots(ctx, *salon, *state.Date)
	if err != nil {
		log.Error().Err(err).Msg("Failed to compute slots")
		b.sendMessage(ctx, chatID, msgGenericError)
		return
	}

	day := state.Date.In(b.config.Location()).Format(slotDayLayout)
	if len(available) == 0 {
		b.sendMessage(ctx, chatID, fmt.Sprintf(msgNoSlotsFormat, salon.Name, day))
		return
	}

	text := fmt.Sprintf(msgSlotsFormat, salon.Name, day)
	if _, err := b.tgService.SendWithInlineKeyboard(ctx, chatID, text, slotsKeyboard(available)); err != nil {
		log.Error().Err(err).Msg("Failed to send slots")
	}
}

// handleSlotSelected consumes the draft and books the chosen slot.
// A slot that is no longer offered keeps the draft and re-lists the free slots.
// The state is cleared before booking so a repeated tap finds nothing to act on.
func (b *Bot) handleSlotSelected(ctx context.Context, chatID, userID int64, state *models.ConversationState, label string) {
	log := zerolog.Ctx(ctx).With().Int64("salon_id", state.SalonID).Logger()

	salon, err := b.bookingService.Salon(ctx, state.SalonID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load salon before booking")
		b.sendMessage(ctx, chatID, b.getErrorMessage(err))
		return
	}

	available, err := b.bookingService.AvailableSlots(ctx, *salon, *state.Date)
	if err != nil {
		log.Error().Err(err).Msg("Failed to recheck slots")
		b.sendMessage(ctx, chatID, msgGenericError)
		return
	}
	if !slices.Contains(available, label) {
		log.Info().Str("slot", label).Msg("Slot no longer offered")
		b.resendSlots(ctx, chatID, salon, *state.Date, available)
		return
	}

	if err := b.stateService.ClearState(ctx, userID); err != nil {
		log.Error().Err(err).Msg("Failed to clear state before booking")
		b.sendMessage(ctx, chatID, msgGenericError)
		return
	}

	loc := b.config.Location()
	at, err := slots.At(*state.Date, label, loc)
	if err != nil {
		log.Error().Err(err).Str("slot", label).Msg("Invalid slot")
		b.sendMessage(ctx, chatID, msgGenericError)
		return
	}

	start := b.now()
	conf, err := b.bookingService.Book(ctx, models.BookingRequest{
		UserID:  userID,
		SalonID: state.SalonID,
		Name:    state.Name,
		Service: state.Service,
		Time:    at,
	})
	if err != nil {
		b.metrics.BookingFailures.Inc()
		log.Error().Err(err).Time("booking_time", at).Msg("Booking failed")
		b.sendMessage(ctx, chatID, b.getErrorMessage(err))
		return
	}
	b.metrics.BookingDuration.Observe(b.now().Sub(start).Seconds())

	log.Info().Str("reference", conf.Booking.Reference).Time("booking_time", at).Msg("Booking confirmed")
	if _, err := b.tgService.SendMarkdownV2(ctx, chatID, formatConfirmation(conf, loc)); err != nil {
		log.Error().Err(err).Msg("Failed to send confirmation, sending plain text")
		b.sendMessage(ctx, chatID, formatConfirmationPlain(conf, loc))
	}
}

func (b *Bot) resendSlots(ctx context.Context, chatID int64, salon *models.Salon, date time.Time, available []string) {
	if len(available) == 0 {
		day := date.In(b.config.Location()).Format(slotDayLayout)
		b.sendMessage(ctx, chatID, fmt.Sprintf(msgNoSlotsFormat, salon.Name, day))
		return
	}
	if _, err := b.tgService.SendWithInlineKeyboard(ctx, chatID, msgSlotUnavailable, slotsKeyboard(available)); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to resend slots")
	}
}
