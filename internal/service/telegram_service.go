package service

import (
	"context"
	"fmt"

	"salonbot/internal/domain"
	"salonbot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// TelegramService paces outbound calls to stay under Telegram flood limits.
type TelegramService struct {
	bot     domain.TelegramSender
	limiter *rate.Limiter
}

func NewTelegramService(bot domain.TelegramSender, rps float64, burst int) *TelegramService {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &TelegramService{
		bot:     bot,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// wait blocks for a send token. A canceled ctx aborts the wait.
func (s *TelegramService) wait(ctx context.Context) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram send throttled: %w", err)
	}
	return nil
}

func (s *TelegramService) Send(ctx context.Context, c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if err := s.wait(ctx); err != nil {
		return tgbotapi.Message{}, err
	}
	return s.bot.Send(c)
}

func (s *TelegramService) Request(ctx context.Context, c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.bot.Request(c)
}

func (s *TelegramService) SendMessage(ctx context.Context, chatID int64, text string) (tgbotapi.Message, error) {
	return s.Send(ctx, tgbotapi.NewMessage(chatID, text))
}

func (s *TelegramService) SendMarkdownV2(ctx context.Context, chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = models.ParseModeMarkdownV2
	return s.Send(ctx, msg)
}

// SendWithKeyboard attaches a reply keyboard or a keyboard removal.
func (s *TelegramService) SendWithKeyboard(ctx context.Context, chatID int64, text string, markup interface{}) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	return s.Send(ctx, msg)
}

func (s *TelegramService) SendWithInlineKeyboard(
	ctx context.Context,
	chatID int64,
	text string,
	keyboard tgbotapi.InlineKeyboardMarkup,
) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	return s.Send(ctx, msg)
}

func (s *TelegramService) SendPhoto(
	ctx context.Context,
	chatID int64,
	photoURL, caption string,
	keyboard *tgbotapi.InlineKeyboardMarkup,
) (tgbotapi.Message, error) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(photoURL))
	photo.Caption = caption
	if keyboard != nil {
		photo.ReplyMarkup = *keyboard
	}
	return s.Send(ctx, photo)
}

func (s *TelegramService) SendChatAction(ctx context.Context, chatID int64, action string) error {
	_, err := s.Request(ctx, tgbotapi.NewChatAction(chatID, action))
	return err
}

func (s *TelegramService) AnswerCallback(ctx context.Context, callbackID, text string) error {
	_, err := s.Request(ctx, tgbotapi.NewCallback(callbackID, text))
	return err
}

func (s *TelegramService) GetFileDirectURL(fileID string) (string, error) {
	return s.bot.GetFileDirectURL(fileID)
}

func (s *TelegramService) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return s.bot.GetUpdatesChan(config)
}

func (s *TelegramService) GetSelf() tgbotapi.User {
	return s.bot.GetSelf()
}

func (s *TelegramService) StopReceivingUpdates() {
	s.bot.StopReceivingUpdates()
}
