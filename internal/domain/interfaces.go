package domain

import (
	"context"
	"errors"
	"time"

	"salonbot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var (
	ErrSalonNotFound    = errors.New("salon not found")
	ErrBookingFailed    = errors.New("booking could not be saved")
	ErrDuplicateBooking = errors.New("booking reference already exists")
)

type StateRepository interface {
	GetState(ctx context.Context, userID int64) (*models.ConversationState, error)
	SetState(ctx context.Context, state *models.ConversationState) error
	ClearState(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type StateManager interface {
	GetState(ctx context.Context, userID int64) (*models.ConversationState, error)
	MergeState(ctx context.Context, userID int64, patch models.StatePatch) (*models.ConversationState, error)
	ResetState(ctx context.Context, userID int64, patch models.StatePatch) (*models.ConversationState, error)
	ClearState(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

// SalonDirectory is read-only access to salons.
type SalonDirectory interface {
	// FindNearbySalons returns salons within radiusMeters, nearest first.
	FindNearbySalons(ctx context.Context, lat, lon, radiusMeters float64) ([]models.Salon, error)
	// GetSalon returns nil, nil when the salon does not exist.
	GetSalon(ctx context.Context, id int64) (*models.Salon, error)
}

type BookingStore interface {
	// ListBookingTimes returns booking instants for the salon in [from, to).
	ListBookingTimes(ctx context.Context, salonID int64, from, to time.Time) ([]time.Time, error)
	InsertBooking(ctx context.Context, booking *models.Booking) error
}

// Storage is a complete backend: directory, booking store and seeding.
type Storage interface {
	SalonDirectory
	BookingStore
	SyncSalons(ctx context.Context, salons []models.Salon) error
	Ping(ctx context.Context) error
	Close() error
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

type Extractor interface {
	Extract(ctx context.Context, text string, now time.Time, loc *time.Location) (models.Extraction, error)
}

type BookingService interface {
	NearbySalons(ctx context.Context, lat, lon float64) ([]models.Salon, error)
	Salon(ctx context.Context, id int64) (*models.Salon, error)
	AvailableSlots(ctx context.Context, salon models.Salon, date time.Time) ([]string, error)
	Book(ctx context.Context, req models.BookingRequest) (*models.Confirmation, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

type TelegramService interface {
	Send(ctx context.Context, c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(ctx context.Context, c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	SendMessage(ctx context.Context, chatID int64, text string) (tgbotapi.Message, error)
	SendMarkdownV2(ctx context.Context, chatID int64, text string) (tgbotapi.Message, error)
	SendWithKeyboard(ctx context.Context, chatID int64, text string, markup interface{}) (tgbotapi.Message, error)
	SendWithInlineKeyboard(ctx context.Context, chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	SendChatAction(ctx context.Context, chatID int64, action string) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}
