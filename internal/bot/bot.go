package bot

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"salonbot/internal/config"
	"salonbot/internal/domain"
	"salonbot/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const defaultUpdateTimeout = 30 * time.Second

// Bot drives the booking dialogue: location, details, salon, slot, confirmation.
type Bot struct {
	tgService      domain.TelegramService
	config         config.BotConfig
	stateService   domain.StateManager
	bookingService domain.BookingService
	transcriber    domain.Transcriber
	extractor      domain.Extractor
	eventBus       domain.EventPublisher
	dispatcher     *worker.Dispatcher
	replies        sync.WaitGroup
	httpClient     *http.Client
	metrics        *Metrics
	logger         *zerolog.Logger
	now            func() time.Time
}

// NewBot wires the controller. transcriber and eventBus may be nil.
func NewBot(
	tgService domain.TelegramService,
	cfg config.BotConfig,
	stateService domain.StateManager,
	bookingService domain.BookingService,
	transcriber domain.Transcriber,
	extractor domain.Extractor,
	eventBus domain.EventPublisher,
	metrics *Metrics,
	logger *zerolog.Logger,
) (*Bot, error) {
	switch {
	case tgService == nil:
		return nil, errors.New("telegram service is required")
	case stateService == nil:
		return nil, errors.New("state service is required")
	case bookingService == nil:
		return nil, errors.New("booking service is required")
	case extractor == nil:
		return nil, errors.New("extractor is required")
	}

	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	if metrics == nil {
		metrics = NewMetrics(prometheus.NewRegistry())
	}
	if cfg.UpdateTimeout <= 0 {
		cfg.UpdateTimeout = defaultUpdateTimeout
	}

	return &Bot{
		tgService:      tgService,
		config:         cfg,
		stateService:   stateService,
		bookingService: bookingService,
		transcriber:    transcriber,
		extractor:      extractor,
		eventBus:       eventBus,
		dispatcher:     worker.NewDispatcher(cfg.MaxPendingUpdates, logger),
		httpClient:     &http.Client{Timeout: cfg.UpdateTimeout},
		metrics:        metrics,
		logger:         logger,
		now:            time.Now,
	}, nil
}

// Start consumes updates until ctx is canceled, then lets in-flight turns finish.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.tgService.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.tgService.GetSelf().UserName).Msg("Authorized on account")

	defer func() {
		b.tgService.StopReceivingUpdates()
		b.wait()
		b.logger.Info().Msg("Bot stopped")
	}()

	// handlers outlive cancellation so a started booking is not cut in half
	handlerCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Bot stopping...")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.enqueue(handlerCtx, update)
		}
	}
}

// enqueue serializes updates of one user through the dispatcher mailbox.
func (b *Bot) enqueue(ctx context.Context, update tgbotapi.Update) {
	userID := updateUserID(update)
	if userID == 0 {
		return
	}

	if b.dispatcher.Submit(userID, func() { b.processUpdate(ctx, update) }) {
		return
	}

	b.metrics.DroppedUpdates.Inc()
	b.logger.Warn().Int64("user_id", userID).Msg("Mailbox full, update dropped")

	// Ответ уходит в фоне, чтобы медленный Telegram не держал цикл обновлений.
	b.replies.Add(1)
	go func() {
		defer b.replies.Done()
		switch {
		case update.CallbackQuery != nil:
			b.answerCallback(ctx, update.CallbackQuery.ID, msgBusy)
		case update.Message != nil:
			b.sendMessage(ctx, update.Message.Chat.ID, msgBusy)
		}
	}()
}

// wait blocks until queued turns and busy replies are done.
func (b *Bot) wait() {
	b.dispatcher.Wait()
	b.replies.Wait()
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()
	defer func() {
		b.metrics.UpdateProcessingTime.Observe(time.Since(start).Seconds())
	}()

	// Создаем контекст для обработки каждого обновления
	updateCtx, cancel := context.WithTimeout(ctx, b.config.UpdateTimeout)
	defer cancel()

	userID := updateUserID(update)
	requestID := uuid.New().String()
	l := b.logger.With().Str("request_id", requestID).Int64("user_id", userID).Logger()
	updateCtx = l.WithContext(updateCtx)

	b.withRecovery(updateCtx, func() {
		if !b.allow(updateCtx, update, userID) {
			return
		}

		if update.CallbackQuery != nil {
			b.metrics.UpdatesTotal.WithLabelValues("callback").Inc()
			b.handleCallbackQuery(updateCtx, update.CallbackQuery)
			return
		}

		if update.Message == nil {
			return
		}
		b.metrics.UpdatesTotal.WithLabelValues("message").Inc()
		b.handleMessage(updateCtx, update.Message)
	})
}

func updateUserID(update tgbotapi.Update) int64 {
	switch {
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		return update.CallbackQuery.From.ID
	}
	return 0
}
