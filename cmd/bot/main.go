package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"salonbot/internal/api"
	"salonbot/internal/bot"
	"salonbot/internal/config"
	"salonbot/internal/database"
	"salonbot/internal/domain"
	"salonbot/internal/events"
	"salonbot/internal/google"
	"salonbot/internal/intelligence"
	"salonbot/internal/logging"
	"salonbot/internal/mongostore"
	"salonbot/internal/repository"
	"salonbot/internal/service"
	"salonbot/internal/speech"
	"salonbot/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}
	logger := logging.Component(baseLogger, "bot-main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, sqlDB, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.Database.Driver).Msg("Ошибка инициализации хранилища")
		return err
	}
	defer storage.Close()

	if err := seedSalons(ctx, cfg, storage, logger); err != nil {
		return err
	}

	redisClient, memoryRepo, stateService := initStateService(ctx, cfg, logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}

	scheduler := worker.NewScheduler(logging.Component(baseLogger, "scheduler"))
	if err := scheduler.Add("session-sweep", cfg.Bot.SessionSweepSchedule, worker.SweepJob(memoryRepo, logger)); err != nil {
		return err
	}
	if sqlDB != nil && cfg.Database.Backup.Enabled {
		backupService := database.NewBackupService(sqlDB, cfg.Database.Backup, logging.Component(baseLogger, "backup"))
		if backupService.Enabled() {
			if err := scheduler.Add("backup", cfg.Database.Backup.Schedule, func() { backupService.Run(ctx) }); err != nil {
				return err
			}
		}
	}
	scheduler.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		scheduler.Stop(stopCtx)
	}()

	transcriber, err := initTranscriber(ctx, cfg, baseLogger)
	if err != nil {
		return err
	}
	if transcriber != nil {
		defer transcriber.Close()
	}

	extractor, extractorCloser := initExtractor(ctx, cfg, baseLogger)
	if extractorCloser != nil {
		defer extractorCloser.Close()
	}

	metrics := bot.NewMetrics(prometheus.DefaultRegisterer)
	eventBus := events.NewEventBus()
	subscribeEvents(eventBus, metrics, logging.Component(baseLogger, "events"))

	exports, err := initBookingJournal(ctx, cfg, eventBus, logging.Component(baseLogger, "sheets"))
	if err != nil {
		return err
	}
	defer exports.Wait()

	bookingService := service.NewBookingService(
		storage, storage, eventBus,
		cfg.Bot.Location(), cfg.Bot.SearchRadiusMeters,
		logging.Component(baseLogger, "booking"),
	)

	healthServer := api.NewHealthServer(
		cfg.Monitoring.HealthCheckPort,
		cfg.Monitoring.PrometheusEnabled,
		healthChecks(storage, redisClient),
		logging.Component(baseLogger, "health"),
	)
	go func() {
		if err := healthServer.Start(); err != nil {
			logger.Error().Err(err).Msg("Health server error")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = healthServer.Shutdown(shutdownCtx)
	}()

	var voice domain.Transcriber
	if transcriber != nil {
		voice = transcriber
	}

	return startBot(ctx, cfg, stateService, bookingService, voice, extractor, eventBus, metrics, logging.Component(baseLogger, "bot"))
}

// openStorage connects the configured backend. The sql handle is returned for backups.
func openStorage(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (domain.Storage, *database.DB, error) {
	retry := worker.RetryPolicy{MaxRetries: 4, InitialDelay: time.Second, MaxDelay: 15 * time.Second, BackoffFactor: 2}

	if cfg.Database.Driver == config.DriverMongo {
		var store *mongostore.Store
		err := retry.Do(ctx, func(ctx context.Context) error {
			s, err := mongostore.Connect(ctx, cfg.Database.Mongo, logger)
			if err != nil {
				logger.Warn().Err(err).Msg("MongoDB unavailable, retrying")
				return err
			}
			store = s
			return nil
		})
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	}

	var db *database.DB
	err := retry.Do(ctx, func(ctx context.Context) error {
		d, err := database.Open(ctx, cfg.Database, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Database unavailable, retrying")
			return err
		}
		db = d
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return db, db, nil
}

func seedSalons(ctx context.Context, cfg *config.Config, storage domain.Storage, logger *zerolog.Logger) error {
	if cfg.SalonsPath == "" {
		logger.Info().Msg("No salons file configured, using stored salons")
		return nil
	}

	salons, err := config.LoadSalons(cfg.SalonsPath)
	if err != nil {
		logger.Error().Err(err).Str("path", cfg.SalonsPath).Msg("Ошибка чтения салонов")
		return err
	}
	if err := storage.SyncSalons(ctx, salons); err != nil {
		logger.Error().Err(err).Msg("Ошибка синхронизации салонов")
		return err
	}
	logger.Info().Int("count", len(salons)).Msg("Salons synced")
	return nil
}

func initStateService(
	ctx context.Context,
	cfg *config.Config,
	logger *zerolog.Logger,
) (*redis.Client, *repository.MemoryStateRepository, *service.StateService) {
	memoryRepo := repository.NewMemoryStateRepository(cfg.Bot.SessionTTL)
	if cfg.Redis.Address == "" {
		logger.Info().Msg("Redis not configured, keeping dialogue state in memory")
		return nil, memoryRepo, service.NewStateService(memoryRepo, logger)
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if errPing := repository.Ping(ctx, redisClient); errPing != nil {
		logger.Warn().Err(errPing).Msg("Redis unavailable")
	}

	primaryRepo := repository.NewRedisStateRepository(redisClient, cfg.Bot.SessionTTL)
	stateRepo := repository.NewFailoverStateRepository(primaryRepo, memoryRepo, logger)
	return redisClient, memoryRepo, service.NewStateService(stateRepo, logger)
}

func initTranscriber(ctx context.Context, cfg *config.Config, baseLogger *zerolog.Logger) (*speech.GoogleTranscriber, error) {
	if !cfg.Speech.Enabled {
		return nil, nil
	}
	t, err := speech.NewGoogleTranscriber(ctx, cfg.Speech, logging.Component(baseLogger, "speech"))
	if err != nil {
		baseLogger.Error().Err(err).Msg("Failed to initialize speech client")
		return nil, err
	}
	return t, nil
}

// initExtractor prefers Gemini with keyword fallback and uses keywords alone without an API key.
func initExtractor(ctx context.Context, cfg *config.Config, baseLogger *zerolog.Logger) (domain.Extractor, io.Closer) {
	keywords := intelligence.NewKeywordExtractor()
	logger := logging.Component(baseLogger, "extractor")

	if cfg.Gemini.APIKey == "" {
		logger.Info().Msg("Gemini API key not set, using keyword extraction")
		return keywords, nil
	}

	gemini, err := intelligence.NewGeminiExtractor(ctx, cfg.Gemini, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("Gemini unavailable, using keyword extraction")
		return keywords, nil
	}
	return intelligence.NewFallbackExtractor(gemini, keywords, logger), gemini
}

func subscribeEvents(bus *events.EventBus, metrics *bot.Metrics, logger *zerolog.Logger) {
	bus.Subscribe(events.EventBookingCreated, func(ev *events.Event) error {
		var payload events.BookingEventPayload
		if err := ev.Decode(&payload); err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("event bus: decode payload")
			return nil
		}

		metrics.BookingsCreated.WithLabelValues(payload.Service).Inc()
		logger.Info().
			Str("reference", payload.Reference).
			Int64("salon_id", payload.SalonID).
			Int64("user_id", payload.UserID).
			Str("service", payload.Service).
			Time("booking_time", payload.BookingTime).
			Msg("booking created")
		return nil
	})

	bus.Subscribe(events.EventSessionStarted, func(ev *events.Event) error {
		var payload events.SessionEventPayload
		if err := ev.Decode(&payload); err != nil {
			return err
		}
		logger.Debug().Int64("user_id", payload.UserID).Msg("dialogue started")
		return nil
	})
}

// initBookingJournal mirrors confirmed bookings into a spreadsheet off the booking path.
func initBookingJournal(
	ctx context.Context,
	cfg *config.Config,
	bus *events.EventBus,
	logger *zerolog.Logger,
) (*sync.WaitGroup, error) {
	var wg sync.WaitGroup
	if !cfg.Sheets.Enabled {
		return &wg, nil
	}

	journal, err := google.NewBookingJournal(ctx, cfg.Sheets, cfg.Bot.Location(), logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize Google Sheets journal")
		return nil, err
	}
	if err := journal.EnsureHeader(ctx); err != nil {
		logger.Error().Err(err).Msg("Google Sheets connection test failed")
		return nil, err
	}

	retry := worker.RetryPolicy{MaxRetries: 5, InitialDelay: 2 * time.Second, MaxDelay: time.Minute, BackoffFactor: 2}
	bus.Subscribe(events.EventBookingCreated, func(ev *events.Event) error {
		var payload events.BookingEventPayload
		if err := ev.Decode(&payload); err != nil {
			return err
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			// shutdown must not lose a confirmed booking row
			appendCtx := context.WithoutCancel(ctx)
			err := retry.Do(appendCtx, func(ctx context.Context) error {
				return journal.AppendBooking(ctx, payload)
			})
			if err != nil {
				logger.Error().Err(err).Str("reference", payload.Reference).Msg("Failed to append booking to sheet")
			}
		}()
		return nil
	})

	logger.Info().Msg("Google Sheets journal initialized successfully")
	return &wg, nil
}

func healthChecks(storage domain.Storage, redisClient *redis.Client) []api.Check {
	checks := []api.Check{{Name: "storage", Probe: storage.Ping}}
	if redisClient != nil {
		checks = append(checks, api.Check{
			Name:  "redis",
			Probe: func(ctx context.Context) error { return repository.Ping(ctx, redisClient) },
		})
	}
	return checks
}

func startBot(
	ctx context.Context,
	cfg *config.Config,
	stateService *service.StateService,
	bookingService *service.BookingService,
	transcriber domain.Transcriber,
	extractor domain.Extractor,
	eventBus *events.EventBus,
	metrics *bot.Metrics,
	logger *zerolog.Logger,
) error {
	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания BotAPI")
		return err
	}
	botAPI.Debug = cfg.Telegram.Debug

	botWrapper := bot.NewBotWrapper(botAPI)
	tgService := service.NewTelegramService(botWrapper, cfg.Telegram.SendRPS, cfg.Telegram.SendBurst)

	telegramBot, err := bot.NewBot(
		tgService, cfg.Bot, stateService, bookingService,
		transcriber, extractor, eventBus, metrics, logger,
	)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания бота")
		return err
	}

	logger.Info().Msg("Бот запущен...")
	telegramBot.Start(ctx)

	logger.Info().Msg("Shutdown complete.")
	return nil
}
