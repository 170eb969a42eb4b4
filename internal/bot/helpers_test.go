package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"salonbot/internal/config"
	"salonbot/internal/domain"
	"salonbot/internal/events"
	"salonbot/internal/models"
	"salonbot/internal/repository"
	"salonbot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	ChatID    int64
	Text      string
	ParseMode string
	Photo     string
	Markup    interface{}
}

type fakeTelegram struct {
	domain.TelegramService

	mu       sync.Mutex
	sent     []sentMessage
	answers  []string
	actions  []string
	photoErr error
	mdErr    error
	fileURL  string
	updates  chan tgbotapi.Update
	stopped  bool
	// sendGate, when set, holds SendMessage until it is closed.
	sendGate chan struct{}
}

func (f *fakeTelegram) record(m sentMessage) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, m)
	return tgbotapi.Message{}, nil
}

func (f *fakeTelegram) SendMessage(_ context.Context, chatID int64, text string) (tgbotapi.Message, error) {
	if f.sendGate != nil {
		<-f.sendGate
	}
	return f.record(sentMessage{ChatID: chatID, Text: text})
}

func (f *fakeTelegram) SendMarkdownV2(_ context.Context, chatID int64, text string) (tgbotapi.Message, error) {
	if f.mdErr != nil {
		return tgbotapi.Message{}, f.mdErr
	}
	return f.record(sentMessage{ChatID: chatID, Text: text, ParseMode: models.ParseModeMarkdownV2})
}

func (f *fakeTelegram) SendWithKeyboard(_ context.Context, chatID int64, text string, markup interface{}) (tgbotapi.Message, error) {
	return f.record(sentMessage{ChatID: chatID, Text: text, Markup: markup})
}

func (f *fakeTelegram) SendWithInlineKeyboard(_ context.Context, chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	return f.record(sentMessage{ChatID: chatID, Text: text, Markup: keyboard})
}

func (f *fakeTelegram) SendPhoto(_ context.Context, chatID int64, photoURL, caption string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	if f.photoErr != nil {
		return tgbotapi.Message{}, f.photoErr
	}
	m := sentMessage{ChatID: chatID, Text: caption, Photo: photoURL}
	if keyboard != nil {
		m.Markup = *keyboard
	}
	return f.record(m)
}

func (f *fakeTelegram) SendChatAction(_ context.Context, _ int64, action string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
	return nil
}

func (f *fakeTelegram) AnswerCallback(_ context.Context, _ string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, text)
	return nil
}

func (f *fakeTelegram) GetFileDirectURL(string) (string, error) {
	return f.fileURL, nil
}

func (f *fakeTelegram) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeTelegram) GetSelf() tgbotapi.User {
	return tgbotapi.User{UserName: "salon_test_bot"}
}

func (f *fakeTelegram) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeTelegram) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, m := range f.sent {
		out[i] = m.Text
	}
	return out
}

func (f *fakeTelegram) last() sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentMessage{}
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeTelegram) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeBooking struct {
	salons    []models.Salon
	nearbyErr error
	salon     *models.Salon
	salonErr  error
	slots     []string
	slotsErr  error
	bookErr   error
	barber    int
	code      int

	slotDates []time.Time
	requests  []models.BookingRequest
}

func (f *fakeBooking) NearbySalons(context.Context, float64, float64) ([]models.Salon, error) {
	return f.salons, f.nearbyErr
}

func (f *fakeBooking) Salon(context.Context, int64) (*models.Salon, error) {
	if f.salonErr != nil {
		return nil, f.salonErr
	}
	if f.salon == nil {
		return nil, domain.ErrSalonNotFound
	}
	return f.salon, nil
}

func (f *fakeBooking) AvailableSlots(_ context.Context, _ models.Salon, date time.Time) ([]string, error) {
	f.slotDates = append(f.slotDates, date)
	return f.slots, f.slotsErr
}

func (f *fakeBooking) Book(_ context.Context, req models.BookingRequest) (*models.Confirmation, error) {
	f.requests = append(f.requests, req)
	if f.bookErr != nil {
		return nil, f.bookErr
	}
	salon := models.Salon{}
	if f.salon != nil {
		salon = *f.salon
	}
	return &models.Confirmation{
		Booking: models.Booking{
			ID:           1,
			Reference:    "ref-1",
			SalonID:      req.SalonID,
			UserID:       req.UserID,
			CustomerName: req.Name,
			Service:      req.Service,
			BookingTime:  req.Time,
		},
		Salon:  salon,
		Barber: f.barber,
		Code:   f.code,
	}, nil
}

type fakeExtractor struct {
	result models.Extraction
	err    error
	texts  []string
	panics bool
	// entered and block let a test hold a turn mid-extraction.
	entered chan struct{}
	block   chan struct{}
}

func (f *fakeExtractor) Extract(_ context.Context, text string, _ time.Time, _ *time.Location) (models.Extraction, error) {
	if f.panics {
		panic("extractor exploded")
	}
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	f.texts = append(f.texts, text)
	return f.result, f.err
}

type fakeTranscriber struct {
	text  string
	err   error
	audio []byte
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audio []byte) (string, error) {
	f.audio = audio
	return f.text, f.err
}

const testUser int64 = 42

var (
	testNow   = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	testDay   = time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	testSalon = models.Salon{
		ID: 7, Name: "Elite Cuts", StartingPrice: 299, ImageURL: "https://example.com/elite.jpg",
		OpeningTime: "09:00", ClosingTime: "20:00", BarberCount: 3, Latitude: 12.9716, Longitude: 77.5946,
	}
)

type harness struct {
	bot         *Bot
	tg          *fakeTelegram
	state       *service.StateService
	booking     *fakeBooking
	extractor   *fakeExtractor
	transcriber *fakeTranscriber
	bus         *events.EventBus
	metrics     *Metrics
}

func newHarness(t *testing.T, cfg config.BotConfig) *harness {
	t.Helper()
	logger := zerolog.Nop()

	h := &harness{
		tg:          &fakeTelegram{},
		state:       service.NewStateService(repository.NewMemoryStateRepository(time.Hour), &logger),
		booking:     &fakeBooking{},
		extractor:   &fakeExtractor{},
		transcriber: &fakeTranscriber{},
		bus:         events.NewEventBus(),
		metrics:     NewMetrics(prometheus.NewRegistry()),
	}
	if cfg.SearchRadiusMeters == 0 {
		cfg.SearchRadiusMeters = 5000
	}

	b, err := NewBot(h.tg, cfg, h.state, h.booking, h.transcriber, h.extractor, h.bus, h.metrics, &logger)
	require.NoError(t, err)
	b.now = func() time.Time { return testNow }
	h.bot = b
	return h
}

func (h *harness) handle(update tgbotapi.Update) {
	h.bot.processUpdate(context.Background(), update)
}

func (h *harness) seed(t *testing.T, patch models.StatePatch) {
	t.Helper()
	_, err := h.state.MergeState(context.Background(), testUser, patch)
	require.NoError(t, err)
}

func (h *harness) current(t *testing.T) *models.ConversationState {
	t.Helper()
	s, err := h.state.GetState(context.Background(), testUser)
	require.NoError(t, err)
	return s
}

// seedReady puts the user at salon selection with full details.
func (h *harness) seedReady(t *testing.T) {
	day := testDay
	h.seed(t, models.StatePatch{
		Location: &models.Coordinates{Latitude: 12.97, Longitude: 77.59},
		Awaiting: models.AwaitingPtr(models.AwaitingDetails),
		Service:  models.StringPtr("haircut"),
		Date:     &day,
		Name:     models.StringPtr("Alex"),
	})
}

func message(userID int64) *tgbotapi.Message {
	return &tgbotapi.Message{From: &tgbotapi.User{ID: userID}, Chat: &tgbotapi.Chat{ID: userID}}
}

func textUpdate(userID int64, text string) tgbotapi.Update {
	m := message(userID)
	m.Text = text
	return tgbotapi.Update{Message: m}
}

func startUpdate(userID int64) tgbotapi.Update {
	m := message(userID)
	m.Text = "/start"
	m.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}}
	return tgbotapi.Update{Message: m}
}

func locationUpdate(userID int64, lat, lon float64) tgbotapi.Update {
	m := message(userID)
	m.Location = &tgbotapi.Location{Latitude: lat, Longitude: lon}
	return tgbotapi.Update{Message: m}
}

func voiceUpdate(userID int64, fileID string, size int) tgbotapi.Update {
	m := message(userID)
	m.Voice = &tgbotapi.Voice{FileID: fileID, FileSize: size}
	return tgbotapi.Update{Message: m}
}

func callbackUpdate(userID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: userID},
		Message: message(userID),
		Data:    data,
	}}
}
