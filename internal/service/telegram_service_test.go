package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"salonbot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockTelegramSender struct {
	mock.Mock
}

func (m *mockTelegramSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return args.Get(0).(tgbotapi.Message), args.Error(1)
}

func (m *mockTelegramSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	args := m.Called(c)
	return args.Get(0).(*tgbotapi.APIResponse), args.Error(1)
}

func (m *mockTelegramSender) GetFileDirectURL(fileID string) (string, error) {
	args := m.Called(fileID)
	return args.String(0), args.Error(1)
}

func (m *mockTelegramSender) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	args := m.Called(config)
	return args.Get(0).(tgbotapi.UpdatesChannel)
}

func (m *mockTelegramSender) GetSelf() tgbotapi.User {
	args := m.Called()
	return args.Get(0).(tgbotapi.User)
}

func (m *mockTelegramSender) StopReceivingUpdates() {
	m.Called()
}

func TestTelegramService(t *testing.T) {
	mockSender := new(mockTelegramSender)
	svc := NewTelegramService(mockSender, 0, 0)
	ctx := context.Background()

	t.Run("SendMessage", func(t *testing.T) {
		mockSender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
			msg, ok := c.(tgbotapi.MessageConfig)
			return ok && msg.Text == "hello" && msg.ChatID == 123
		})).Return(tgbotapi.Message{}, nil).Once()

		_, err := svc.SendMessage(ctx, 123, "hello")
		assert.NoError(t, err)
		mockSender.AssertExpectations(t)
	})

	t.Run("SendMarkdownV2", func(t *testing.T) {
		mockSender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
			msg, ok := c.(tgbotapi.MessageConfig)
			return ok && msg.ParseMode == models.ParseModeMarkdownV2
		})).Return(tgbotapi.Message{}, nil).Once()

		_, err := svc.SendMarkdownV2(ctx, 123, "*bold*")
		assert.NoError(t, err)
		mockSender.AssertExpectations(t)
	})

	t.Run("SendWithKeyboardRemove", func(t *testing.T) {
		mockSender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
			msg, ok := c.(tgbotapi.MessageConfig)
			if !ok {
				return false
			}
			_, removed := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardRemove)
			return removed
		})).Return(tgbotapi.Message{}, nil).Once()

		_, err := svc.SendWithKeyboard(ctx, 123, "thanks", tgbotapi.NewRemoveKeyboard(true))
		assert.NoError(t, err)
		mockSender.AssertExpectations(t)
	})

	t.Run("SendPhotoWithKeyboard", func(t *testing.T) {
		kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("go", "select_salon_1"),
		))
		mockSender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
			photo, ok := c.(tgbotapi.PhotoConfig)
			if !ok {
				return false
			}
			_, hasKeyboard := photo.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
			return photo.Caption == "caption" && photo.File == tgbotapi.FileURL("https://img/1.jpg") && hasKeyboard
		})).Return(tgbotapi.Message{}, errors.New("bad image")).Once()

		_, err := svc.SendPhoto(ctx, 123, "https://img/1.jpg", "caption", &kb)
		assert.Error(t, err)
		mockSender.AssertExpectations(t)
	})

	t.Run("SendChatAction", func(t *testing.T) {
		mockSender.On("Request", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
			action, ok := c.(tgbotapi.ChatActionConfig)
			return ok && action.Action == tgbotapi.ChatTyping
		})).Return(&tgbotapi.APIResponse{Ok: true}, nil).Once()

		assert.NoError(t, svc.SendChatAction(ctx, 123, tgbotapi.ChatTyping))
		mockSender.AssertExpectations(t)
	})

	t.Run("AnswerCallback", func(t *testing.T) {
		mockSender.On("Request", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
			_, ok := c.(tgbotapi.CallbackConfig)
			return ok
		})).Return(&tgbotapi.APIResponse{Ok: true}, nil).Once()

		assert.NoError(t, svc.AnswerCallback(ctx, "cb123", ""))
		mockSender.AssertExpectations(t)
	})

	t.Run("GetFileDirectURL", func(t *testing.T) {
		mockSender.On("GetFileDirectURL", "file-1").Return("https://files/voice.oga", nil).Once()

		url, err := svc.GetFileDirectURL("file-1")
		assert.NoError(t, err)
		assert.Equal(t, "https://files/voice.oga", url)
	})
}

func TestTelegramServicePacing(t *testing.T) {
	t.Run("CanceledContextAbortsWait", func(t *testing.T) {
		mockSender := new(mockTelegramSender)
		svc := NewTelegramService(mockSender, 0.01, 1)
		mockSender.On("Send", mock.Anything).Return(tgbotapi.Message{}, nil).Once()

		_, err := svc.SendMessage(context.Background(), 1, "first")
		assert.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		start := time.Now()
		_, err = svc.SendMessage(ctx, 1, "second")
		assert.ErrorIs(t, err, context.Canceled)
		assert.Less(t, time.Since(start), time.Second)

		assert.Error(t, svc.AnswerCallback(ctx, "cb", ""))
		mockSender.AssertNumberOfCalls(t, "Send", 1)
		mockSender.AssertNotCalled(t, "Request", mock.Anything)
	})

	t.Run("DeadlineShorterThanNextToken", func(t *testing.T) {
		mockSender := new(mockTelegramSender)
		svc := NewTelegramService(mockSender, 0.01, 1)
		mockSender.On("Send", mock.Anything).Return(tgbotapi.Message{}, nil).Once()

		_, err := svc.SendMessage(context.Background(), 1, "first")
		assert.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err = svc.SendMessage(ctx, 1, "second")
		assert.Error(t, err)
		mockSender.AssertNumberOfCalls(t, "Send", 1)
	})

	t.Run("UnlimitedDoesNotBlock", func(t *testing.T) {
		mockSender := new(mockTelegramSender)
		svc := NewTelegramService(mockSender, 0, 0)
		mockSender.On("Send", mock.Anything).Return(tgbotapi.Message{}, nil).Times(3)

		for i := 0; i < 3; i++ {
			_, err := svc.SendMessage(context.Background(), 1, "hi")
			assert.NoError(t, err)
		}
		mockSender.AssertExpectations(t)
	})
}
