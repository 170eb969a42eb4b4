package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"salonbot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

var errVoiceTooLarge = errors.New("voice message too large")

// handleVoice transcribes a voice note, echoes it and continues as text.
// Without a location the note is not transcribed at all.
func (b *Bot) handleVoice(ctx context.Context, msg *tgbotapi.Message) {
	log := zerolog.Ctx(ctx)

	state, err := b.stateService.GetState(ctx, msg.From.ID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load state")
		b.sendMessage(ctx, msg.Chat.ID, msgGenericError)
		return
	}
	if state == nil || state.Location == nil {
		b.promptForLocation(ctx, msg.Chat.ID)
		return
	}

	transcript, err := b.transcribeVoice(ctx, msg.Voice)
	if err != nil {
		log.Error().Err(err).Str("file_id", msg.Voice.FileID).Msg("Voice processing failed")
		b.sendMessage(ctx, msg.Chat.ID, msgVoiceFailed)
		return
	}

	b.sendMessage(ctx, msg.Chat.ID, fmt.Sprintf(msgHeardFormat, transcript))
	b.handleText(ctx, msg.Chat.ID, msg.From.ID, transcript)
}

func (b *Bot) transcribeVoice(ctx context.Context, voice *tgbotapi.Voice) (string, error) {
	if b.transcriber == nil {
		return "", errors.New("voice transcription is not configured")
	}

	audio, err := b.downloadVoice(ctx, voice)
	if err != nil {
		return "", err
	}

	text, err := b.transcriber.Transcribe(ctx, audio)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("empty transcript")
	}
	return text, nil
}

// downloadVoice fetches the voice file, refusing anything above the configured size.
func (b *Bot) downloadVoice(ctx context.Context, voice *tgbotapi.Voice) ([]byte, error) {
	limit := b.config.MaxVoiceBytes
	if limit <= 0 {
		limit = models.DefaultMaxVoiceBytes
	}
	if int64(voice.FileSize) > limit {
		return nil, errVoiceTooLarge
	}

	url, err := b.tgService.GetFileDirectURL(voice.FileID)
	if err != nil {
		return nil, fmt.Errorf("get file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download voice: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download voice: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read voice: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, errVoiceTooLarge
	}
	return data, nil
}
