package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"salonbot/internal/config"
	"salonbot/internal/domain"

	speechapi "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// ErrEmptyAudio is returned for zero-length voice messages.
var ErrEmptyAudio = errors.New("empty audio")

type recognizeFunc func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)

// GoogleTranscriber turns Telegram voice notes (OGG/Opus) into text.
type GoogleTranscriber struct {
	client       *speechapi.Client
	recognize    recognizeFunc
	languageCode string
	sampleRate   int32
	logger       *zerolog.Logger
}

var _ domain.Transcriber = (*GoogleTranscriber)(nil)

func NewGoogleTranscriber(ctx context.Context, cfg config.SpeechConfig, logger *zerolog.Logger) (*GoogleTranscriber, error) {
	client, err := speechapi.NewClient(ctx, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("unable to create speech client: %w", err)
	}

	t := newTranscriber(func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		return client.Recognize(ctx, req)
	}, cfg, logger)
	t.client = client
	return t, nil
}

func newTranscriber(recognize recognizeFunc, cfg config.SpeechConfig, logger *zerolog.Logger) *GoogleTranscriber {
	return &GoogleTranscriber{
		recognize:    recognize,
		languageCode: cfg.LanguageCode,
		sampleRate:   cfg.SampleRateHertz,
		logger:       logger,
	}
}

// Transcribe returns the joined transcript of all recognized segments.
func (t *GoogleTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyAudio
	}

	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_OGG_OPUS,
			SampleRateHertz:            t.sampleRate,
			LanguageCode:               t.languageCode,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	}

	resp, err := t.recognize(ctx, req)
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}

	parts := make([]string, 0, len(resp.GetResults()))
	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if text := strings.TrimSpace(alts[0].GetTranscript()); text != "" {
			parts = append(parts, text)
		}
	}

	transcript := strings.Join(parts, " ")
	t.logger.Debug().Int("bytes", len(audio)).Int("chars", len(transcript)).Msg("voice transcribed")
	return transcript, nil
}

func (t *GoogleTranscriber) Close() error {
	if t.client == nil {
		return nil
	}
	return t.client.Close()
}
