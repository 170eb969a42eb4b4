package speech

import (
	"context"
	"errors"
	"testing"

	"salonbot/internal/config"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscribe(t *testing.T) {
	logger := zerolog.Nop()
	cfg := config.SpeechConfig{LanguageCode: "en-IN", SampleRateHertz: 48000}

	var captured *speechpb.RecognizeRequest
	tr := newTranscriber(func(_ context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		captured = req
		return &speechpb.RecognizeResponse{
			Results: []*speechpb.SpeechRecognitionResult{
				{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "haircut tomorrow"}}},
				{Alternatives: nil},
				{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: " for Alex "}}},
			},
		}, nil
	}, cfg, &logger)

	text, err := tr.Transcribe(context.Background(), []byte("OggS"))
	require.NoError(t, err)
	assert.Equal(t, "haircut tomorrow for Alex", text)

	require.NotNil(t, captured)
	assert.Equal(t, speechpb.RecognitionConfig_OGG_OPUS, captured.GetConfig().GetEncoding())
	assert.Equal(t, int32(48000), captured.GetConfig().GetSampleRateHertz())
	assert.Equal(t, "en-IN", captured.GetConfig().GetLanguageCode())
	assert.Equal(t, []byte("OggS"), captured.GetAudio().GetContent())
	assert.NoError(t, tr.Close())
}

func TestTranscribe_Errors(t *testing.T) {
	logger := zerolog.Nop()
	tr := newTranscriber(func(context.Context, *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		return nil, errors.New("quota exceeded")
	}, config.SpeechConfig{}, &logger)

	_, err := tr.Transcribe(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyAudio)

	_, err = tr.Transcribe(context.Background(), []byte("OggS"))
	assert.ErrorContains(t, err, "quota exceeded")
}
