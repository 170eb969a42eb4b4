package intelligence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"salonbot/internal/config"
	"salonbot/internal/domain"
	"salonbot/internal/models"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

var errEmptyAnswer = errors.New("gemini returned no content")

type generateFunc func(ctx context.Context, prompt string) (string, error)

// GeminiExtractor asks a Gemini model for the service, date and name in a message.
type GeminiExtractor struct {
	client   *genai.Client
	generate generateFunc
	logger   *zerolog.Logger
}

var _ domain.Extractor = (*GeminiExtractor)(nil)

func NewGeminiExtractor(ctx context.Context, cfg config.GeminiConfig, logger *zerolog.Logger) (*GeminiExtractor, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(cfg.Temperature)
	model.ResponseMIMEType = "application/json"

	e := &GeminiExtractor{
		client: client,
		logger: logger,
		generate: func(ctx context.Context, prompt string) (string, error) {
			resp, err := model.GenerateContent(ctx, genai.Text(prompt))
			if err != nil {
				return "", fmt.Errorf("gemini generate error: %w", err)
			}
			if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
				return "", errEmptyAnswer
			}

			var sb strings.Builder
			for _, part := range resp.Candidates[0].Content.Parts {
				if textPart, ok := part.(genai.Text); ok {
					sb.WriteString(string(textPart))
				}
			}
			return sb.String(), nil
		},
	}
	return e, nil
}

func (e *GeminiExtractor) Extract(ctx context.Context, text string, now time.Time, loc *time.Location) (models.Extraction, error) {
	raw, err := e.generate(ctx, buildPrompt(text, now, loc))
	if err != nil {
		return models.Extraction{}, err
	}

	ex, err := parseExtraction(raw, loc)
	if err != nil {
		e.logger.Warn().Err(err).Str("answer", raw).Msg("unusable model answer")
		return models.Extraction{}, err
	}
	return ex, nil
}

func (e *GeminiExtractor) Close() error {
	if e.client == nil {
		return nil
	}
	return e.client.Close()
}

func buildPrompt(text string, now time.Time, loc *time.Location) string {
	services := make([]string, len(models.Services))
	for i, s := range models.Services {
		services[i] = fmt.Sprintf("%q", s)
	}

	var b strings.Builder
	b.WriteString("You are an appointment booking assistant for a salon. ")
	b.WriteString("Extract the service type, the date and time, and the customer's name from the user's message.\n")
	fmt.Fprintf(&b, "- Today's date is %s.\n", now.In(loc).Format(time.RFC3339))
	fmt.Fprintf(&b, "- The current time zone is %s.\n", loc.String())
	fmt.Fprintf(&b, "- The services available are: %s.\n", strings.Join(services, ", "))
	b.WriteString("- If a name is provided, extract it.\n")
	b.WriteString("- If any information is missing, put what is needed into \"missing\".\n")
	b.WriteString("- Respond ONLY with a JSON object with the keys service, date, name, missing.\n")
	b.WriteString(`- Example: {"service": "haircut", "date": "2025-08-15T15:00:00+05:30", "name": "Alex"}` + "\n\n")
	b.WriteString("User message: ")
	b.WriteString(text)
	return b.String()
}
