package intelligence

import (
	"context"
	"time"

	"salonbot/internal/domain"
	"salonbot/internal/models"

	"github.com/rs/zerolog"
)

// FallbackExtractor uses secondary when primary fails.
type FallbackExtractor struct {
	primary   domain.Extractor
	secondary domain.Extractor
	logger    *zerolog.Logger
}

func NewFallbackExtractor(primary, secondary domain.Extractor, logger *zerolog.Logger) *FallbackExtractor {
	return &FallbackExtractor{primary: primary, secondary: secondary, logger: logger}
}

func (f *FallbackExtractor) Extract(ctx context.Context, text string, now time.Time, loc *time.Location) (models.Extraction, error) {
	ex, err := f.primary.Extract(ctx, text, now, loc)
	if err == nil {
		return ex, nil
	}
	f.logger.Warn().Err(err).Msg("primary extractor failed, using fallback")
	return f.secondary.Extract(ctx, text, now, loc)
}
