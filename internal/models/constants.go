package models

import (
	"strings"
	"time"
)

const (
	ParseModeMarkdownV2 = "MarkdownV2"
)

const (
	// DefaultSessionTTL время жизни диалога пользователя
	DefaultSessionTTL = 24 * time.Hour

	// DefaultSearchRadiusMeters радиус поиска салонов
	DefaultSearchRadiusMeters = 5000

	// DefaultTimezone часовой пояс для дат и слотов
	DefaultTimezone = "Asia/Kolkata"

	// RateLimitMessages количество сообщений в окне
	RateLimitMessages = 20

	// RateLimitWindow окно ограничения частоты сообщений
	RateLimitWindow = 60 // 1 минута в секундах

	// DefaultMaxVoiceBytes upper bound for a downloaded voice message
	DefaultMaxVoiceBytes = 10 << 20

	// DefaultMaxPendingUpdates per-user mailbox depth
	DefaultMaxPendingUpdates = 20
)

// Services is the fixed vocabulary of bookable services.
var Services = []string{"haircut", "beard trim", "coloring", "shave"}

// NormalizeService maps free-form service names onto the vocabulary.
func NormalizeService(s string) (string, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "hair cut", "hair-cut", "cut", "trim":
		v = "haircut"
	case "beard", "beard-trim", "beardtrim":
		v = "beard trim"
	case "color", "colour", "colouring", "hair color", "hair colour":
		v = "coloring"
	case "shaving":
		v = "shave"
	}
	for _, known := range Services {
		if v == known {
			return known, true
		}
	}
	return "", false
}
