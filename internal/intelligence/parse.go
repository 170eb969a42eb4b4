package intelligence

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"salonbot/internal/models"
)

// modelAnswer is the JSON object the language model is asked to return.
type modelAnswer struct {
	Service string `json:"service"`
	Date    string `json:"date"`
	Name    string `json:"name"`
	Missing string `json:"missing"`
}

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseExtraction decodes a model answer. Unknown services and unparsable dates are dropped.
func parseExtraction(raw string, loc *time.Location) (models.Extraction, error) {
	raw = stripFences(raw)

	var answer modelAnswer
	if err := json.Unmarshal([]byte(raw), &answer); err != nil {
		return models.Extraction{}, fmt.Errorf("decode model answer: %w", err)
	}

	var ex models.Extraction
	if service, ok := models.NormalizeService(answer.Service); ok {
		ex.Service = service
	}
	if date, ok := parseDate(answer.Date, loc); ok {
		ex.Date = &date
	}
	ex.Name = strings.TrimSpace(answer.Name)
	return ex, nil
}

func parseDate(v string, loc *time.Location) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t.In(loc), true
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
