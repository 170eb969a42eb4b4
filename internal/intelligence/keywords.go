package intelligence

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"salonbot/internal/models"
)

var (
	serviceRules = []struct {
		re      *regexp.Regexp
		service string
	}{
		{regexp.MustCompile(`\bbeard\b`), "beard trim"},
		{regexp.MustCompile(`\bcolou?r(ing)?\b`), "coloring"},
		{regexp.MustCompile(`\bshav(e|ing)\b`), "shave"},
		{regexp.MustCompile(`\b(hair ?cut|cut|trim)\b`), "haircut"},
	}

	isoDateRe  = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	weekdayRe  = regexp.MustCompile(`\b(next\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	meridiemRe = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	clockRe    = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)
	nameRe     = regexp.MustCompile(`\b(?:[Mm]y name is|[Nn]ame is|[Ff]or)\s+(\p{Lu}[\p{L}'-]*)`)
)

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
}

// nameStopWords are capitalized words that follow "for" without being names.
var nameStopWords = map[string]bool{
	"Today": true, "Tomorrow": true, "Tonight": true, "Next": true, "The": true,
	"Monday": true, "Tuesday": true, "Wednesday": true, "Thursday": true, "Friday": true,
	"Saturday": true, "Sunday": true, "Me": true,
}

// KeywordExtractor is a rule-based extractor used without a language model.
type KeywordExtractor struct{}

func NewKeywordExtractor() *KeywordExtractor {
	return &KeywordExtractor{}
}

func (KeywordExtractor) Extract(_ context.Context, text string, now time.Time, loc *time.Location) (models.Extraction, error) {
	lower := strings.ToLower(text)
	today := now.In(loc)

	var ex models.Extraction
	for _, rule := range serviceRules {
		if rule.re.MatchString(lower) {
			ex.Service = rule.service
			break
		}
	}

	day, hasDay := extractDay(lower, today, loc)
	hour, minute, hasClock := extractClock(lower)
	switch {
	case hasDay && hasClock:
		t := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
		ex.Date = &t
	case hasDay:
		ex.Date = &day
	case hasClock:
		t := time.Date(today.Year(), today.Month(), today.Day(), hour, minute, 0, 0, loc)
		ex.Date = &t
	}

	for _, m := range nameRe.FindAllStringSubmatch(text, -1) {
		if !nameStopWords[m[1]] {
			ex.Name = m[1]
			break
		}
	}
	return ex, nil
}

func extractDay(lower string, today time.Time, loc *time.Location) (time.Time, bool) {
	midnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)

	if m := isoDateRe.FindStringSubmatch(lower); m != nil {
		if t, err := time.ParseInLocation("2006-01-02", m[1], loc); err == nil {
			return t, true
		}
	}
	switch {
	case strings.Contains(lower, "day after tomorrow"):
		return midnight.AddDate(0, 0, 2), true
	case strings.Contains(lower, "tomorrow"):
		return midnight.AddDate(0, 0, 1), true
	case strings.Contains(lower, "today"), strings.Contains(lower, "tonight"):
		return midnight, true
	}
	if m := weekdayRe.FindStringSubmatch(lower); m != nil {
		days := (int(weekdays[m[2]]) - int(today.Weekday()) + 7) % 7
		if days == 0 && m[1] != "" {
			days = 7
		}
		return midnight.AddDate(0, 0, days), true
	}
	return time.Time{}, false
}

func extractClock(lower string) (hour, minute int, ok bool) {
	if m := meridiemRe.FindStringSubmatch(lower); m != nil {
		hour, _ = strconv.Atoi(m[1])
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour < 1 || hour > 12 || minute > 59 {
			return 0, 0, false
		}
		hour %= 12
		if m[3] == "pm" {
			hour += 12
		}
		return hour, minute, true
	}
	if m := clockRe.FindStringSubmatch(lower); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		return hour, minute, true
	}
	return 0, 0, false
}
