// Package slots computes bookable appointment times for a salon day.
package slots

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"salonbot/internal/models"
)

// Step is the fixed length of one appointment.
const Step = 30 * time.Minute

const labelLayout = "15:04"

var ErrInvalidHours = errors.New("invalid salon hours")

// ParseClock parses "HH:MM" (seconds, if present, are ignored).
func ParseClock(v string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(v), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidHours, v)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidHours, v)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidHours, v)
	}
	return hour, minute, nil
}

// At combines the calendar day of day (in loc) with an HH:MM label.
func At(day time.Time, label string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	hour, minute, err := ParseClock(label)
	if err != nil {
		return time.Time{}, err
	}
	d := day.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, loc), nil
}

// DayBounds returns [start, end) of the calendar day containing t in loc.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	d := t.In(loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// Compute returns the available slot labels of salon on the day of target.
// A slot is available when fewer than BarberCount bookings share its exact
// instant and it lies strictly after now. Closing time is excluded.
func Compute(salon models.Salon, booked []time.Time, target, now time.Time, loc *time.Location) ([]string, error) {
	open, err := At(target, salon.OpeningTime, loc)
	if err != nil {
		return nil, err
	}
	closing, err := At(target, salon.ClosingTime, loc)
	if err != nil {
		return nil, err
	}

	available := make([]string, 0)
	if !open.Before(closing) {
		return available, nil
	}

	counts := make(map[int64]int, len(booked))
	for _, b := range booked {
		counts[b.UnixNano()]++
	}

	for slot := open; slot.Before(closing); slot = slot.Add(Step) {
		if counts[slot.UnixNano()] >= salon.BarberCount {
			continue
		}
		if !slot.After(now) {
			continue
		}
		available = append(available, slot.Format(labelLayout))
	}
	return available, nil
}
