package bot

import (
	"fmt"
	"strconv"
	"strings"

	"salonbot/internal/slots"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	salonPayloadPrefix = "select_salon_"
	timePayloadPrefix  = "select_time_"
	slotsPerRow        = 4
)

func locationKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonLocation(btnShareLocation),
		),
	)
	keyboard.OneTimeKeyboard = true
	return keyboard
}

func salonKeyboard(salonID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnChooseSalon, fmt.Sprintf("%s%d", salonPayloadPrefix, salonID)),
		),
	)
}

// slotsKeyboard lays out slot buttons in rows of four.
func slotsKeyboard(labels []string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton

	for _, label := range labels {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, timePayloadPrefix+label))
		if len(row) == slotsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func parseSalonPayload(data string) (int64, bool) {
	raw := strings.TrimPrefix(data, salonPayloadPrefix)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// parseTimePayload returns the normalized HH:MM label of a slot payload.
func parseTimePayload(data string) (string, bool) {
	raw := strings.TrimPrefix(data, timePayloadPrefix)
	hour, minute, err := slots.ParseClock(raw)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}
