package bot

import (
	"fmt"
	"strings"
	"time"

	"salonbot/internal/geo"
	"salonbot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// escapeMarkdownV2 escapes user-controlled text, backslashes included.
func escapeMarkdownV2(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, strings.ReplaceAll(s, `\`, `\\`))
}

func formatConfirmation(conf *models.Confirmation, loc *time.Location) string {
	when := conf.Booking.BookingTime.In(loc).Format(confirmationTimeLayout)
	link := geo.MapsURL(conf.Salon.Latitude, conf.Salon.Longitude)

	var sb strings.Builder
	sb.WriteString("✅ *Booking Confirmed\\!*\n\n")
	fmt.Fprintf(&sb, "*Salon:* %s\n", escapeMarkdownV2(conf.Salon.Name))
	fmt.Fprintf(&sb, "*Service:* %s\n", escapeMarkdownV2(conf.Booking.Service))
	fmt.Fprintf(&sb, "*For:* %s\n\n", escapeMarkdownV2(conf.Booking.CustomerName))
	fmt.Fprintf(&sb, "*Date & Time:* %s\n", escapeMarkdownV2(when))
	fmt.Fprintf(&sb, "*Assigned to:* Barber \\#%d\n", conf.Barber)
	fmt.Fprintf(&sb, "*Your OTP:* *%d*\n\n", conf.Code)
	fmt.Fprintf(&sb, "*Location:* [View on Google Maps](%s)\n\n", link)
	sb.WriteString("Please show this confirmation and provide your OTP at the salon\\.")
	return sb.String()
}

// formatConfirmationPlain is used when the formatted message is rejected.
func formatConfirmationPlain(conf *models.Confirmation, loc *time.Location) string {
	when := conf.Booking.BookingTime.In(loc).Format(confirmationTimeLayout)

	var sb strings.Builder
	sb.WriteString("✅ Booking Confirmed!\n\n")
	fmt.Fprintf(&sb, "Salon: %s\nService: %s\nFor: %s\n\n", conf.Salon.Name, conf.Booking.Service, conf.Booking.CustomerName)
	fmt.Fprintf(&sb, "Date & Time: %s\nAssigned to: Barber #%d\nYour OTP: %d\n\n", when, conf.Barber, conf.Code)
	fmt.Fprintf(&sb, "Location: %s\n\n", geo.MapsURL(conf.Salon.Latitude, conf.Salon.Longitude))
	sb.WriteString("Please show this confirmation and provide your OTP at the salon.")
	return sb.String()
}
