package google

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"salonbot/internal/config"
	"salonbot/internal/events"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const timestampLayout = "2006-01-02 15:04:05"

var journalHeaders = []interface{}{
	"Reference", "Booking ID", "Salon ID", "Salon", "User ID", "Customer", "Service", "Date", "Time", "Recorded At",
}

// BookingJournal appends confirmed bookings to a spreadsheet for salon staff.
type BookingJournal struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	loc           *time.Location
	logger        *zerolog.Logger
	now           func() time.Time
}

func NewBookingJournal(ctx context.Context, cfg config.SheetsConfig, loc *time.Location, logger *zerolog.Logger) (*BookingJournal, error) {
	// Читаем файл учетных данных сервисного аккаунта
	credentialsJSON, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	jwt, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(jwt.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}
	return newBookingJournal(srv, cfg, loc, logger), nil
}

func newBookingJournal(srv *sheets.Service, cfg config.SheetsConfig, loc *time.Location, logger *zerolog.Logger) *BookingJournal {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingJournal{
		service:       srv,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
		loc:           loc,
		logger:        logger,
		now:           time.Now,
	}
}

// EnsureHeader writes the column titles when the first row is empty.
// It doubles as the connection check on startup.
func (j *BookingJournal) EnsureHeader(ctx context.Context) error {
	headerRange := fmt.Sprintf("%s!A1:J1", j.sheetName)
	resp, err := j.service.Spreadsheets.Values.Get(j.spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}

	_, err = j.service.Spreadsheets.Values.Update(j.spreadsheetID, headerRange, &sheets.ValueRange{
		Values: [][]interface{}{journalHeaders},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// AppendBooking adds one row per confirmed booking.
func (j *BookingJournal) AppendBooking(ctx context.Context, booking events.BookingEventPayload) error {
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{j.rowValues(booking)},
	}

	resp, err := j.service.Spreadsheets.Values.Append(j.spreadsheetID, j.sheetName+"!A:A", valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append booking %s: %w", booking.Reference, err)
	}

	if resp.Updates != nil {
		j.logger.Debug().
			Str("reference", booking.Reference).
			Str("range", resp.Updates.UpdatedRange).
			Msg("booking appended to sheet")
	}
	return nil
}

func (j *BookingJournal) rowValues(b events.BookingEventPayload) []interface{} {
	at := b.BookingTime.In(j.loc)
	return []interface{}{
		b.Reference,
		strconv.FormatInt(b.BookingID, 10),
		strconv.FormatInt(b.SalonID, 10),
		b.SalonName,
		strconv.FormatInt(b.UserID, 10),
		b.CustomerName,
		b.Service,
		at.Format("2006-01-02"),
		at.Format("15:04"),
		j.now().In(j.loc).Format(timestampLayout),
	}
}
