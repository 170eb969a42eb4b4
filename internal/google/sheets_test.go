package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"salonbot/internal/config"
	"salonbot/internal/events"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

func setupMockServer(t *testing.T) (*http.ServeMux, *BookingJournal) {
	t.Helper()
	ctx := context.Background()
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	srv, err := sheets.NewService(ctx, option.WithEndpoint(server.URL), option.WithoutAuthentication())
	require.NoError(t, err)

	logger := zerolog.Nop()
	ist := time.FixedZone("IST", 5*3600+1800)
	j := newBookingJournal(srv, config.SheetsConfig{SpreadsheetID: "journal_tid", SheetName: "Bookings"}, ist, &logger)
	j.now = func() time.Time { return time.Date(2026, 10, 17, 6, 30, 0, 0, time.UTC) }
	return mux, j
}

func TestEnsureHeader(t *testing.T) {
	t.Run("Writes header into empty sheet", func(t *testing.T) {
		mux, j := setupMockServer(t)
		var written sheets.ValueRange
		mux.HandleFunc("/v4/spreadsheets/journal_tid/values/Bookings!A1:J1", func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPut {
				assert.Equal(t, "RAW", r.URL.Query().Get("valueInputOption"))
				require.NoError(t, json.NewDecoder(r.Body).Decode(&written))
				_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{UpdatedRange: "Bookings!A1:J1"})
				return
			}
			_ = json.NewEncoder(w).Encode(sheets.ValueRange{})
		})

		require.NoError(t, j.EnsureHeader(context.Background()))
		require.Len(t, written.Values, 1)
		assert.Equal(t, "Reference", written.Values[0][0])
		assert.Len(t, written.Values[0], len(journalHeaders))
	})

	t.Run("Keeps existing header", func(t *testing.T) {
		mux, j := setupMockServer(t)
		mux.HandleFunc("/v4/spreadsheets/journal_tid/values/Bookings!A1:J1", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				t.Errorf("unexpected %s", r.Method)
			}
			_ = json.NewEncoder(w).Encode(sheets.ValueRange{Values: [][]interface{}{{"Reference"}}})
		})

		assert.NoError(t, j.EnsureHeader(context.Background()))
	})

	t.Run("Unreachable sheet", func(t *testing.T) {
		mux, j := setupMockServer(t)
		mux.HandleFunc("/v4/spreadsheets/journal_tid/values/Bookings!A1:J1", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":{"code":403,"message":"forbidden"}}`, http.StatusForbidden)
		})

		assert.Error(t, j.EnsureHeader(context.Background()))
	})
}

func TestAppendBooking(t *testing.T) {
	mux, j := setupMockServer(t)

	var appended sheets.ValueRange
	mux.HandleFunc("/v4/spreadsheets/journal_tid/values/Bookings!A:A:append", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "INSERT_ROWS", r.URL.Query().Get("insertDataOption"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&appended))
		_ = json.NewEncoder(w).Encode(sheets.AppendValuesResponse{
			Updates: &sheets.UpdateValuesResponse{UpdatedRange: "Bookings!A5:J5"},
		})
	})

	err := j.AppendBooking(context.Background(), events.BookingEventPayload{
		BookingID:    12,
		Reference:    "ref-12",
		SalonID:      3,
		SalonName:    "Elite Cuts",
		UserID:       42,
		CustomerName: "Alex",
		Service:      "haircut",
		BookingTime:  time.Date(2026, 10, 18, 5, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.Len(t, appended.Values, 1)
	assert.Equal(t, []interface{}{
		"ref-12", "12", "3", "Elite Cuts", "42", "Alex", "haircut", "2026-10-18", "10:30", "2026-10-17 12:00:00",
	}, appended.Values[0])
}

func TestAppendBookingError(t *testing.T) {
	mux, j := setupMockServer(t)
	mux.HandleFunc("/v4/spreadsheets/journal_tid/values/Bookings!A:A:append", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":500,"message":"backend"}}`, http.StatusInternalServerError)
	})

	err := j.AppendBooking(context.Background(), events.BookingEventPayload{Reference: "ref-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ref-1")
}
