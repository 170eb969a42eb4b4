package database

import (
	"context"
	"fmt"
	"time"

	"salonbot/internal/domain"
	"salonbot/internal/models"
)

// ListBookingTimes returns booking instants of the salon in [from, to).
// Times are stored in UTC so text comparison in sqlite stays ordered.
func (db *DB) ListBookingTimes(ctx context.Context, salonID int64, from, to time.Time) ([]time.Time, error) {
	query := `
        SELECT booking_time
        FROM bookings
        WHERE salon_id = $1
        AND booking_time >= $2
        AND booking_time < $3
        ORDER BY booking_time
    `

	rows, err := db.db.QueryContext(ctx, query, salonID, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	times := make([]time.Time, 0)
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan booking time: %w", err)
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

// InsertBooking stores the booking and fills its ID.
func (db *DB) InsertBooking(ctx context.Context, booking *models.Booking) error {
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now()
	}

	query := `
        INSERT INTO bookings (reference, salon_id, user_id, customer_name, service, booking_time, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `

	err := db.db.QueryRowContext(ctx, query,
		booking.Reference,
		booking.SalonID,
		booking.UserID,
		booking.CustomerName,
		booking.Service,
		booking.BookingTime.UTC(),
		booking.CreatedAt.UTC(),
	).Scan(&booking.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateBooking, booking.Reference)
		}
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}
