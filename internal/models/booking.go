package models

import "time"

// Booking is a committed appointment. It is created once and never mutated.
type Booking struct {
	ID           int64     `json:"id"`
	Reference    string    `json:"reference"`
	SalonID      int64     `json:"salon_id"`
	UserID       int64     `json:"user_id"`
	CustomerName string    `json:"customer_name"`
	Service      string    `json:"service"`
	BookingTime  time.Time `json:"booking_time"`
	CreatedAt    time.Time `json:"created_at"`
}

// BookingRequest carries a fully specified draft into the booking transaction.
type BookingRequest struct {
	UserID  int64
	SalonID int64
	Name    string
	Service string
	Time    time.Time
}

// Confirmation is what the user sees after a successful booking.
// Barber and Code are display-only: they are neither persisted nor verified.
type Confirmation struct {
	Booking Booking
	Salon   Salon
	Barber  int
	Code    int
}
