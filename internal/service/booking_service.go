package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"salonbot/internal/domain"
	"salonbot/internal/events"
	"salonbot/internal/models"
	"salonbot/internal/slots"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	minConfirmationCode = 1000
	maxConfirmationCode = 9999
)

// BookingService owns salon discovery, slot lookup and the booking transaction.
type BookingService struct {
	salons   domain.SalonDirectory
	bookings domain.BookingStore
	eventBus domain.EventPublisher
	loc      *time.Location
	radius   float64
	logger   *zerolog.Logger

	now  func() time.Time
	intN func(n int) int
}

func NewBookingService(
	salons domain.SalonDirectory,
	bookings domain.BookingStore,
	eventBus domain.EventPublisher,
	loc *time.Location,
	radiusMeters float64,
	logger *zerolog.Logger,
) *BookingService {
	if loc == nil {
		loc = time.UTC
	}
	if radiusMeters <= 0 {
		radiusMeters = models.DefaultSearchRadiusMeters
	}
	return &BookingService{
		salons:   salons,
		bookings: bookings,
		eventBus: eventBus,
		loc:      loc,
		radius:   radiusMeters,
		logger:   logger,
		now:      time.Now,
		intN:     rand.IntN,
	}
}

func (s *BookingService) NearbySalons(ctx context.Context, lat, lon float64) ([]models.Salon, error) {
	salons, err := s.salons.FindNearbySalons(ctx, lat, lon, s.radius)
	if err != nil {
		return nil, fmt.Errorf("find nearby salons: %w", err)
	}
	return salons, nil
}

// Salon returns domain.ErrSalonNotFound when the salon does not exist.
func (s *BookingService) Salon(ctx context.Context, id int64) (*models.Salon, error) {
	salon, err := s.salons.GetSalon(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get salon %d: %w", id, err)
	}
	if salon == nil {
		return nil, domain.ErrSalonNotFound
	}
	return salon, nil
}

// AvailableSlots lists free HH:MM slots of salon on the calendar day of date.
func (s *BookingService) AvailableSlots(ctx context.Context, salon models.Salon, date time.Time) ([]string, error) {
	from, to := slots.DayBounds(date, s.loc)
	booked, err := s.bookings.ListBookingTimes(ctx, salon.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list bookings for salon %d: %w", salon.ID, err)
	}
	return slots.Compute(salon, booked, date, s.now(), s.loc)
}

// Book re-reads the salon, inserts the booking and assigns a display-only
// barber number and confirmation code. The insert is never retried.
func (s *BookingService) Book(ctx context.Context, req models.BookingRequest) (*models.Confirmation, error) {
	salon, err := s.Salon(ctx, req.SalonID)
	if err != nil {
		return nil, err
	}

	booking := models.Booking{
		Reference:    uuid.NewString(),
		SalonID:      salon.ID,
		UserID:       req.UserID,
		CustomerName: req.Name,
		Service:      req.Service,
		BookingTime:  req.Time,
	}
	if err := s.bookings.InsertBooking(ctx, &booking); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrBookingFailed, err)
	}

	barbers := salon.BarberCount
	if barbers < 1 {
		barbers = 1
	}
	conf := &models.Confirmation{
		Booking: booking,
		Salon:   *salon,
		Barber:  s.intN(barbers) + 1,
		Code:    minConfirmationCode + s.intN(maxConfirmationCode-minConfirmationCode+1),
	}

	s.publishCreated(ctx, conf)
	return conf, nil
}

func (s *BookingService) publishCreated(ctx context.Context, conf *models.Confirmation) {
	if s.eventBus == nil {
		return
	}
	payload := events.BookingEventPayload{
		BookingID:    conf.Booking.ID,
		Reference:    conf.Booking.Reference,
		SalonID:      conf.Salon.ID,
		SalonName:    conf.Salon.Name,
		UserID:       conf.Booking.UserID,
		CustomerName: conf.Booking.CustomerName,
		Service:      conf.Booking.Service,
		BookingTime:  conf.Booking.BookingTime,
	}
	if err := s.eventBus.PublishJSON(events.EventBookingCreated, payload); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("reference", payload.Reference).Msg("publish booking event")
	}
}
