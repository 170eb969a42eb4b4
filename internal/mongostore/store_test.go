package mongostore

import (
	"context"
	"testing"
	"time"

	"salonbot/internal/domain"
	"salonbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func salonBSON(id int64, name string, lat, lon float64) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: name},
		{Key: "starting_price", Value: 299.0},
		{Key: "image_url", Value: ""},
		{Key: "opening_time", Value: "09:00"},
		{Key: "closing_time", Value: "20:00"},
		{Key: "barber_count", Value: 2},
		{Key: "location", Value: bson.D{
			{Key: "type", Value: "Point"},
			{Key: "coordinates", Value: bson.A{lon, lat}},
		}},
	}
}

func TestStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("FindNearbySalons", func(mt *mtest.T) {
		store := New(mt.DB, nil)
		ns := mt.DB.Name() + "." + salonsCollection

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			salonBSON(2, "Fade Factory", 12.9806, 77.5946),
			salonBSON(1, "Elite Cuts", 12.9716, 77.5946),
		))

		salons, err := store.FindNearbySalons(ctx, 12.9716, 77.5946, 5000)
		require.NoError(mt, err)
		require.Len(mt, salons, 2)
		assert.Equal(mt, int64(1), salons[0].ID)
		assert.Equal(mt, 12.9716, salons[0].Latitude)
		assert.Equal(mt, 77.5946, salons[0].Longitude)
		assert.InDelta(mt, 1000, salons[1].DistanceMeters, 10)
	})

	mt.Run("GetSalon", func(mt *mtest.T) {
		store := New(mt.DB, nil)
		ns := mt.DB.Name() + "." + salonsCollection

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, salonBSON(1, "Elite Cuts", 12.9716, 77.5946)))
		salon, err := store.GetSalon(ctx, 1)
		require.NoError(mt, err)
		require.NotNil(mt, salon)
		assert.Equal(mt, "Elite Cuts", salon.Name)
		assert.Equal(mt, 2, salon.BarberCount)
	})

	mt.Run("GetSalon missing", func(mt *mtest.T) {
		store := New(mt.DB, nil)
		ns := mt.DB.Name() + "." + salonsCollection

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		salon, err := store.GetSalon(ctx, 42)
		assert.NoError(mt, err)
		assert.Nil(mt, salon)
	})

	mt.Run("SyncSalons", func(mt *mtest.T) {
		store := New(mt.DB, nil)

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}))
		err := store.SyncSalons(ctx, []models.Salon{
			{ID: 1, Name: "Elite Cuts", OpeningTime: "09:00", ClosingTime: "20:00", BarberCount: 2},
			{ID: 2, Name: "Fade Factory", OpeningTime: "10:00", ClosingTime: "19:00", BarberCount: 1},
		})
		assert.NoError(mt, err)
	})

	mt.Run("ListBookingTimes", func(mt *mtest.T) {
		store := New(mt.DB, nil)
		ns := mt.DB.Name() + "." + bookingsCollection
		at := time.Date(2026, 10, 18, 4, 30, 0, 0, time.UTC)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "ref-1"}, {Key: "booking_time", Value: at}},
		))

		times, err := store.ListBookingTimes(ctx, 1, at.Add(-time.Hour), at.Add(time.Hour))
		require.NoError(mt, err)
		require.Len(mt, times, 1)
		assert.True(mt, times[0].Equal(at))
	})

	mt.Run("InsertBooking", func(mt *mtest.T) {
		store := New(mt.DB, nil)

		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
				{Key: "_id", Value: bookingsCollection},
				{Key: "seq", Value: int64(7)},
			}}),
			mtest.CreateSuccessResponse(),
		)

		booking := &models.Booking{Reference: "ref-1", SalonID: 1, UserID: 100, CustomerName: "Priya", Service: "haircut", BookingTime: time.Now()}
		require.NoError(mt, store.InsertBooking(ctx, booking))
		assert.Equal(mt, int64(7), booking.ID)
		assert.False(mt, booking.CreatedAt.IsZero())
	})

	mt.Run("InsertBooking duplicate", func(mt *mtest.T) {
		store := New(mt.DB, nil)

		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
				{Key: "_id", Value: bookingsCollection},
				{Key: "seq", Value: int64(8)},
			}}),
			mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key error"}),
		)

		booking := &models.Booking{Reference: "ref-1", SalonID: 1, UserID: 100, CustomerName: "Priya", Service: "haircut", BookingTime: time.Now()}
		err := store.InsertBooking(ctx, booking)
		assert.ErrorIs(mt, err, domain.ErrDuplicateBooking)
		assert.Zero(mt, booking.ID)
	})

	mt.Run("EnsureIndexes and Ping", func(mt *mtest.T) {
		store := New(mt.DB, nil)

		mt.AddMockResponses(mtest.CreateSuccessResponse(), mtest.CreateSuccessResponse(), mtest.CreateSuccessResponse())
		assert.NoError(mt, store.EnsureIndexes(ctx))
		assert.NoError(mt, store.Ping(ctx))
		assert.NoError(mt, store.Close())
	})
}
