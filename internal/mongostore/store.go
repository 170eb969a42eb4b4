package mongostore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"salonbot/internal/config"
	"salonbot/internal/domain"
	"salonbot/internal/geo"
	"salonbot/internal/models"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	salonsCollection   = "salons"
	bookingsCollection = "bookings"
	countersCollection = "counters"
)

// Store keeps salons and bookings in MongoDB.
// Salon locations are GeoJSON points so nearby search uses a 2dsphere index.
type Store struct {
	db       *mongo.Database
	salons   *mongo.Collection
	bookings *mongo.Collection
	counters *mongo.Collection
	logger   *zerolog.Logger
	owned    bool
}

var _ domain.Storage = (*Store)(nil)

type geoPoint struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
}

type salonDoc struct {
	ID            int64    `bson:"_id"`
	Name          string   `bson:"name"`
	StartingPrice float64  `bson:"starting_price"`
	ImageURL      string   `bson:"image_url"`
	OpeningTime   string   `bson:"opening_time"`
	ClosingTime   string   `bson:"closing_time"`
	BarberCount   int      `bson:"barber_count"`
	Location      geoPoint `bson:"location"`
}

type bookingDoc struct {
	Reference    string    `bson:"_id"`
	Seq          int64     `bson:"seq"`
	SalonID      int64     `bson:"salon_id"`
	UserID       int64     `bson:"user_id"`
	CustomerName string    `bson:"customer_name"`
	Service      string    `bson:"service"`
	BookingTime  time.Time `bson:"booking_time"`
	CreatedAt    time.Time `bson:"created_at"`
}

func toSalonDoc(s models.Salon) salonDoc {
	return salonDoc{
		ID:            s.ID,
		Name:          s.Name,
		StartingPrice: s.StartingPrice,
		ImageURL:      s.ImageURL,
		OpeningTime:   s.OpeningTime,
		ClosingTime:   s.ClosingTime,
		BarberCount:   s.BarberCount,
		Location:      geoPoint{Type: "Point", Coordinates: []float64{s.Longitude, s.Latitude}},
	}
}

func (d salonDoc) toModel() models.Salon {
	s := models.Salon{
		ID:            d.ID,
		Name:          d.Name,
		StartingPrice: d.StartingPrice,
		ImageURL:      d.ImageURL,
		OpeningTime:   d.OpeningTime,
		ClosingTime:   d.ClosingTime,
		BarberCount:   d.BarberCount,
	}
	if len(d.Location.Coordinates) == 2 {
		s.Longitude = d.Location.Coordinates[0]
		s.Latitude = d.Location.Coordinates[1]
	}
	return s
}

// New wraps an existing database handle. The caller keeps ownership of the client.
func New(db *mongo.Database, logger *zerolog.Logger) *Store {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	return &Store{
		db:       db,
		salons:   db.Collection(salonsCollection),
		bookings: db.Collection(bookingsCollection),
		counters: db.Collection(countersCollection),
		logger:   logger,
	}
}

// Connect dials MongoDB, verifies the connection and ensures indexes.
func Connect(ctx context.Context, cfg config.MongoConfig, logger *zerolog.Logger) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	store := New(client.Database(cfg.Database), logger)
	store.owned = true
	if err := store.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	store.logger.Info().Str("database", cfg.Database).Msg("mongo storage initialized")
	return store, nil
}

// EnsureIndexes creates the geo index on salons and the lookup index on bookings.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.salons.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "location", Value: "2dsphere"}},
	}); err != nil {
		return fmt.Errorf("failed to create salon indexes: %w", err)
	}

	if _, err := s.bookings.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "salon_id", Value: 1}, {Key: "booking_time", Value: 1}},
	}); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}

func (s *Store) FindNearbySalons(ctx context.Context, lat, lon, radiusMeters float64) ([]models.Salon, error) {
	filter := bson.M{
		"location": bson.M{
			"$nearSphere": bson.M{
				"$geometry": bson.M{
					"type":        "Point",
					"coordinates": []float64{lon, lat},
				},
				"$maxDistance": radiusMeters,
			},
		},
	}

	cursor, err := s.salons.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("nearby salons query failed: %w", err)
	}
	defer cursor.Close(ctx)

	salons := make([]models.Salon, 0)
	for cursor.Next(ctx) {
		var doc salonDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode salon: %w", err)
		}
		salon := doc.toModel()
		salon.DistanceMeters = geo.Distance(lat, lon, salon.Latitude, salon.Longitude)
		if salon.DistanceMeters <= radiusMeters {
			salons = append(salons, salon)
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	// $nearSphere already orders by distance; keep ties stable by id
	sort.SliceStable(salons, func(i, j int) bool {
		if salons[i].DistanceMeters == salons[j].DistanceMeters {
			return salons[i].ID < salons[j].ID
		}
		return salons[i].DistanceMeters < salons[j].DistanceMeters
	})
	return salons, nil
}

func (s *Store) GetSalon(ctx context.Context, id int64) (*models.Salon, error) {
	var doc salonDoc
	err := s.salons.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get salon %d: %w", id, err)
	}
	salon := doc.toModel()
	return &salon, nil
}

// SyncSalons replaces every seeded salon by id, inserting missing ones.
func (s *Store) SyncSalons(ctx context.Context, salons []models.Salon) error {
	if len(salons) == 0 {
		return nil
	}

	writes := make([]mongo.WriteModel, 0, len(salons))
	for _, salon := range salons {
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": salon.ID}).
			SetReplacement(toSalonDoc(salon)).
			SetUpsert(true))
	}

	if _, err := s.salons.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("sync salons: %w", err)
	}
	s.logger.Info().Int("count", len(salons)).Msg("salons synchronized")
	return nil
}

func (s *Store) ListBookingTimes(ctx context.Context, salonID int64, from, to time.Time) ([]time.Time, error) {
	filter := bson.M{
		"salon_id":     salonID,
		"booking_time": bson.M{"$gte": from.UTC(), "$lt": to.UTC()},
	}
	opts := options.Find().
		SetProjection(bson.M{"booking_time": 1}).
		SetSort(bson.D{{Key: "booking_time", Value: 1}})

	cursor, err := s.bookings.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer cursor.Close(ctx)

	times := make([]time.Time, 0)
	for cursor.Next(ctx) {
		var doc struct {
			BookingTime time.Time `bson:"booking_time"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode booking: %w", err)
		}
		times = append(times, doc.BookingTime)
	}
	return times, cursor.Err()
}

// InsertBooking assigns the next booking number and stores the booking keyed by reference.
func (s *Store) InsertBooking(ctx context.Context, booking *models.Booking) error {
	seq, err := s.nextSeq(ctx, bookingsCollection)
	if err != nil {
		return err
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now()
	}

	doc := bookingDoc{
		Reference:    booking.Reference,
		Seq:          seq,
		SalonID:      booking.SalonID,
		UserID:       booking.UserID,
		CustomerName: booking.CustomerName,
		Service:      booking.Service,
		BookingTime:  booking.BookingTime.UTC(),
		CreatedAt:    booking.CreatedAt.UTC(),
	}
	if _, err := s.bookings.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateBooking, booking.Reference)
		}
		return fmt.Errorf("insert booking: %w", err)
	}

	booking.ID = seq
	return nil
}

func (s *Store) nextSeq(ctx context.Context, name string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next %s sequence: %w", name, err)
	}
	return counter.Seq, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

// Close disconnects only clients opened by Connect.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.db.Client().Disconnect(ctx)
}
