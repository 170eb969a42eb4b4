package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"salonbot/internal/geo"
	"salonbot/internal/models"
)

const salonColumns = `id, name, starting_price, image_url, opening_time, closing_time, barber_count, latitude, longitude`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSalon(row rowScanner) (models.Salon, error) {
	var s models.Salon
	err := row.Scan(&s.ID, &s.Name, &s.StartingPrice, &s.ImageURL, &s.OpeningTime, &s.ClosingTime,
		&s.BarberCount, &s.Latitude, &s.Longitude)
	return s, err
}

// FindNearbySalons prefilters by bounding box in SQL and refines by haversine distance.
func (db *DB) FindNearbySalons(ctx context.Context, lat, lon, radiusMeters float64) ([]models.Salon, error) {
	minLat, maxLat, minLon, maxLon := geo.BoundingBox(lat, lon, radiusMeters)

	query := `SELECT ` + salonColumns + `
        FROM salons
        WHERE latitude BETWEEN $1 AND $2
        AND longitude BETWEEN $3 AND $4`

	rows, err := db.db.QueryContext(ctx, query, minLat, maxLat, minLon, maxLon)
	if err != nil {
		return nil, fmt.Errorf("query nearby salons: %w", err)
	}
	defer rows.Close()

	salons := make([]models.Salon, 0)
	for rows.Next() {
		s, err := scanSalon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan salon: %w", err)
		}
		s.DistanceMeters = geo.Distance(lat, lon, s.Latitude, s.Longitude)
		if s.DistanceMeters <= radiusMeters {
			salons = append(salons, s)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(salons, func(i, j int) bool {
		if salons[i].DistanceMeters == salons[j].DistanceMeters {
			return salons[i].ID < salons[j].ID
		}
		return salons[i].DistanceMeters < salons[j].DistanceMeters
	})
	return salons, nil
}

func (db *DB) GetSalon(ctx context.Context, id int64) (*models.Salon, error) {
	query := `SELECT ` + salonColumns + ` FROM salons WHERE id = $1`
	s, err := scanSalon(db.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get salon %d: %w", id, err)
	}
	return &s, nil
}

// SyncSalons upserts the seed list in one transaction.
func (db *DB) SyncSalons(ctx context.Context, salons []models.Salon) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	query := `INSERT INTO salons (` + salonColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (id) DO UPDATE SET
            name = excluded.name,
            starting_price = excluded.starting_price,
            image_url = excluded.image_url,
            opening_time = excluded.opening_time,
            closing_time = excluded.closing_time,
            barber_count = excluded.barber_count,
            latitude = excluded.latitude,
            longitude = excluded.longitude`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range salons {
		if _, err := stmt.ExecContext(ctx, s.ID, s.Name, s.StartingPrice, s.ImageURL, s.OpeningTime, s.ClosingTime,
			s.BarberCount, s.Latitude, s.Longitude); err != nil {
			return fmt.Errorf("upsert salon %d: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	db.logger.Info().Int("count", len(salons)).Msg("salons synchronized")
	return nil
}
