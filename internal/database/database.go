package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"salonbot/internal/config"
	"salonbot/internal/domain"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

const (
	driverSQLite   = "sqlite3"
	driverPostgres = "postgres"
)

// DB is the SQL salon directory and booking store.
// Queries use $n placeholders, which both sqlite3 and postgres accept.
type DB struct {
	db     *sql.DB
	driver string
	logger *zerolog.Logger
}

var _ domain.Storage = (*DB)(nil)

// Open connects to the configured SQL backend and applies the schema.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zerolog.Logger) (*DB, error) {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}

	switch cfg.Driver {
	case config.DriverPostgres:
		return open(ctx, driverPostgres, cfg.Postgres.DSN(), cfg.Postgres.MaxConnections, logger)
	case config.DriverSQLite, "":
		// Создаем директорию для БД, если её нет
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		// a single connection keeps :memory: databases shared and serializes writers
		return open(ctx, driverSQLite, cfg.Path, 1, logger)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", cfg.Driver)
	}
}

// NewDB opens an sqlite database at path.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	return Open(context.Background(), config.DatabaseConfig{Driver: config.DriverSQLite, Path: path}, logger)
}

func open(ctx context.Context, driver, dsn string, maxConns int, logger *zerolog.Logger) (*DB, error) {
	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if maxConns > 0 {
		sqlDB.SetMaxOpenConns(maxConns)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{db: sqlDB, driver: driver, logger: logger}
	if err := db.createTables(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("driver", driver).Msg("database initialized")
	return db, nil
}

func (db *DB) createTables(ctx context.Context) error {
	queries := sqliteSchema
	if db.driver == driverPostgres {
		queries = postgresSchema
	}
	for _, query := range queries {
		if _, err := db.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS salons (
            id INTEGER PRIMARY KEY,
            name TEXT NOT NULL,
            starting_price REAL NOT NULL DEFAULT 0,
            image_url TEXT NOT NULL DEFAULT '',
            opening_time TEXT NOT NULL,
            closing_time TEXT NOT NULL,
            barber_count INTEGER NOT NULL DEFAULT 1,
            latitude REAL NOT NULL,
            longitude REAL NOT NULL
        )`,
	`CREATE TABLE IF NOT EXISTS bookings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            reference TEXT NOT NULL UNIQUE,
            salon_id INTEGER NOT NULL REFERENCES salons(id),
            user_id INTEGER NOT NULL,
            customer_name TEXT NOT NULL,
            service TEXT NOT NULL,
            booking_time DATETIME NOT NULL,
            created_at DATETIME NOT NULL
        )`,
	`CREATE INDEX IF NOT EXISTS idx_salons_lat_lon ON salons(latitude, longitude)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_salon_time ON bookings(salon_id, booking_time)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS salons (
            id BIGINT PRIMARY KEY,
            name TEXT NOT NULL,
            starting_price DOUBLE PRECISION NOT NULL DEFAULT 0,
            image_url TEXT NOT NULL DEFAULT '',
            opening_time TEXT NOT NULL,
            closing_time TEXT NOT NULL,
            barber_count INTEGER NOT NULL DEFAULT 1,
            latitude DOUBLE PRECISION NOT NULL,
            longitude DOUBLE PRECISION NOT NULL
        )`,
	`CREATE TABLE IF NOT EXISTS bookings (
            id BIGSERIAL PRIMARY KEY,
            reference TEXT NOT NULL UNIQUE,
            salon_id BIGINT NOT NULL REFERENCES salons(id),
            user_id BIGINT NOT NULL,
            customer_name TEXT NOT NULL,
            service TEXT NOT NULL,
            booking_time TIMESTAMPTZ NOT NULL,
            created_at TIMESTAMPTZ NOT NULL
        )`,
	`CREATE INDEX IF NOT EXISTS idx_salons_lat_lon ON salons(latitude, longitude)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_salon_time ON bookings(salon_id, booking_time)`,
}

// isUniqueViolation recognizes unique constraint errors of both drivers.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func (db *DB) Ping(ctx context.Context) error {
	return db.db.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.db.Close()
}
