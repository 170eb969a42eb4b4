package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"salonbot/internal/models"
	"salonbot/internal/slots"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Speech     SpeechConfig     `yaml:"speech"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	Sheets     SheetsConfig     `yaml:"sheets"`
	Bot        BotConfig        `yaml:"bot"`
	SalonsPath string           `yaml:"salons_path"`
}

type BotConfig struct {
	Timezone             string        `yaml:"timezone"`
	SearchRadiusMeters   float64       `yaml:"search_radius_meters"`
	RateLimitMessages    int           `yaml:"rate_limit_messages"`
	RateLimitWindow      int           `yaml:"rate_limit_window"`
	SessionTTL           time.Duration `yaml:"session_ttl"`
	SessionSweepSchedule string        `yaml:"session_sweep_schedule"`
	MaxVoiceBytes        int64         `yaml:"max_voice_bytes"`
	MaxPendingUpdates    int           `yaml:"max_pending_updates"`
	UpdateTimeout        time.Duration `yaml:"update_timeout"`

	location *time.Location
}

// Location returns the configured timezone, UTC until Validate has run.
func (c BotConfig) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type TelegramConfig struct {
	BotToken  string  `yaml:"bot_token"`
	Debug     bool    `yaml:"debug"`
	SendRPS   float64 `yaml:"send_rps"`
	SendBurst int     `yaml:"send_burst"`
}

type DatabaseConfig struct {
	Driver   string         `yaml:"driver"`
	Path     string         `yaml:"path"`
	Postgres PostgresConfig `yaml:"postgres"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Backup   BackupConfig   `yaml:"backup"`
}

// BackupConfig applies to the sqlite driver only. Schedule is a cron spec.
type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type PostgresConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	DBName         string `yaml:"dbname"`
	SSLMode        string `yaml:"sslmode"`
	MaxConnections int    `yaml:"max_connections"`
}

// DSN builds a lib/pq connection string.
func (p PostgresConfig) DSN() string {
	parts := []string{
		fmt.Sprintf("host=%s", p.Host),
		fmt.Sprintf("port=%d", p.Port),
		fmt.Sprintf("user=%s", p.User),
		fmt.Sprintf("dbname=%s", p.DBName),
		fmt.Sprintf("sslmode=%s", p.SSLMode),
	}
	if p.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", p.Password))
	}
	return strings.Join(parts, " ")
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	HealthCheckPort   int  `yaml:"health_check_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type SpeechConfig struct {
	Enabled         bool   `yaml:"enabled"`
	CredentialsFile string `yaml:"credentials_file"`
	LanguageCode    string `yaml:"language_code"`
	SampleRateHertz int32  `yaml:"sample_rate_hertz"`
}

// SheetsConfig enables the spreadsheet journal of confirmed bookings.
type SheetsConfig struct {
	Enabled         bool   `yaml:"enabled"`
	CredentialsFile string `yaml:"credentials_file"`
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	SheetName       string `yaml:"sheet_name"`
}

type GeminiConfig struct {
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
}

func Load(configPath string) (*Config, error) {
	// .env необязателен: переменные могут прийти из окружения
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" || c.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		return errors.New("telegram bot token is required")
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database path is required")
		}
	case DriverPostgres:
		if c.Database.Postgres.Host == "" || c.Database.Postgres.DBName == "" {
			return errors.New("postgres host and dbname are required")
		}
	case DriverMongo:
		if c.Database.Mongo.URI == "" {
			return errors.New("mongo uri is required")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if c.Bot.SearchRadiusMeters <= 0 {
		return errors.New("bot.search_radius_meters must be positive")
	}

	loc, err := time.LoadLocation(c.Bot.Timezone)
	if err != nil {
		return fmt.Errorf("invalid bot.timezone %q: %w", c.Bot.Timezone, err)
	}
	c.Bot.location = loc

	if c.Speech.Enabled && c.Speech.CredentialsFile == "" {
		return errors.New("speech.credentials_file is required when speech is enabled")
	}
	if c.Sheets.Enabled && (c.Sheets.CredentialsFile == "" || c.Sheets.SpreadsheetID == "") {
		return errors.New("sheets.credentials_file and sheets.spreadsheet_id are required when sheets is enabled")
	}
	return nil
}

// SalonsConfig is the seed file layout.
type SalonsConfig struct {
	Salons []models.Salon `yaml:"salons"`
}

// LoadSalons reads and validates the salon seed file.
func LoadSalons(path string) ([]models.Salon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg SalonsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := ValidateSalons(cfg.Salons); err != nil {
		return nil, err
	}
	return cfg.Salons, nil
}

func ValidateSalons(salons []models.Salon) error {
	// Check for duplicate salon IDs
	ids := make(map[int64]bool)
	for _, s := range salons {
		if s.ID == 0 {
			return fmt.Errorf("salon '%s' has invalid ID 0", s.Name)
		}
		if ids[s.ID] {
			return fmt.Errorf("duplicate salon ID found: %d", s.ID)
		}
		ids[s.ID] = true

		if s.Name == "" {
			return fmt.Errorf("salon %d has empty name", s.ID)
		}
		if s.BarberCount < 1 {
			return fmt.Errorf("salon %d: barber_count must be at least 1", s.ID)
		}
		if s.Latitude < -90 || s.Latitude > 90 || s.Longitude < -180 || s.Longitude > 180 {
			return fmt.Errorf("salon %d has invalid coordinates", s.ID)
		}
		if _, _, err := slots.ParseClock(s.OpeningTime); err != nil {
			return fmt.Errorf("salon %d opening_time: %w", s.ID, err)
		}
		if _, _, err := slots.ParseClock(s.ClosingTime); err != nil {
			return fmt.Errorf("salon %d closing_time: %w", s.ID, err)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.Postgres.Port == 0 {
		c.Database.Postgres.Port = 5432
	}
	if c.Database.Postgres.SSLMode == "" {
		c.Database.Postgres.SSLMode = "disable"
	}
	if c.Database.Mongo.Database == "" {
		c.Database.Mongo.Database = "salonbot"
	}
	if c.Database.Backup.Schedule == "" {
		c.Database.Backup.Schedule = "@daily"
	}
	if c.Database.Backup.StoragePath == "" {
		c.Database.Backup.StoragePath = "data/backups"
	}
	if c.Monitoring.HealthCheckPort == 0 {
		c.Monitoring.HealthCheckPort = 8080
	}
	if c.Telegram.SendRPS == 0 {
		c.Telegram.SendRPS = 25
	}
	if c.Telegram.SendBurst == 0 {
		c.Telegram.SendBurst = 5
	}

	if c.Speech.LanguageCode == "" {
		c.Speech.LanguageCode = "en-US"
	}
	if c.Speech.SampleRateHertz == 0 {
		c.Speech.SampleRateHertz = 48000
	}
	if c.Sheets.SheetName == "" {
		c.Sheets.SheetName = "Bookings"
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-1.5-flash"
	}

	// Bot defaults
	if c.Bot.Timezone == "" {
		c.Bot.Timezone = models.DefaultTimezone
	}
	if c.Bot.SearchRadiusMeters == 0 {
		c.Bot.SearchRadiusMeters = models.DefaultSearchRadiusMeters
	}
	if c.Bot.RateLimitMessages == 0 {
		c.Bot.RateLimitMessages = models.RateLimitMessages
	}
	if c.Bot.RateLimitWindow == 0 {
		c.Bot.RateLimitWindow = models.RateLimitWindow
	}
	if c.Bot.SessionTTL == 0 {
		c.Bot.SessionTTL = models.DefaultSessionTTL
	}
	if c.Bot.SessionSweepSchedule == "" {
		c.Bot.SessionSweepSchedule = "@every 10m"
	}
	if c.Bot.MaxVoiceBytes == 0 {
		c.Bot.MaxVoiceBytes = models.DefaultMaxVoiceBytes
	}
	if c.Bot.MaxPendingUpdates == 0 {
		c.Bot.MaxPendingUpdates = models.DefaultMaxPendingUpdates
	}
	if c.Bot.UpdateTimeout == 0 {
		c.Bot.UpdateTimeout = 30 * time.Second
	}
}
