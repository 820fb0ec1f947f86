package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	Correction CorrectionConfig
	Schedule   ScheduleConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	Timezone       string
	AllowedOrigins []string
}

// CorrectionConfig bounds the bulk moderation endpoints
type CorrectionConfig struct {
	BulkMaxIDs      int
	BulkConcurrency int
	BulkItemTimeout time.Duration
}

// ScheduleConfig holds the fallbacks used when an employee has no own schedule values
type ScheduleConfig struct {
	DefaultBreakMinutes    int
	DefaultStartTime       string // HH:MM
	OvertimeThresholdHours int
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file loaded, using process environment", "error", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "stamp_correction"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Timezone:       getEnv("APP_TIMEZONE", "Asia/Tokyo"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),
	}
	if len(config.App.AllowedOrigins) == 0 {
		config.App.AllowedOrigins = []string{"http://localhost:3000"}
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Correction workflow configuration
	bulkMax, err := strconv.Atoi(getEnv("CORRECTION_BULK_MAX_IDS", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid CORRECTION_BULK_MAX_IDS: %w", err)
	}
	bulkConcurrency, err := strconv.Atoi(getEnv("CORRECTION_BULK_CONCURRENCY", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid CORRECTION_BULK_CONCURRENCY: %w", err)
	}
	bulkTimeout, err := time.ParseDuration(getEnv("CORRECTION_BULK_ITEM_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CORRECTION_BULK_ITEM_TIMEOUT: %w", err)
	}

	config.Correction = CorrectionConfig{
		BulkMaxIDs:      bulkMax,
		BulkConcurrency: bulkConcurrency,
		BulkItemTimeout: bulkTimeout,
	}

	// Schedule defaults
	breakMinutes, err := strconv.Atoi(getEnv("SCHEDULE_DEFAULT_BREAK_MINUTES", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULE_DEFAULT_BREAK_MINUTES: %w", err)
	}
	threshold, err := strconv.Atoi(getEnv("OVERTIME_THRESHOLD_HOURS", "8"))
	if err != nil {
		return nil, fmt.Errorf("invalid OVERTIME_THRESHOLD_HOURS: %w", err)
	}

	config.Schedule = ScheduleConfig{
		DefaultBreakMinutes:    breakMinutes,
		DefaultStartTime:       getEnv("SCHEDULE_DEFAULT_START_TIME", "09:00"),
		OvertimeThresholdHours: threshold,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("JWT_ACCESS_EXPIRATION_TIME is invalid: %w", err)
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("APP_TIMEZONE is invalid: %w", err)
	}
	if c.Correction.BulkMaxIDs <= 0 {
		return fmt.Errorf("CORRECTION_BULK_MAX_IDS must be positive")
	}
	if c.Correction.BulkConcurrency <= 0 {
		return fmt.Errorf("CORRECTION_BULK_CONCURRENCY must be positive")
	}
	if c.Correction.BulkItemTimeout <= 0 {
		return fmt.Errorf("CORRECTION_BULK_ITEM_TIMEOUT must be positive")
	}
	if c.Schedule.DefaultBreakMinutes < 0 {
		return fmt.Errorf("SCHEDULE_DEFAULT_BREAK_MINUTES must not be negative")
	}
	if _, err := time.Parse("15:04", c.Schedule.DefaultStartTime); err != nil {
		return fmt.Errorf("SCHEDULE_DEFAULT_START_TIME must be in HH:MM format")
	}
	if c.Schedule.OvertimeThresholdHours < 0 {
		return fmt.Errorf("OVERTIME_THRESHOLD_HOURS must not be negative")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// Location returns the time zone in which attendance wall-clock times are read.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AccessTokenTTL returns JWT_ACCESS_EXPIRATION_TIME as a duration. Validate has
// already rejected unparseable values.
func (c *Config) AccessTokenTTL() time.Duration {
	ttl, err := time.ParseDuration(c.JWT.AccessExpiration)
	if err != nil {
		return time.Hour
	}
	return ttl
}

// SlogLevel maps LOG_LEVEL to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string = strings.Split(value, ",")
	return result
}
