package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"hr-attendance-backend/internal/clock"

	"github.com/joho/godotenv"
)

// Config holds application runtime configuration.
type Config struct {
	Env                string
	HTTPPort           string
	DatabaseURL        string
	JWTSecret          string
	Timezone           *time.Location
	TestTime           string
	AttendancePageSize int
	AccessTokenTTL     time.Duration
	RateLimitPerMinute int
	AutoMigrate        bool
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutdownTimeout    time.Duration
}

// Load reads environment variables and .env (if present).
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:                getEnv("APP_ENV", "development"),
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		TestTime:           os.Getenv("APP_TEST_TIME"),
		AttendancePageSize: getInt("ATTENDANCE_PAGE_SIZE", 50),
		AccessTokenTTL:     getDuration("ACCESS_TOKEN_TTL", 24*time.Hour),
		RateLimitPerMinute: getInt("RATE_LIMIT_PER_MINUTE", 200),
		AutoMigrate:        getBool("DB_AUTO_MIGRATE", true),
		ReadTimeout:        getDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:       getDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:        getDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:    getDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	loc, err := time.LoadLocation(getEnv("APP_TIMEZONE", "UTC"))
	if err != nil {
		return cfg, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}
	cfg.Timezone = loc

	if cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return cfg, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}

// Clock returns the process clock. APP_TEST_TIME pins "now" outside
// production.
func (c Config) Clock() (clock.Clock, error) {
	if c.TestTime == "" || c.Env == "production" {
		return clock.System{Location: c.Timezone}, nil
	}
	at, err := clock.Parse(c.TestTime, c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TEST_TIME: %w", err)
	}
	return clock.Fixed{At: at}, nil
}

func getEnv(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		// Support seconds as integer without suffix.
		if secs, convErr := strconv.Atoi(val); convErr == nil {
			return time.Duration(secs) * time.Second
		}
		return fallback
	}
	return d
}
