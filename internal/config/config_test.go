package config

import (
	"testing"
	"time"

	"hr-attendance-backend/internal/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/hr_test")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "")
	t.Setenv("APP_TIMEZONE", "")
	t.Setenv("APP_TEST_TIME", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 50, cfg.AttendancePageSize)
	assert.Equal(t, 24*time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, time.UTC, cfg.Timezone)
	assert.True(t, cfg.AutoMigrate)
}

func TestLoadRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "secret")
	_, err := Load()
	assert.EqualError(t, err, "DATABASE_URL is required")

	t.Setenv("DATABASE_URL", "postgres://localhost/hr_test")
	t.Setenv("JWT_SECRET", "")
	_, err = Load()
	assert.EqualError(t, err, "JWT_SECRET is required")
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("HTTP_READ_TIMEOUT", "30")
	t.Setenv("HTTP_WRITE_TIMEOUT", "2m")
	t.Setenv("ATTENDANCE_PAGE_SIZE", "-5")
	t.Setenv("DB_AUTO_MIGRATE", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 2*time.Minute, cfg.WriteTimeout)
	assert.Equal(t, 50, cfg.AttendancePageSize)
	assert.False(t, cfg.AutoMigrate)
}

func TestLoadInvalidTimezone(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_TIMEZONE", "Mars/Olympus")
	_, err := Load()
	assert.Error(t, err)
}

func TestClock(t *testing.T) {
	cfg := Config{Env: "development", Timezone: time.UTC, TestTime: "2025-01-06"}
	c, err := cfg.Clock()
	require.NoError(t, err)
	assert.Equal(t, clock.Fixed{At: time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)}, c)

	cfg.Env = "production"
	c, err = cfg.Clock()
	require.NoError(t, err)
	assert.IsType(t, clock.System{}, c)

	cfg.Env = "development"
	cfg.TestTime = "not a time"
	_, err = cfg.Clock()
	assert.Error(t, err)
}
