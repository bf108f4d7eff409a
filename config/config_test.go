package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "shifts.db", cfg.DBPath)
	assert.Equal(t, time.Minute, cfg.TrackingInterval)
	assert.Equal(t, 5000, cfg.LocationTimeoutMs)
	assert.Equal(t, 200.0, cfg.DetectionDistanceMeters)
	assert.Equal(t, 10, cfg.PaidRestMinutes)
	assert.True(t, cfg.AutoTravel)
	assert.False(t, cfg.RequireClockOutNotes)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("TRACKING_INTERVAL", "30s")
	t.Setenv("PAID_REST_MINUTES", "15")
	t.Setenv("AUTO_TRAVEL", "false")
	t.Setenv("REQUIRE_CLOCK_OUT_NOTES", "true")

	cfg := Load()

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.TrackingInterval)
	assert.Equal(t, 15, cfg.PaidRestMinutes)
	assert.False(t, cfg.AutoTravel)
	assert.True(t, cfg.RequireClockOutNotes)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	t.Setenv("TRACKING_INTERVAL", "-5s")

	cfg := Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, time.Minute, cfg.TrackingInterval)
}
