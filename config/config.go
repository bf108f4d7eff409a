// Package config loads deployment settings from the environment, with
// an optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all deployment knobs.
type Config struct {
	Port   int
	DBPath string

	TrackingInterval        time.Duration
	LocationTimeoutMs       int
	DetectionDistanceMeters float64
	PaidRestMinutes         int
	AutoTravel              bool
	RequireClockOutNotes    bool
}

// Load reads configuration from the environment. A missing .env file
// is fine; real environments set variables directly.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:                    getEnvAsInt("PORT", 8080),
		DBPath:                  getEnv("DB_PATH", "shifts.db"),
		TrackingInterval:        getEnvAsDuration("TRACKING_INTERVAL", time.Minute),
		LocationTimeoutMs:       getEnvAsInt("LOCATION_TIMEOUT_MS", 5000),
		DetectionDistanceMeters: getEnvAsFloat("DETECTION_DISTANCE_METERS", 200),
		PaidRestMinutes:         getEnvAsInt("PAID_REST_MINUTES", 10),
		AutoTravel:              getEnvAsBool("AUTO_TRAVEL", true),
		RequireClockOutNotes:    getEnvAsBool("REQUIRE_CLOCK_OUT_NOTES", false),
	}
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvAsInt(name string, defaultVal int) int {
	if val, err := strconv.Atoi(getEnv(name, "")); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsFloat(name string, defaultVal float64) float64 {
	if val, err := strconv.ParseFloat(getEnv(name, ""), 64); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsBool(name string, defaultVal bool) bool {
	if val, err := strconv.ParseBool(getEnv(name, "")); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	if val, err := time.ParseDuration(getEnv(name, "")); err == nil && val > 0 {
		return val
	}
	return defaultVal
}
