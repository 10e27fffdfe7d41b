// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables (optionally seeded
// from a .env file) once at process start and never mutated afterwards.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// TomorrowAPIKey authenticates against the Tomorrow.io weather API. Required.
	TomorrowAPIKey string

	// TomorrowBaseURL is the Tomorrow.io API root. Overridable for tests.
	TomorrowBaseURL string

	// OpenWeatherMapAPIKey authenticates against the OpenWeatherMap
	// geocoding API used to resolve location names. Required.
	OpenWeatherMapAPIKey string

	// GeocodeBaseURL is the OpenWeatherMap geo API root. Overridable for tests.
	GeocodeBaseURL string

	// Units is the unit system requested from the provider ("metric" or
	// "imperial"). Defaults to "metric".
	Units string

	// Timezone is the timezone parameter sent to the provider. Defaults to
	// "GMT+3".
	Timezone string

	// DefaultLocation is the location used when a request names none and by
	// the prefetch scheduler. Defaults to "nairobi".
	DefaultLocation string

	// FetchInterval is how often the scheduler refreshes the default
	// location's forecasts. Defaults to 30m. Zero disables the scheduler.
	FetchInterval time.Duration

	// ProviderRPS and ProviderBurst bound the outbound request rate to the
	// weather provider. The free Tomorrow.io tier allows 3 requests/second.
	ProviderRPS   float64
	ProviderBurst int
}

// Load reads configuration from environment variables and returns a Config.
// A .env file in the working directory is loaded first if present, matching
// how the deployment images ship their settings.
// Returns an error listing any required variables that are not set.
func Load() (Config, error) {
	// Ignore the error: a missing .env file just means plain env vars.
	_ = godotenv.Load()

	cfg := Config{
		Port:            getEnv("PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CORSOrigins:     splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		TomorrowBaseURL: getEnv("TOMORROW_BASE_URL", "https://api.tomorrow.io"),
		GeocodeBaseURL:  getEnv("GEOCODE_BASE_URL", "https://api.openweathermap.org"),
		Units:           getEnv("UNITS", "metric"),
		Timezone:        getEnv("TIMEZONE", "GMT+3"),
		DefaultLocation: getEnv("DEFAULT_LOCATION", "nairobi"),
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	cfg.TomorrowAPIKey = os.Getenv("TOMORROW_API_KEY")
	if cfg.TomorrowAPIKey == "" {
		missing = append(missing, "TOMORROW_API_KEY")
	}
	cfg.OpenWeatherMapAPIKey = os.Getenv("OPENWEATHERMAP_API_KEY")
	if cfg.OpenWeatherMapAPIKey == "" {
		missing = append(missing, "OPENWEATHERMAP_API_KEY")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	interval, err := time.ParseDuration(getEnv("FETCH_INTERVAL", "30m"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}
	cfg.FetchInterval = interval

	cfg.ProviderRPS, err = strconv.ParseFloat(getEnv("PROVIDER_RPS", "3"), 64)
	if err != nil {
		return Config{}, fmt.Errorf("invalid PROVIDER_RPS: %w", err)
	}
	cfg.ProviderBurst, err = strconv.Atoi(getEnv("PROVIDER_BURST", "3"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid PROVIDER_BURST: %w", err)
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
