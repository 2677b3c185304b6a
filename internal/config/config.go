// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string `env:"PORT" env-default:"8080"`

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string `env:"CORS_ORIGINS" env-default:"http://localhost:5173" env-separator:","`

	// DatabaseURL is the Postgres connection string. When empty, trips are
	// stored as JSON files under TripsDir.
	DatabaseURL string `env:"DATABASE_URL"`
	TripsDir    string `env:"TRIPS_DIR" env-default:"./data/trips"`

	// RedisAddr selects the Redis attraction cache. Empty means in-memory.
	RedisAddr string `env:"REDIS_ADDR"`

	// APIKeys are the accepted X-API-Key values. Empty disables authentication.
	APIKeys []string `env:"API_KEYS" env-separator:","`

	// VerifyDates rejects new trips that start more than a day in the past.
	VerifyDates bool `env:"VERIFY_DATES" env-default:"true"`

	MaxBodyBytes int64 `env:"MAX_BODY_BYTES" env-default:"1048576"`

	OpenWeatherAPIKey  string        `env:"OPENWEATHER_API_KEY"`
	WeatherCountry     string        `env:"WEATHER_COUNTRY" env-default:"BR"`
	YelpAPIKey         string        `env:"YELP_API_KEY"`
	GeocoderBaseURL    string        `env:"GEOCODER_BASE_URL"`
	AttractionCacheTTL time.Duration `env:"ATTRACTION_CACHE_TTL" env-default:"6h"`
	HTTPClientTimeout  time.Duration `env:"HTTP_CLIENT_TIMEOUT" env-default:"10s"`

	// AIProvider is one of none, gemini, openai or huggingface.
	AIProvider string `env:"AI_PROVIDER" env-default:"none"`
	AIAPIKey   string `env:"AI_API_KEY"`
	AIModel    string `env:"AI_MODEL"`
}

var aiProviders = []string{"none", "gemini", "openai", "huggingface"}

// Load reads configuration from environment variables and returns a Config.
// Returns an error naming the offending variable when a value is invalid.
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("config.Load: %w", err)
	}

	cfg.CORSOrigins = trimList(cfg.CORSOrigins)
	cfg.APIKeys = trimList(cfg.APIKeys)
	cfg.AIProvider = strings.ToLower(strings.TrimSpace(cfg.AIProvider))
	if cfg.AIProvider == "" {
		cfg.AIProvider = "none"
	}

	var problems []string
	if !contains(aiProviders, cfg.AIProvider) {
		problems = append(problems, fmt.Sprintf("AI_PROVIDER must be one of %s", strings.Join(aiProviders, ", ")))
	} else if cfg.AIProvider != "none" && cfg.AIAPIKey == "" {
		problems = append(problems, fmt.Sprintf("AI_API_KEY is required when AI_PROVIDER=%s", cfg.AIProvider))
	}
	if cfg.MaxBodyBytes <= 0 {
		problems = append(problems, "MAX_BODY_BYTES must be positive")
	}
	if cfg.AttractionCacheTTL <= 0 {
		problems = append(problems, "ATTRACTION_CACHE_TTL must be positive")
	}
	if cfg.HTTPClientTimeout <= 0 {
		problems = append(problems, "HTTP_CLIENT_TIMEOUT must be positive")
	}
	if len(problems) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}

	return cfg, nil
}

// Description returns the cleanenv usage text listing every variable.
func Description() string {
	var cfg Config
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return ""
	}
	return text
}

// trimList trims each entry and drops empty ones. The result is never nil.
func trimList(in []string) []string {
	out := []string{}
	for _, part := range in {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
