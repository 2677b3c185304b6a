package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/config"
)

var allVars = []string{
	"PORT", "LOG_LEVEL", "CORS_ORIGINS", "DATABASE_URL", "TRIPS_DIR", "REDIS_ADDR", "API_KEYS",
	"VERIFY_DATES", "MAX_BODY_BYTES", "OPENWEATHER_API_KEY", "WEATHER_COUNTRY", "YELP_API_KEY",
	"GEOCODER_BASE_URL", "ATTRACTION_CACHE_TTL", "HTTP_CLIENT_TIMEOUT", "AI_PROVIDER", "AI_API_KEY", "AI_MODEL",
}

// clearEnv unsets every variable Load reads; t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allVars {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

// TestLoad_defaults verifies that every variable is optional and falls back
// to its default.
func TestLoad_defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()

	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
	require.Empty(t, cfg.DatabaseURL)
	require.Equal(t, "./data/trips", cfg.TripsDir)
	require.Empty(t, cfg.APIKeys)
	require.True(t, cfg.VerifyDates)
	require.Equal(t, int64(1<<20), cfg.MaxBodyBytes)
	require.Equal(t, "BR", cfg.WeatherCountry)
	require.Equal(t, 6*time.Hour, cfg.AttractionCacheTTL)
	require.Equal(t, 10*time.Second, cfg.HTTPClientTimeout)
	require.Equal(t, "none", cfg.AIProvider)
}

// TestLoad_overrides verifies that values can be overridden via env vars.
func TestLoad_overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://user:pass@db:5432/trips")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", "https://app.example.com, https://admin.example.com")
	t.Setenv("API_KEYS", " key-one ,key-two,")
	t.Setenv("VERIFY_DATES", "false")
	t.Setenv("MAX_BODY_BYTES", "2048")
	t.Setenv("ATTRACTION_CACHE_TTL", "30m")
	t.Setenv("AI_PROVIDER", "Gemini")
	t.Setenv("AI_API_KEY", "secret")

	cfg, err := config.Load()

	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "postgres://user:pass@db:5432/trips", cfg.DatabaseURL)
	require.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.CORSOrigins)
	require.Equal(t, []string{"key-one", "key-two"}, cfg.APIKeys)
	require.False(t, cfg.VerifyDates)
	require.Equal(t, int64(2048), cfg.MaxBodyBytes)
	require.Equal(t, 30*time.Minute, cfg.AttractionCacheTTL)
	require.Equal(t, "gemini", cfg.AIProvider)
}

// TestLoad_invalid verifies that the error names the offending variable.
func TestLoad_invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"unknown provider", map[string]string{"AI_PROVIDER": "llama"}, "AI_PROVIDER"},
		{"provider without key", map[string]string{"AI_PROVIDER": "openai"}, "AI_API_KEY"},
		{"zero body limit", map[string]string{"MAX_BODY_BYTES": "0"}, "MAX_BODY_BYTES"},
		{"malformed duration", map[string]string{"HTTP_CLIENT_TIMEOUT": "soon"}, "HTTP_CLIENT_TIMEOUT"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := config.Load()

			require.Error(t, err)
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestDescription_ListsVariables(t *testing.T) {
	require.Contains(t, config.Description(), "AI_PROVIDER")
}
