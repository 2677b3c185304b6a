// Package main is the entry point for the trip planner API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/pkordes/trip-planner/internal/ai"
	"github.com/pkordes/trip-planner/internal/attraction"
	"github.com/pkordes/trip-planner/internal/config"
	"github.com/pkordes/trip-planner/internal/geo"
	"github.com/pkordes/trip-planner/internal/handler"
	"github.com/pkordes/trip-planner/internal/httpclient"
	"github.com/pkordes/trip-planner/internal/middleware"
	"github.com/pkordes/trip-planner/internal/repo"
	"github.com/pkordes/trip-planner/internal/service"
	"github.com/pkordes/trip-planner/internal/weather"
	"github.com/pkordes/trip-planner/migrations"
	"github.com/pkordes/trip-planner/spec"
)

// aiTimeout bounds a single itinerary request; models are slower than the
// other collaborators.
const aiTimeout = 60 * time.Second

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	// --- Trip store -------------------------------------------------------
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open trip store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// --- Collaborators ----------------------------------------------------
	// Each upstream gets its own breaker so one failing API does not trip the others.
	newClient := func(name string, timeout time.Duration) *httpclient.Client {
		return httpclient.New(httpclient.DefaultConfig(name, timeout), &http.Client{})
	}

	resolver := geo.NewResolver(geo.NewNominatimClient(newClient("nominatim", cfg.HTTPClientTimeout), cfg.GeocoderBaseURL, cfg.WeatherCountry))

	var forecaster weather.Forecaster
	if cfg.OpenWeatherAPIKey != "" {
		forecaster = weather.NewOpenWeatherClient(newClient("openweather", cfg.HTTPClientTimeout), "", cfg.OpenWeatherAPIKey, cfg.WeatherCountry)
	} else {
		slog.Warn("OPENWEATHER_API_KEY not set; new trips get an empty forecast")
	}

	if cfg.YelpAPIKey == "" {
		slog.Warn("YELP_API_KEY not set; attraction lookups will fail")
	}
	attractions := attraction.NewService(
		attraction.NewYelpClient(newClient("yelp", cfg.HTTPClientTimeout), "", cfg.YelpAPIKey),
		openAttractionCache(ctx, cfg),
		cfg.AttractionCacheTTL,
		nil,
	)

	provider, err := ai.New(ai.Config{Provider: cfg.AIProvider, APIKey: cfg.AIAPIKey, Model: cfg.AIModel}, newClient("ai-"+cfg.AIProvider, aiTimeout))
	if err != nil {
		slog.Error("failed to configure itinerary provider", "error", err)
		os.Exit(1)
	}

	// --- Services ---------------------------------------------------------
	trips := service.NewTripService(store, resolver, forecaster)
	itineraries := service.NewItineraryService(trips, provider)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer
	// → CORS → body limit → metrics → API key.
	// CORS runs before authentication so preflight requests never need a key.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Use(middleware.NewMetricsHandler(prometheus.DefaultRegisterer))
	r.Use(middleware.NewAPIKeyHandler(cfg.APIKeys, "/healthz", "/metrics", "/openapi.yaml"))

	r.Handle("/metrics", promhttp.Handler())

	server := handler.NewServer(trips, itineraries, attractions, handler.Options{
		VerifyDates: cfg.VerifyDates,
		OpenAPI:     spec.OpenAPI,
	})
	server.Register(r)

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	// WriteTimeout leaves room for an itinerary request to the AI provider.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: aiTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "ai_provider", cfg.AIProvider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openStore returns the Postgres store when DATABASE_URL is set, applying
// pending migrations first; otherwise it returns a file store under TRIPS_DIR.
func openStore(ctx context.Context, cfg config.Config) (repo.TripStore, func(), error) {
	if cfg.DatabaseURL == "" {
		fs, err := repo.NewFileStore(cfg.TripsDir)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("using file trip store", "dir", cfg.TripsDir)
		return fs, func() {}, nil
	}

	// pgxpool.New does not open connections immediately; the ping does.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	// goose drives database/sql, so borrow a *sql.DB view of the same pool.
	db := stdlib.OpenDBFromPool(pool)
	err = migrations.Up(ctx, db)
	db.Close()
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	slog.Info("database connection established")
	return repo.NewPgStore(pool), pool.Close, nil
}

// openAttractionCache returns a Redis cache when REDIS_ADDR is set and
// reachable, and an in-process cache otherwise.
func openAttractionCache(ctx context.Context, cfg config.Config) attraction.Cache {
	if cfg.RedisAddr == "" {
		return attraction.NewMemoryCache()
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unreachable; using in-memory attraction cache", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return attraction.NewMemoryCache()
	}
	return attraction.NewRedisCache(client, cfg.AttractionCacheTTL)
}
