// Package main is the entry point for the Forecast Planner API server.
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

	"github.com/forecast-planner/backend/internal/config"
	"github.com/forecast-planner/backend/internal/geocode"
	"github.com/forecast-planner/backend/internal/handler"
	"github.com/forecast-planner/backend/internal/middleware"
	"github.com/forecast-planner/backend/internal/provider/tomorrowio"
	"github.com/forecast-planner/backend/internal/repo"
	"github.com/forecast-planner/backend/internal/scheduler"
	"github.com/forecast-planner/backend/internal/service"
)

// maxBodySize caps incoming request bodies. The only JSON body this API
// accepts is three numbers, so 64 KiB is already generous.
const maxBodySize = 64 << 10

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	// log/slog is the stdlib structured logger introduced in Go 1.21.
	// JSON handler writes machine-readable output suitable for log aggregators.
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	// pgxpool manages a pool of Postgres connections.
	// New() does not open connections immediately — the first query does.
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(context.Background()); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	// --- Repos, clients, services ----------------------------------------
	locationRepo := repo.NewLocationRepo(pool)
	forecastRepo := repo.NewForecastRepo(pool)

	weatherClient := tomorrowio.NewClient(tomorrowio.Config{
		BaseURL:  cfg.TomorrowBaseURL,
		APIKey:   cfg.TomorrowAPIKey,
		Units:    cfg.Units,
		Timezone: cfg.Timezone,
		RPS:      cfg.ProviderRPS,
		Burst:    cfg.ProviderBurst,
		Logger:   logger,
	})
	geocoder := geocode.NewClient(cfg.GeocodeBaseURL, cfg.OpenWeatherMapAPIKey, logger)

	locationSvc := service.NewLocationService(locationRepo, geocoder, logger)
	forecastSvc := service.NewForecastService(forecastRepo, weatherClient, logger)
	recommendSvc := service.NewRecommendationService()

	// --- Scheduler --------------------------------------------------------
	// Keeps the default location's forecasts warm so interactive requests
	// hit the cache instead of spending provider quota.
	prefetch := scheduler.New(cfg.DefaultLocation, cfg.FetchInterval, locationSvc, forecastSvc, logger)
	if err := prefetch.Start(); err != nil {
		slog.Error("failed to start prefetch scheduler", "error", err)
		os.Exit(1)
	}
	defer prefetch.Stop()

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer.
	// RequestID generates a unique trace ID per request.
	// RealIP sets r.RemoteAddr from X-Forwarded-For / X-Real-IP (safe behind a proxy).
	// SlogLogger writes one structured JSON log line per request.
	// Recoverer catches panics and returns HTTP 500 instead of crashing.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(maxBodySize))

	server := handler.NewServer(locationSvc, forecastSvc, recommendSvc, cfg.DefaultLocation)
	r.Mount("/", server.Routes())

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second, // a cache miss waits on the provider
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
