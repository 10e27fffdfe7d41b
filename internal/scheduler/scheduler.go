// Package scheduler keeps the default location's forecasts warm.
// Interactive requests for the common case then hit the cache instead of
// spending provider quota on the critical path.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/forecast-planner/backend/internal/domain"
)

// pipeline is the slice of ForecastService the scheduler needs.
type pipeline interface {
	Get(ctx context.Context, loc domain.Location, kind domain.Kind) domain.ForecastResult
}

// resolver is the slice of LocationService the scheduler needs.
type resolver interface {
	Resolve(ctx context.Context, query string) (domain.Location, error)
}

// Scheduler periodically refreshes the realtime and five-day forecasts for
// the configured default location.
type Scheduler struct {
	scheduler       *gocron.Scheduler
	locations       resolver
	forecasts       pipeline
	defaultLocation string
	interval        time.Duration
	log             *slog.Logger
}

// New creates a Scheduler. A non-positive interval disables it.
func New(defaultLocation string, interval time.Duration, locations resolver, forecasts pipeline, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		scheduler:       gocron.NewScheduler(time.UTC),
		locations:       locations,
		forecasts:       forecasts,
		defaultLocation: defaultLocation,
		interval:        interval,
		log:             logger,
	}
}

// Start schedules the periodic prefetch job and starts the underlying
// scheduler in its own goroutine.
func (s *Scheduler) Start() error {
	if s.interval <= 0 || s.defaultLocation == "" {
		s.log.Info("prefetch scheduler disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(s.refresh)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.log.Info("prefetch scheduler started", "location", s.defaultLocation, "interval", s.interval)
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// refresh runs one prefetch pass. Failures are logged and swallowed: the
// job must never take the process down, and the next tick retries anyway.
func (s *Scheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	loc, err := s.locations.Resolve(ctx, s.defaultLocation)
	if err != nil {
		s.log.Error("prefetch: resolve default location failed", "location", s.defaultLocation, "error", err)
		return
	}

	for _, kind := range []domain.Kind{domain.KindRealtime, domain.KindFiveDay} {
		res := s.forecasts.Get(ctx, loc, kind)
		if res.Err != nil {
			s.log.Error("prefetch failed", "location", loc.Name, "kind", kind, "error", res.Err)
			continue
		}
		s.log.Debug("prefetch complete", "location", loc.Name, "kind", kind,
			"records", len(res.Records), "source", res.Source)
	}
}
