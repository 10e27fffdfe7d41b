package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/forecast-planner/backend/internal/domain"
	"github.com/forecast-planner/backend/internal/provider/tomorrowio"
	"github.com/forecast-planner/backend/internal/repo"
)

// WeatherProvider defines the upstream operations the forecast pipeline
// depends on. Defining the interface here (in the consumer package) lets
// pipeline tests inject a fake provider without any network.
type WeatherProvider interface {
	FetchRealtime(ctx context.Context, loc domain.Location) (tomorrowio.RealtimePayload, error)
	FetchDaily(ctx context.Context, loc domain.Location, days int) (tomorrowio.DailyPayload, error)
}

// ForecastService is the cache-or-fetch pipeline: it serves forecasts from
// storage when a fresh enough record exists and falls back to the weather
// provider on a miss, persisting whatever the fetch produced.
//
// Concurrent misses for the same location and kind are coalesced through a
// singleflight group so only one outbound fetch is in flight per key.
type ForecastService struct {
	forecasts repo.ForecastRepo
	provider  WeatherProvider
	group     singleflight.Group
	log       *slog.Logger
}

// NewForecastService constructs a ForecastService.
func NewForecastService(forecasts repo.ForecastRepo, provider WeatherProvider, logger *slog.Logger) *ForecastService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ForecastService{forecasts: forecasts, provider: provider, log: logger}
}

// Get returns the forecast records for a location and kind.
//
// All failures along the lookup/fetch/normalize/persist chain are contained
// here: the result's Source says where records came from and Err carries the
// reason when there are none because something failed. Callers can therefore
// tell "nothing stored, nothing fetched" (Err nil) from "the upstream is
// down" (Err wrapping domain.ErrUpstream).
func (s *ForecastService) Get(ctx context.Context, loc domain.Location, kind domain.Kind) domain.ForecastResult {
	switch kind {
	case domain.KindRealtime:
		return s.realtime(ctx, loc)
	case domain.KindOneDay, domain.KindFiveDay:
		return s.daily(ctx, loc, kind)
	default:
		return domain.ForecastResult{
			Source: domain.SourceNone,
			Err:    fmt.Errorf("%w: unknown forecast kind %q", domain.ErrValidation, kind),
		}
	}
}

// realtime serves the single freshest record whose validity window sits
// inside [now, now+24h], fetching from the provider when none is stored.
func (s *ForecastService) realtime(ctx context.Context, loc domain.Location) domain.ForecastResult {
	records, err := s.forecasts.FindRealtimeWindow(ctx, loc.ID, time.Now().UTC())
	if err != nil {
		s.log.Error("realtime cache lookup failed", "location", loc.Name, "error", err)
		return domain.ForecastResult{Source: domain.SourceNone, Err: err}
	}

	if len(records) > 0 {
		// Rows arrive ordered by fetched_at descending; the first one is the
		// freshest fetch covering the window.
		return domain.ForecastResult{Records: records[:1], Source: domain.SourceCache}
	}

	return s.fetch(ctx, loc, domain.KindRealtime)
}

// daily serves one record per calendar day inside [today, now+5d], keeping
// the freshest fetch for each day, and fetches on a miss.
func (s *ForecastService) daily(ctx context.Context, loc domain.Location, kind domain.Kind) domain.ForecastResult {
	now := time.Now().UTC()
	from := startOfDay(now)

	records, err := s.forecasts.FindDailyWindow(ctx, loc.ID, from, now.AddDate(0, 0, 5))
	if err != nil {
		s.log.Error("daily cache lookup failed", "location", loc.Name, "error", err)
		return domain.ForecastResult{Source: domain.SourceNone, Err: err}
	}

	if unique := dedupByDay(records); len(unique) > 0 {
		return domain.ForecastResult{Records: unique, Source: domain.SourceCache}
	}

	return s.fetch(ctx, loc, kind)
}

// fetch coalesces concurrent misses per (location, kind) and runs the
// provider → normalize → persist leg of the pipeline.
func (s *ForecastService) fetch(ctx context.Context, loc domain.Location, kind domain.Kind) domain.ForecastResult {
	key := loc.ID.String() + "|" + string(kind)

	v, err, shared := s.group.Do(key, func() (any, error) {
		return s.fetchAndStore(ctx, loc, kind)
	})
	if err != nil {
		return domain.ForecastResult{Source: domain.SourceNone, Err: err}
	}
	if shared {
		s.log.Debug("coalesced concurrent forecast fetch", "location", loc.Name, "kind", kind)
	}

	records := v.([]domain.Forecast)
	if len(records) == 0 {
		return domain.ForecastResult{Source: domain.SourceNone}
	}
	return domain.ForecastResult{Records: records, Source: domain.SourceProvider}
}

// fetchAndStore performs one outbound fetch, normalizes the payload into
// canonical records, and persists them in one batch.
func (s *ForecastService) fetchAndStore(ctx context.Context, loc domain.Location, kind domain.Kind) ([]domain.Forecast, error) {
	fetchedAt := time.Now().UTC()

	var (
		records []domain.Forecast
		err     error
	)
	if kind == domain.KindRealtime {
		var payload tomorrowio.RealtimePayload
		payload, err = s.provider.FetchRealtime(ctx, loc)
		if err == nil {
			records, err = normalizeRealtime(payload, loc, fetchedAt)
		}
	} else {
		var payload tomorrowio.DailyPayload
		payload, err = s.provider.FetchDaily(ctx, loc, kind.Days())
		if err == nil {
			records, err = normalizeDaily(payload, loc, fetchedAt)
		}
	}
	if err != nil {
		s.log.Error("forecast fetch failed", "location", loc.Name, "kind", kind, "error", err)
		return nil, fmt.Errorf("service.ForecastService.fetchAndStore: %w", err)
	}

	saved, err := s.forecasts.SaveAll(ctx, records)
	if err != nil {
		s.log.Error("forecast persist failed", "location", loc.Name, "kind", kind, "error", err)
		return nil, fmt.Errorf("service.ForecastService.fetchAndStore: %w", err)
	}

	return saved, nil
}

// normalizeRealtime maps shape A into exactly one canonical record: the
// validity window is [payload time, payload time + 24h].
// Normalization is all-or-nothing: a malformed timestamp yields no records.
func normalizeRealtime(p tomorrowio.RealtimePayload, loc domain.Location, fetchedAt time.Time) ([]domain.Forecast, error) {
	start, err := time.Parse(time.RFC3339, p.Data.Time)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed realtime timestamp %q", domain.ErrUpstream, p.Data.Time)
	}

	return []domain.Forecast{{
		LocationID:               loc.ID,
		FetchedAt:                fetchedAt,
		StartTime:                start,
		EndTime:                  start.Add(24 * time.Hour),
		Temperature:              p.Data.Values.Temperature,
		Humidity:                 p.Data.Values.Humidity,
		WindSpeed:                p.Data.Values.WindSpeed,
		PrecipitationProbability: p.Data.Values.PrecipitationProbability,
	}}, nil
}

// normalizeDaily maps shape B into one canonical record per day entry.
// All-or-nothing: any malformed entry rejects the whole payload to avoid
// persisting a partial window.
func normalizeDaily(p tomorrowio.DailyPayload, loc domain.Location, fetchedAt time.Time) ([]domain.Forecast, error) {
	if len(p.Timelines.Daily) == 0 {
		return nil, fmt.Errorf("%w: daily payload has no entries", domain.ErrUpstream)
	}

	records := make([]domain.Forecast, 0, len(p.Timelines.Daily))
	for _, day := range p.Timelines.Daily {
		start, err := time.Parse(time.RFC3339, day.Time)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed daily timestamp %q", domain.ErrUpstream, day.Time)
		}
		records = append(records, domain.Forecast{
			LocationID:               loc.ID,
			FetchedAt:                fetchedAt,
			StartTime:                start,
			EndTime:                  start.Add(24 * time.Hour),
			Temperature:              day.Values.TemperatureAvg,
			Humidity:                 day.Values.HumidityAvg,
			WindSpeed:                day.Values.WindSpeedAvg,
			PrecipitationProbability: day.Values.PrecipitationProbabilityAvg,
		})
	}

	return records, nil
}

// dedupByDay collapses records covering the same calendar day down to the
// first one seen. Input arrives ordered by fetched_at descending, so the
// survivor for each day is always the freshest fetch.
func dedupByDay(records []domain.Forecast) []domain.Forecast {
	seen := make(map[string]struct{}, len(records))
	var unique []domain.Forecast
	for _, f := range records {
		day := f.StartTime.UTC().Format(time.DateOnly)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		unique = append(unique, f)
	}
	return unique
}

// startOfDay truncates t to midnight in its own location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
