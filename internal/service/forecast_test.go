package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forecast-planner/backend/internal/domain"
	"github.com/forecast-planner/backend/internal/provider/tomorrowio"
	"github.com/forecast-planner/backend/internal/repo"
	"github.com/forecast-planner/backend/internal/service"
)

// ---- mocks -----------------------------------------------------------------

// mockForecastRepo is a hand-written test double for repo.ForecastRepo.
type mockForecastRepo struct {
	findRealtimeWindow func(ctx context.Context, locationID uuid.UUID, now time.Time) ([]domain.Forecast, error)
	findDailyWindow    func(ctx context.Context, locationID uuid.UUID, from, to time.Time) ([]domain.Forecast, error)
	saveAll            func(ctx context.Context, records []domain.Forecast) ([]domain.Forecast, error)
}

func (m *mockForecastRepo) FindRealtimeWindow(ctx context.Context, locationID uuid.UUID, now time.Time) ([]domain.Forecast, error) {
	return m.findRealtimeWindow(ctx, locationID, now)
}
func (m *mockForecastRepo) FindDailyWindow(ctx context.Context, locationID uuid.UUID, from, to time.Time) ([]domain.Forecast, error) {
	return m.findDailyWindow(ctx, locationID, from, to)
}
func (m *mockForecastRepo) SaveAll(ctx context.Context, records []domain.Forecast) ([]domain.Forecast, error) {
	if m.saveAll != nil {
		return m.saveAll(ctx, records)
	}
	// Default: echo the records back with ids assigned, like the DB would.
	saved := make([]domain.Forecast, len(records))
	for i, f := range records {
		f.ID = uuid.New()
		saved[i] = f
	}
	return saved, nil
}

// compile-time check: mockForecastRepo must satisfy repo.ForecastRepo.
var _ repo.ForecastRepo = (*mockForecastRepo)(nil)

// mockProvider is a hand-written test double for service.WeatherProvider.
type mockProvider struct {
	fetchRealtime func(ctx context.Context, loc domain.Location) (tomorrowio.RealtimePayload, error)
	fetchDaily    func(ctx context.Context, loc domain.Location, days int) (tomorrowio.DailyPayload, error)
}

func (m *mockProvider) FetchRealtime(ctx context.Context, loc domain.Location) (tomorrowio.RealtimePayload, error) {
	return m.fetchRealtime(ctx, loc)
}
func (m *mockProvider) FetchDaily(ctx context.Context, loc domain.Location, days int) (tomorrowio.DailyPayload, error) {
	return m.fetchDaily(ctx, loc, days)
}

var _ service.WeatherProvider = (*mockProvider)(nil)

// ---- helpers ---------------------------------------------------------------

func f64(v float64) *float64 { return &v }

func testLocation() domain.Location {
	return domain.Location{ID: uuid.New(), Name: "nairobi", Latitude: -1.2833, Longitude: 36.8167}
}

// realtimePayload builds shape A with the given timestamp and readings.
func realtimePayload(ts string) tomorrowio.RealtimePayload {
	var p tomorrowio.RealtimePayload
	p.Data.Time = ts
	p.Data.Values = tomorrowio.RealtimeValues{
		Temperature:              f64(26.5),
		Humidity:                 f64(71.0),
		WindSpeed:                f64(4.2),
		PrecipitationProbability: f64(15.0),
	}
	return p
}

// dailyPayload builds shape B with one entry per timestamp.
func dailyPayload(timestamps ...string) tomorrowio.DailyPayload {
	var p tomorrowio.DailyPayload
	for i, ts := range timestamps {
		p.Timelines.Daily = append(p.Timelines.Daily, tomorrowio.DailyEntry{
			Time: ts,
			Values: tomorrowio.DailyValues{
				TemperatureAvg:              f64(20 + float64(i)),
				HumidityAvg:                 f64(55),
				WindSpeedAvg:                f64(3),
				PrecipitationProbabilityAvg: f64(40),
			},
		})
	}
	return p
}

// ---- realtime --------------------------------------------------------------

func TestForecastService_Get_RealtimeCacheHit(t *testing.T) {
	loc := testLocation()
	fresh := domain.Forecast{ID: uuid.New(), LocationID: loc.ID, FetchedAt: time.Now()}
	stale := domain.Forecast{ID: uuid.New(), LocationID: loc.ID, FetchedAt: time.Now().Add(-time.Hour)}

	svc := service.NewForecastService(
		&mockForecastRepo{
			findRealtimeWindow: func(_ context.Context, _ uuid.UUID, _ time.Time) ([]domain.Forecast, error) {
				// Repo contract: ordered by fetched_at descending.
				return []domain.Forecast{fresh, stale}, nil
			},
		},
		&mockProvider{
			fetchRealtime: func(_ context.Context, _ domain.Location) (tomorrowio.RealtimePayload, error) {
				t.Fatal("provider must not be called on a cache hit")
				return tomorrowio.RealtimePayload{}, nil
			},
		},
		nil,
	)

	res := svc.Get(context.Background(), loc, domain.KindRealtime)

	require.NoError(t, res.Err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, fresh.ID, res.Records[0].ID, "the freshest fetch must win")
	assert.Equal(t, domain.SourceCache, res.Source)
}

func TestForecastService_Get_RealtimeMissFetchesAndPersists(t *testing.T) {
	loc := testLocation()
	ts := "2026-09-01T12:00:00Z"
	var saved []domain.Forecast

	svc := service.NewForecastService(
		&mockForecastRepo{
			findRealtimeWindow: func(_ context.Context, _ uuid.UUID, _ time.Time) ([]domain.Forecast, error) {
				return nil, nil
			},
			saveAll: func(_ context.Context, records []domain.Forecast) ([]domain.Forecast, error) {
				saved = records
				out := make([]domain.Forecast, len(records))
				for i, f := range records {
					f.ID = uuid.New()
					out[i] = f
				}
				return out, nil
			},
		},
		&mockProvider{
			fetchRealtime: func(_ context.Context, got domain.Location) (tomorrowio.RealtimePayload, error) {
				assert.Equal(t, loc.ID, got.ID)
				return realtimePayload(ts), nil
			},
		},
		nil,
	)

	res := svc.Get(context.Background(), loc, domain.KindRealtime)

	require.NoError(t, res.Err)
	assert.Equal(t, domain.SourceProvider, res.Source)
	require.Len(t, res.Records, 1)
	require.Len(t, saved, 1, "the fetched record must be persisted")

	record := res.Records[0]
	assert.NotEqual(t, uuid.Nil, record.ID, "persistence assigns the id")
	assert.Equal(t, loc.ID, record.LocationID)

	// Normalization round-trip: values pass through exactly and the
	// validity window is [payload time, payload time + 24h].
	start, err := time.Parse(time.RFC3339, ts)
	require.NoError(t, err)
	assert.True(t, record.StartTime.Equal(start))
	assert.True(t, record.EndTime.Equal(start.Add(24*time.Hour)))
	assert.Equal(t, 26.5, *record.Temperature)
	assert.Equal(t, 71.0, *record.Humidity)
	assert.Equal(t, 4.2, *record.WindSpeed)
	assert.Equal(t, 15.0, *record.PrecipitationProbability)
	assert.False(t, record.FetchedAt.IsZero())
}

// ---- daily -----------------------------------------------------------------

func TestForecastService_Get_DailyDedupKeepsFreshestPerDay(t *testing.T) {
	loc := testLocation()
	day1 := time.Date(2026, 9, 2, 6, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 9, 3, 6, 0, 0, 0, time.UTC)

	newer := domain.Forecast{ID: uuid.New(), StartTime: day1, FetchedAt: time.Now()}
	older := domain.Forecast{ID: uuid.New(), StartTime: day1.Add(2 * time.Hour), FetchedAt: time.Now().Add(-3 * time.Hour)}
	other := domain.Forecast{ID: uuid.New(), StartTime: day2, FetchedAt: time.Now().Add(-time.Hour)}

	svc := service.NewForecastService(
		&mockForecastRepo{
			findDailyWindow: func(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]domain.Forecast, error) {
				// fetched_at descending, as the repo delivers.
				return []domain.Forecast{newer, other, older}, nil
			},
		},
		&mockProvider{},
		nil,
	)

	res := svc.Get(context.Background(), loc, domain.KindFiveDay)

	require.NoError(t, res.Err)
	assert.Equal(t, domain.SourceCache, res.Source)
	require.Len(t, res.Records, 2, "same-day records collapse to one")
	assert.Equal(t, newer.ID, res.Records[0].ID, "the later fetched_at wins for the shared day")
	assert.Equal(t, other.ID, res.Records[1].ID)
}

func TestForecastService_Get_DailyMissFetchesWindow(t *testing.T) {
	loc := testLocation()

	svc := service.NewForecastService(
		&mockForecastRepo{
			findDailyWindow: func(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]domain.Forecast, error) {
				return nil, nil
			},
		},
		&mockProvider{
			fetchDaily: func(_ context.Context, _ domain.Location, days int) (tomorrowio.DailyPayload, error) {
				assert.Equal(t, 5, days)
				return dailyPayload(
					"2026-09-02T00:00:00Z",
					"2026-09-03T00:00:00Z",
					"2026-09-04T00:00:00Z",
					"2026-09-05T00:00:00Z",
					"2026-09-06T00:00:00Z",
				), nil
			},
		},
		nil,
	)

	res := svc.Get(context.Background(), loc, domain.KindFiveDay)

	require.NoError(t, res.Err)
	assert.Equal(t, domain.SourceProvider, res.Source)
	require.Len(t, res.Records, 5)
	for i, record := range res.Records {
		assert.True(t, record.EndTime.Equal(record.StartTime.Add(24*time.Hour)), "record %d window", i)
	}
}

func TestForecastService_Get_OneDayUsesSameWindow(t *testing.T) {
	loc := testLocation()

	svc := service.NewForecastService(
		&mockForecastRepo{
			findDailyWindow: func(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]domain.Forecast, error) {
				return nil, nil
			},
		},
		&mockProvider{
			fetchDaily: func(_ context.Context, _ domain.Location, days int) (tomorrowio.DailyPayload, error) {
				assert.Equal(t, 1, days)
				return dailyPayload("2026-09-02T00:00:00Z"), nil
			},
		},
		nil,
	)

	res := svc.Get(context.Background(), loc, domain.KindOneDay)

	require.NoError(t, res.Err)
	require.Len(t, res.Records, 1)
}

// ---- failure containment ----------------------------------------------------

func TestForecastService_Get_ProviderFailureIsContained(t *testing.T) {
	loc := testLocation()
	saveCalled := false

	svc := service.NewForecastService(
		&mockForecastRepo{
			findRealtimeWindow: func(_ context.Context, _ uuid.UUID, _ time.Time) ([]domain.Forecast, error) {
				return nil, nil
			},
			saveAll: func(_ context.Context, _ []domain.Forecast) ([]domain.Forecast, error) {
				saveCalled = true
				return nil, nil
			},
		},
		&mockProvider{
			fetchRealtime: func(_ context.Context, _ domain.Location) (tomorrowio.RealtimePayload, error) {
				return tomorrowio.RealtimePayload{}, fmt.Errorf("%w: connection refused", domain.ErrUpstream)
			},
		},
		nil,
	)

	res := svc.Get(context.Background(), loc, domain.KindRealtime)

	assert.True(t, res.Empty())
	assert.Equal(t, domain.SourceNone, res.Source)
	assert.ErrorIs(t, res.Err, domain.ErrUpstream)
	assert.False(t, saveCalled, "nothing must be persisted after a failed fetch")
}

func TestForecastService_Get_MalformedPayloadProducesNoRecords(t *testing.T) {
	loc := testLocation()
	saveCalled := false

	svc := service.NewForecastService(
		&mockForecastRepo{
			findDailyWindow: func(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]domain.Forecast, error) {
				return nil, nil
			},
			saveAll: func(_ context.Context, _ []domain.Forecast) ([]domain.Forecast, error) {
				saveCalled = true
				return nil, nil
			},
		},
		&mockProvider{
			fetchDaily: func(_ context.Context, _ domain.Location, _ int) (tomorrowio.DailyPayload, error) {
				return dailyPayload("2026-09-02T00:00:00Z", "not-a-timestamp"), nil
			},
		},
		nil,
	)

	res := svc.Get(context.Background(), loc, domain.KindFiveDay)

	assert.True(t, res.Empty(), "normalization is all-or-nothing")
	assert.ErrorIs(t, res.Err, domain.ErrUpstream)
	assert.False(t, saveCalled)
}

func TestForecastService_Get_LookupFailureIsContained(t *testing.T) {
	loc := testLocation()

	svc := service.NewForecastService(
		&mockForecastRepo{
			findRealtimeWindow: func(_ context.Context, _ uuid.UUID, _ time.Time) ([]domain.Forecast, error) {
				return nil, errors.New("connection reset")
			},
		},
		&mockProvider{},
		nil,
	)

	res := svc.Get(context.Background(), loc, domain.KindRealtime)

	assert.True(t, res.Empty())
	assert.Error(t, res.Err)
}

func TestForecastService_Get_UnknownKind(t *testing.T) {
	svc := service.NewForecastService(&mockForecastRepo{}, &mockProvider{}, nil)

	res := svc.Get(context.Background(), testLocation(), domain.Kind("hourly"))

	assert.True(t, res.Empty())
	assert.ErrorIs(t, res.Err, domain.ErrValidation)
}

// ---- singleflight -----------------------------------------------------------

// Concurrent misses for the same location and kind must share one outbound
// fetch instead of each spending provider quota.
func TestForecastService_Get_ConcurrentMissesShareOneFetch(t *testing.T) {
	loc := testLocation()
	var fetches atomic.Int32

	svc := service.NewForecastService(
		&mockForecastRepo{
			findRealtimeWindow: func(_ context.Context, _ uuid.UUID, _ time.Time) ([]domain.Forecast, error) {
				return nil, nil
			},
		},
		&mockProvider{
			fetchRealtime: func(_ context.Context, _ domain.Location) (tomorrowio.RealtimePayload, error) {
				fetches.Add(1)
				time.Sleep(100 * time.Millisecond) // hold the flight open so callers pile up
				return realtimePayload("2026-09-01T12:00:00Z"), nil
			},
		},
		nil,
	)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]domain.ForecastResult, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = svc.Get(context.Background(), loc, domain.KindRealtime)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), fetches.Load(), "all callers must share a single fetch")
	for i, res := range results {
		require.NoError(t, res.Err, "caller %d", i)
		require.Len(t, res.Records, 1, "caller %d", i)
	}
}
