package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/forecast-planner/backend/internal/domain"
)

// ForecastRepo defines the persistence operations for canonical forecast
// records. Records are never updated or deleted by this API — retention is
// an operational concern handled outside the application.
type ForecastRepo interface {
	// FindRealtimeWindow returns stored records for the location whose
	// validity window sits inside [now, now+24h] — start_time at or after
	// now, end_time at or before now+24h — ordered by fetched_at descending
	// so the first row is always the freshest fetch.
	FindRealtimeWindow(ctx context.Context, locationID uuid.UUID, now time.Time) ([]domain.Forecast, error)

	// FindDailyWindow returns stored records for the location whose
	// start_time falls within [from, to], ordered by fetched_at descending.
	// Several records may cover the same calendar day; deduplication is the
	// service layer's job.
	FindDailyWindow(ctx context.Context, locationID uuid.UUID, from, to time.Time) ([]domain.Forecast, error)

	// SaveAll inserts the records in one batch and returns them with their
	// DB-generated ids populated, in input order.
	SaveAll(ctx context.Context, records []domain.Forecast) ([]domain.Forecast, error)
}

// pgForecastRepo is the Postgres implementation of ForecastRepo.
type pgForecastRepo struct {
	db db
}

// NewForecastRepo constructs a ForecastRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewForecastRepo(db db) ForecastRepo {
	return &pgForecastRepo{db: db}
}

const forecastColumns = `id, location_id, fetched_at, start_time, end_time,
		temperature, humidity, wind_speed, precipitation_probability`

// FindRealtimeWindow returns candidate realtime hits, freshest fetch first.
func (r *pgForecastRepo) FindRealtimeWindow(ctx context.Context, locationID uuid.UUID, now time.Time) ([]domain.Forecast, error) {
	const q = `
		SELECT ` + forecastColumns + `
		FROM weather_forecasts
		WHERE location_id = @location_id
		  AND start_time >= @now
		  AND end_time <= @horizon
		ORDER BY fetched_at DESC`

	args := pgx.NamedArgs{
		"location_id": locationID,
		"now":         now,
		"horizon":     now.Add(24 * time.Hour),
	}

	records, err := r.queryForecasts(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.ForecastRepo.FindRealtimeWindow: %w", err)
	}
	return records, nil
}

// FindDailyWindow returns all records whose start_time falls in [from, to].
func (r *pgForecastRepo) FindDailyWindow(ctx context.Context, locationID uuid.UUID, from, to time.Time) ([]domain.Forecast, error) {
	const q = `
		SELECT ` + forecastColumns + `
		FROM weather_forecasts
		WHERE location_id = @location_id
		  AND start_time >= @from
		  AND start_time <= @to
		ORDER BY fetched_at DESC`

	args := pgx.NamedArgs{
		"location_id": locationID,
		"from":        from,
		"to":          to,
	}

	records, err := r.queryForecasts(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.ForecastRepo.FindDailyWindow: %w", err)
	}
	return records, nil
}

// SaveAll inserts every record in a single pgx batch (one network round trip)
// and scans back the generated ids.
func (r *pgForecastRepo) SaveAll(ctx context.Context, records []domain.Forecast) ([]domain.Forecast, error) {
	if len(records) == 0 {
		return []domain.Forecast{}, nil
	}

	const q = `
		INSERT INTO weather_forecasts
			(location_id, fetched_at, start_time, end_time,
			 temperature, humidity, wind_speed, precipitation_probability)
		VALUES
			(@location_id, @fetched_at, @start_time, @end_time,
			 @temperature, @humidity, @wind_speed, @precipitation_probability)
		RETURNING id`

	batch := &pgx.Batch{}
	for _, f := range records {
		batch.Queue(q, pgx.NamedArgs{
			"location_id":               f.LocationID,
			"fetched_at":                f.FetchedAt,
			"start_time":                f.StartTime,
			"end_time":                  f.EndTime,
			"temperature":               f.Temperature,
			"humidity":                  f.Humidity,
			"wind_speed":                f.WindSpeed,
			"precipitation_probability": f.PrecipitationProbability,
		})
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	saved := make([]domain.Forecast, len(records))
	for i, f := range records {
		var id pgtype.UUID
		if err := results.QueryRow().Scan(&id); err != nil {
			return nil, fmt.Errorf("repo.ForecastRepo.SaveAll: record %d: %w", i, err)
		}
		f.ID = uuid.UUID(id.Bytes)
		saved[i] = f
	}

	return saved, nil
}

// queryForecasts runs a SELECT returning forecast rows and maps them.
func (r *pgForecastRepo) queryForecasts(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.Forecast, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.Forecast
	for rows.Next() {
		f, err := scanForecast(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		records = append(records, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return records, nil
}

// scanForecast maps a single database row into a domain.Forecast.
// The four readings are nullable numeric columns and scan into *float64.
func scanForecast(s scanner) (domain.Forecast, error) {
	var (
		f     domain.Forecast
		id    pgtype.UUID
		locID pgtype.UUID
	)

	err := s.Scan(&id, &locID, &f.FetchedAt, &f.StartTime, &f.EndTime,
		&f.Temperature, &f.Humidity, &f.WindSpeed, &f.PrecipitationProbability)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Forecast{}, domain.ErrNotFound
		}
		return domain.Forecast{}, err
	}

	f.ID = uuid.UUID(id.Bytes)
	f.LocationID = uuid.UUID(locID.Bytes)

	return f, nil
}
