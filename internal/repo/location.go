// Package repo contains all database access logic for the Forecast Planner API.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here — only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/forecast-planner/backend/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// LocationRepo defines the persistence operations for Locations.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type LocationRepo interface {
	// Create inserts a new location and returns the persisted record with its
	// DB-generated id populated.
	Create(ctx context.Context, loc domain.Location) (domain.Location, error)

	// GetByName retrieves a location by its normalized name.
	// Returns domain.ErrNotFound if no such location exists.
	GetByName(ctx context.Context, name string) (domain.Location, error)

	// GetByCoordinates retrieves a location by its (latitude, longitude) pair.
	// Returns domain.ErrNotFound if no such location exists.
	GetByCoordinates(ctx context.Context, lat, lon float64) (domain.Location, error)
}

// pgLocationRepo is the Postgres implementation of LocationRepo.
type pgLocationRepo struct {
	db db
}

// NewLocationRepo constructs a LocationRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewLocationRepo(db db) LocationRepo {
	return &pgLocationRepo{db: db}
}

// Create inserts a new location row and returns the full persisted record.
func (r *pgLocationRepo) Create(ctx context.Context, loc domain.Location) (domain.Location, error) {
	const q = `
		INSERT INTO locations (name, latitude, longitude, city_name, country, kind)
		VALUES (@name, @latitude, @longitude, @city_name, @country, @kind)
		RETURNING id, name, latitude, longitude, city_name, country, kind`

	args := pgx.NamedArgs{
		"name":      loc.Name,
		"latitude":  loc.Latitude,
		"longitude": loc.Longitude,
		"city_name": loc.CityName,
		"country":   loc.Country,
		"kind":      nullableKind(loc.Kind),
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanLocation(row)
	if err != nil {
		return domain.Location{}, fmt.Errorf("repo.LocationRepo.Create: %w", err)
	}
	return result, nil
}

// GetByName retrieves a location by its normalized name.
func (r *pgLocationRepo) GetByName(ctx context.Context, name string) (domain.Location, error) {
	const q = `
		SELECT id, name, latitude, longitude, city_name, country, kind
		FROM locations
		WHERE name = @name`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"name": name})
	result, err := scanLocation(row)
	if err != nil {
		return domain.Location{}, fmt.Errorf("repo.LocationRepo.GetByName: %w", err)
	}
	return result, nil
}

// GetByCoordinates retrieves a location by exact latitude and longitude.
// The columns are numeric(10,6), so values round-trip exactly at that scale.
func (r *pgLocationRepo) GetByCoordinates(ctx context.Context, lat, lon float64) (domain.Location, error) {
	const q = `
		SELECT id, name, latitude, longitude, city_name, country, kind
		FROM locations
		WHERE latitude = @latitude AND longitude = @longitude`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"latitude": lat, "longitude": lon})
	result, err := scanLocation(row)
	if err != nil {
		return domain.Location{}, fmt.Errorf("repo.LocationRepo.GetByCoordinates: %w", err)
	}
	return result, nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scan
// helpers to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanLocation maps a single database row into a domain.Location.
// It handles the UUID and nullable kind conversions.
func scanLocation(s scanner) (domain.Location, error) {
	var (
		l    domain.Location
		id   pgtype.UUID
		kind pgtype.Text
	)

	err := s.Scan(&id, &l.Name, &l.Latitude, &l.Longitude, &l.CityName, &l.Country, &kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Location{}, domain.ErrNotFound
		}
		return domain.Location{}, err
	}

	l.ID = uuid.UUID(id.Bytes)
	if kind.Valid {
		l.Kind = domain.LocationKind(kind.String)
	}

	return l, nil
}

// nullableKind converts an empty LocationKind to NULL rather than ''.
func nullableKind(k domain.LocationKind) *string {
	if k == "" {
		return nil
	}
	s := string(k)
	return &s
}
