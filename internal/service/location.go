package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/forecast-planner/backend/internal/domain"
	"github.com/forecast-planner/backend/internal/geocode"
	"github.com/forecast-planner/backend/internal/repo"
)

// Geocoder defines the name-to-coordinates operation the location resolver
// depends on. Defined here so tests can inject a fake without any network.
type Geocoder interface {
	Lookup(ctx context.Context, name string) (geocode.Result, error)
}

// LocationService resolves a user-supplied location query — a place name or
// a "lat,long" pair — to a stored Location, creating it on first sight.
// Resolution is idempotent: the same query always maps to the same row.
type LocationService struct {
	locations repo.LocationRepo
	geocoder  Geocoder
	log       *slog.Logger
}

// NewLocationService constructs a LocationService.
func NewLocationService(locations repo.LocationRepo, geocoder Geocoder, logger *slog.Logger) *LocationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocationService{locations: locations, geocoder: geocoder, log: logger}
}

// Resolve returns the Location for query, creating it if absent.
// A query containing a comma is treated as "lat,long"; anything else is a
// place name that is geocoded on a miss.
// Returns domain.ErrValidation for an empty or malformed query and
// domain.ErrNotFound when the geocoder has no match for the name.
func (s *LocationService) Resolve(ctx context.Context, query string) (domain.Location, error) {
	query = domain.NormalizeLocationQuery(query)
	if query == "" {
		return domain.Location{}, fmt.Errorf("service.LocationService.Resolve: %w: location is required", domain.ErrValidation)
	}

	if strings.Contains(query, ",") {
		return s.resolveCoordinates(ctx, query)
	}
	return s.resolveName(ctx, query)
}

// resolveCoordinates finds or creates a location keyed by its coordinates.
// No geocoding is needed: the caller already supplied the position.
func (s *LocationService) resolveCoordinates(ctx context.Context, query string) (domain.Location, error) {
	lat, lon, err := domain.ParseCoordinates(query)
	if err != nil {
		return domain.Location{}, fmt.Errorf("service.LocationService.Resolve: %w", err)
	}

	loc, err := s.locations.GetByCoordinates(ctx, lat, lon)
	if err == nil {
		return loc, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Location{}, fmt.Errorf("service.LocationService.Resolve: %w", err)
	}

	created, err := s.locations.Create(ctx, domain.Location{
		Name:      query,
		Latitude:  lat,
		Longitude: lon,
	})
	if err != nil {
		return domain.Location{}, fmt.Errorf("service.LocationService.Resolve: %w", err)
	}
	s.log.Info("created location", "name", created.Name)
	return created, nil
}

// resolveName finds a location by normalized name, geocoding and creating it
// on a miss.
func (s *LocationService) resolveName(ctx context.Context, name string) (domain.Location, error) {
	loc, err := s.locations.GetByName(ctx, name)
	if err == nil {
		return loc, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Location{}, fmt.Errorf("service.LocationService.Resolve: %w", err)
	}

	match, err := s.geocoder.Lookup(ctx, name)
	if err != nil {
		return domain.Location{}, fmt.Errorf("service.LocationService.Resolve: %w", err)
	}

	created, err := s.locations.Create(ctx, domain.Location{
		Name:      name,
		Latitude:  match.Latitude,
		Longitude: match.Longitude,
		CityName:  match.Name,
		Country:   match.Country,
		Kind:      domain.LocationCity,
	})
	if err != nil {
		return domain.Location{}, fmt.Errorf("service.LocationService.Resolve: %w", err)
	}
	s.log.Info("created location", "name", created.Name, "city", created.CityName, "country", created.Country)
	return created, nil
}
