// Package domain contains the core data types for the Forecast Planner API.
// This package has zero external dependencies beyond uuid and is imported by
// every other internal package (repo, service, handler).
package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// LocationKind distinguishes the granularity of a resolved location.
type LocationKind string

const (
	LocationCity    LocationKind = "city"
	LocationCountry LocationKind = "country"
)

// Location is a place for which forecasts are stored.
// A location is uniquely identified by either its normalized Name or its
// (Latitude, Longitude) pair — never both at once. It is created by the
// location resolver and immutable afterwards.
type Location struct {
	ID        uuid.UUID    `json:"id"`
	Name      string       `json:"name"` // normalized: trimmed, lower-cased
	Latitude  float64      `json:"latitude"`
	Longitude float64      `json:"longitude"`
	CityName  string       `json:"city_name,omitempty"`
	Country   string       `json:"country,omitempty"`
	Kind      LocationKind `json:"kind,omitempty"`
}

// Coordinates renders the "lat,lon" composite key the weather provider expects.
func (l Location) Coordinates() string {
	return fmt.Sprintf("%s,%s",
		strconv.FormatFloat(l.Latitude, 'f', -1, 64),
		strconv.FormatFloat(l.Longitude, 'f', -1, 64))
}

// NormalizeLocationQuery canonicalizes a user-supplied location query so that
// "Nairobi " and "nairobi" resolve to the same stored location.
func NormalizeLocationQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// ParseCoordinates splits a "lat,long" query into its numeric parts.
// Returns ErrValidation when the string is not two decimal numbers or the
// values fall outside the valid latitude/longitude ranges.
func ParseCoordinates(q string) (lat, lon float64, err error) {
	parts := strings.SplitN(q, ",", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: coordinates must be \"lat,long\"", ErrValidation)
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: invalid latitude %q", ErrValidation, parts[0])
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: invalid longitude %q", ErrValidation, parts[1])
	}
	if lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("%w: latitude %v out of range", ErrValidation, lat)
	}
	if lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("%w: longitude %v out of range", ErrValidation, lon)
	}
	return lat, lon, nil
}
