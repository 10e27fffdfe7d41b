package domain

import (
	"time"

	"github.com/google/uuid"
)

// Kind selects which forecast window a caller wants.
// The string values double as the wire vocabulary for forecast lookups.
type Kind string

const (
	KindRealtime Kind = "realtime"
	KindOneDay   Kind = "1d"
	KindFiveDay  Kind = "5d"
)

// Days returns the length of the daily window requested by k.
// Realtime has no daily window and returns 0.
func (k Kind) Days() int {
	switch k {
	case KindOneDay:
		return 1
	case KindFiveDay:
		return 5
	}
	return 0
}

// Forecast is the canonical forecast record: one location's normalized
// weather reading for one validity window. Created by the pipeline from a
// provider payload or reconstructed from storage; immutable after creation
// except for the ID assigned on persistence.
//
// StartTime must precede EndTime. EndTime is the freshness boundary for
// realtime lookups; StartTime's calendar date is the dedup key for daily
// lookups. The four readings are pointers because the provider may omit any
// of them and the columns are nullable.
type Forecast struct {
	ID         uuid.UUID `json:"id"`
	LocationID uuid.UUID `json:"location_id"`
	FetchedAt  time.Time `json:"date_time"` // when this record was produced
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`

	Temperature              *float64 `json:"temperature,omitempty"`
	Humidity                 *float64 `json:"humidity,omitempty"`
	WindSpeed                *float64 `json:"wind_speed,omitempty"`
	PrecipitationProbability *float64 `json:"precipitation_probability,omitempty"`
}

// ForecastSource records where a pipeline result came from.
type ForecastSource string

const (
	// SourceCache means the records were served from storage.
	SourceCache ForecastSource = "cache"
	// SourceProvider means the records were fetched upstream on a cache miss.
	SourceProvider ForecastSource = "provider"
	// SourceNone means no records are available; Err says why, if known.
	SourceNone ForecastSource = "none"
)

// ForecastResult is the pipeline's answer to a lookup. It keeps "nothing
// stored and the fetch produced nothing" distinguishable from "the upstream
// call failed": Source is SourceNone in both, Err is non-nil only in the
// latter.
type ForecastResult struct {
	Records []Forecast
	Source  ForecastSource
	Err     error
}

// Empty reports whether the result carries no records.
func (r ForecastResult) Empty() bool {
	return len(r.Records) == 0
}
