package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. non-numeric reading, unknown category label).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrUpstream is returned when the external weather provider (or geocoder)
// could not be reached, answered non-2xx, or timed out. The pipeline
// contains it and reports it through ForecastResult.Err; handlers that see
// it directly should map it to HTTP 502.
var ErrUpstream = errors.New("upstream error")
