package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/forecast-planner/backend/internal/domain"
)

// GetCurrentWeather handles GET /v1/weather/current.
// Query params: location (name or "lat,long"), or lat + lon; neither falls
// back to the configured default location. Responds with the single
// realtime forecast record.
func (s *Server) GetCurrentWeather(w http.ResponseWriter, r *http.Request) {
	loc, ok := s.resolveLocation(w, r)
	if !ok {
		return
	}

	res := s.forecasts.Get(r.Context(), loc, domain.KindRealtime)
	if !s.writeResultErrors(w, res) {
		return
	}
	writeJSON(w, http.StatusOK, res.Records[0])
}

// GetFiveDayWeather handles GET /v1/weather/five-day.
// Responds with one record per calendar day, freshest fetch per day.
func (s *Server) GetFiveDayWeather(w http.ResponseWriter, r *http.Request) {
	loc, ok := s.resolveLocation(w, r)
	if !ok {
		return
	}

	res := s.forecasts.Get(r.Context(), loc, domain.KindFiveDay)
	if !s.writeResultErrors(w, res) {
		return
	}
	writeJSON(w, http.StatusOK, res.Records)
}

// GetDayWeather handles GET /v1/weather/day?day=YYYY-MM-DD.
// The day must fall within [today, today+5d]; the record is picked out of
// the five-day window by the calendar date of its start time.
func (s *Server) GetDayWeather(w http.ResponseWriter, r *http.Request) {
	day, err := time.Parse(time.DateOnly, r.URL.Query().Get("day"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "day must be a YYYY-MM-DD date")
		return
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	if day.Before(today) || day.After(today.AddDate(0, 0, 5)) {
		writeError(w, http.StatusNotFound, "not_found", "weather forecast not available for the day")
		return
	}

	loc, ok := s.resolveLocation(w, r)
	if !ok {
		return
	}

	res := s.forecasts.Get(r.Context(), loc, domain.KindFiveDay)
	if !s.writeResultErrors(w, res) {
		return
	}

	wanted := day.Format(time.DateOnly)
	for _, record := range res.Records {
		if record.StartTime.UTC().Format(time.DateOnly) == wanted {
			writeJSON(w, http.StatusOK, record)
			return
		}
	}
	writeError(w, http.StatusNotFound, "not_found", "weather forecast not available for the day")
}

// resolveLocation extracts the location from the request and resolves it.
// On failure it writes the error response and returns ok=false.
func (s *Server) resolveLocation(w http.ResponseWriter, r *http.Request) (domain.Location, bool) {
	q := r.URL.Query()

	query := q.Get("location")
	if query == "" {
		if lat, lon := q.Get("lat"), q.Get("lon"); lat != "" && lon != "" {
			query = fmt.Sprintf("%s,%s", lat, lon)
		}
	}
	if query == "" {
		query = s.defaultLocation
	}

	loc, err := s.locations.Resolve(r.Context(), query)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			writeError(w, http.StatusUnprocessableEntity, "validation_error", validationMessage(err))
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", "location not found")
		case errors.Is(err, domain.ErrUpstream):
			writeError(w, http.StatusBadGateway, "upstream_error", "location lookup is temporarily unavailable")
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", "could not resolve location")
		}
		return domain.Location{}, false
	}
	return loc, true
}

// writeResultErrors maps a failed or empty pipeline result to its response.
// Returns true when the result carries records and the caller should render
// them.
func (s *Server) writeResultErrors(w http.ResponseWriter, res domain.ForecastResult) bool {
	if res.Err != nil {
		if errors.Is(res.Err, domain.ErrUpstream) {
			writeError(w, http.StatusBadGateway, "upstream_error", "weather provider is temporarily unavailable")
		} else {
			writeError(w, http.StatusInternalServerError, "internal_error", "could not retrieve forecast")
		}
		return false
	}
	if res.Empty() {
		writeError(w, http.StatusNotFound, "not_found", "no forecast available")
		return false
	}
	return true
}
