package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/forecast-planner/backend/internal/domain"
)

// recommendationRequest is the body of POST /v1/recommendations.
// The readings are pointers so a missing field is distinguishable from a
// literal zero; a non-numeric JSON value fails decoding outright.
type recommendationRequest struct {
	Temperature              *float64 `json:"temperature"`
	Humidity                 *float64 `json:"humidity"`
	PrecipitationProbability *float64 `json:"precipitation_probability"`
}

// PostRecommendations handles POST /v1/recommendations.
// It classifies the submitted readings and returns the derived suggestions.
func (s *Server) PostRecommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "temperature, humidity and precipitation_probability must be numbers")
		return
	}
	if req.Temperature == nil || req.Humidity == nil || req.PrecipitationProbability == nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "temperature, humidity and precipitation_probability are required")
		return
	}

	desc, err := s.recommender.Analyze(*req.Temperature, *req.Humidity, *req.PrecipitationProbability)
	if err != nil {
		writeRecommendError(w, err)
		return
	}

	rec, err := s.recommender.Recommend(desc)
	if err != nil {
		writeRecommendError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// writeRecommendError maps engine errors to their HTTP responses.
func writeRecommendError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrValidation) {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", validationMessage(err))
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", "could not generate a recommendation")
}
