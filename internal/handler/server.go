// Package handler implements the HTTP handlers for the Forecast Planner API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, weather.go, recommendation.go) but all share the same
// Server struct so they can access its dependencies.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/forecast-planner/backend/internal/domain"
	"github.com/forecast-planner/backend/spec"
)

// LocationResolver defines the location operations the handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type LocationResolver interface {
	Resolve(ctx context.Context, query string) (domain.Location, error)
}

// ForecastPipeline defines the cache-or-fetch operation the weather
// handlers depend on.
type ForecastPipeline interface {
	Get(ctx context.Context, loc domain.Location, kind domain.Kind) domain.ForecastResult
}

// Recommender defines the analyze/recommend pair the recommendation
// handler depends on.
type Recommender interface {
	Analyze(temperature, humidity, precipitationProbability float64) (domain.WeatherDescription, error)
	Recommend(desc domain.WeatherDescription) (domain.Recommendation, error)
}

// Server holds the dependencies for all API endpoints.
// Methods are in domain-specific files but all operate on this struct.
type Server struct {
	locations       LocationResolver
	forecasts       ForecastPipeline
	recommender     Recommender
	defaultLocation string
}

// NewServer constructs the Server with all its dependencies.
// defaultLocation is used when a weather request names no location at all.
func NewServer(locations LocationResolver, forecasts ForecastPipeline, recommender Recommender, defaultLocation string) *Server {
	return &Server{
		locations:       locations,
		forecasts:       forecasts,
		recommender:     recommender,
		defaultLocation: defaultLocation,
	}
}

// NewHealthHandler returns a Server for health-check-only use.
// Keeps handler tests that only exercise /healthz free of mock wiring.
func NewHealthHandler() *Server {
	return NewServer(nil, nil, nil, "")
}

// Routes registers every endpoint on a fresh chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/weather/current", s.GetCurrentWeather)
		r.Get("/weather/five-day", s.GetFiveDayWeather)
		r.Get("/weather/day", s.GetDayWeather)
		r.Post("/recommendations", s.PostRecommendations)
	})

	return r
}

// GetOpenAPI handles GET /openapi.yaml.
// Serving the embedded spec from the binary keeps the document and the
// running code in sync.
func (s *Server) GetOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(spec.OpenAPI)
}
