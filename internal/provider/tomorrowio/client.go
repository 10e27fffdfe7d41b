// Package tomorrowio is the HTTP client for the Tomorrow.io weather API.
// It builds provider-specific request parameters, applies the outbound
// resilience stack (request timeout, rate limiter, circuit breaker), and
// decodes the two payload shapes the API returns. Upstream failures are
// wrapped in domain.ErrUpstream and never panic through.
package tomorrowio

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/forecast-planner/backend/internal/domain"
)

const (
	realtimePath = "/v4/weather/realtime"
	forecastPath = "/v4/weather/forecast"

	// requestTimeout bounds a single provider call. Without it a hung
	// upstream would stall the whole pipeline.
	requestTimeout = 10 * time.Second
)

// realtimeFields and dailyFields are the field lists requested per endpoint.
var (
	realtimeFields = []string{"temperature", "humidity", "windSpeed", "precipitationProbability"}
	dailyFields    = []string{"temperatureAvg", "humidityAvg", "windSpeedAvg", "precipitationProbabilityAvg"}
)

// Config carries the constructor parameters for Client.
// It is built once from the application config at startup; the client holds
// no other state and is safe for concurrent use.
type Config struct {
	BaseURL  string
	APIKey   string
	Units    string // "metric" or "imperial"
	Timezone string // e.g. "GMT+3"

	// RPS and Burst bound the outbound request rate. The provider is
	// rate-limited upstream, so we stop ourselves before it stops us.
	RPS   float64
	Burst int

	Logger *slog.Logger
}

// Client talks to the Tomorrow.io API.
type Client struct {
	baseURL  string
	apiKey   string
	units    string
	timezone string

	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	log     *slog.Logger
}

// NewClient constructs a Client from cfg.
// The circuit breaker opens after five consecutive failures and probes again
// after 30 seconds, so a dead upstream stops consuming quota and latency.
func NewClient(cfg Config) *Client {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	rps := cfg.RPS
	if rps <= 0 {
		rps = 3
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "tomorrowio",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("provider circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		units:    cfg.Units,
		timezone: cfg.Timezone,
		http:     &http.Client{Timeout: requestTimeout},
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		breaker:  breaker,
		log:      log,
	}
}

// FetchRealtime requests the current conditions for a location.
func (c *Client) FetchRealtime(ctx context.Context, loc domain.Location) (RealtimePayload, error) {
	params := c.baseParams(loc, realtimeFields)

	var payload RealtimePayload
	if err := c.get(ctx, realtimePath, params, &payload); err != nil {
		return RealtimePayload{}, fmt.Errorf("tomorrowio.Client.FetchRealtime: %w", err)
	}
	return payload, nil
}

// FetchDaily requests a daily forecast covering [start of tomorrow,
// start of tomorrow + days). days must be positive.
func (c *Client) FetchDaily(ctx context.Context, loc domain.Location, days int) (DailyPayload, error) {
	if days <= 0 {
		return DailyPayload{}, fmt.Errorf("tomorrowio.Client.FetchDaily: %w: days must be positive", domain.ErrValidation)
	}

	start := startOfTomorrow(time.Now().UTC())
	params := c.baseParams(loc, dailyFields)
	params.Set("timesteps", "1d")
	params.Set("startTime", start.Format(time.RFC3339))
	params.Set("endTime", start.AddDate(0, 0, days).Format(time.RFC3339))

	var payload DailyPayload
	if err := c.get(ctx, forecastPath, params, &payload); err != nil {
		return DailyPayload{}, fmt.Errorf("tomorrowio.Client.FetchDaily: %w", err)
	}
	return payload, nil
}

// baseParams builds the query parameters common to both endpoints.
func (c *Client) baseParams(loc domain.Location, fields []string) url.Values {
	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("location", loc.Coordinates())
	params.Set("fields", strings.Join(fields, ","))
	params.Set("units", c.units)
	params.Set("timezone", c.timezone)
	return params
}

// get performs one rate-limited, breaker-guarded GET and decodes the JSON
// body into out. All failure modes come back wrapping domain.ErrUpstream so
// the caller can treat them uniformly as "no data available".
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limit wait: %v", domain.ErrUpstream, err)
	}

	u := c.baseURL + path + "?" + params.Encode()

	_, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		c.log.Error("provider request failed", "path", path, "error", err)
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	return nil
}

// startOfTomorrow returns midnight UTC of the day after now.
// Explicit RFC3339 timestamps express the forecast window without relying on
// the provider's relative-time syntax.
func startOfTomorrow(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}
