// Package geocode resolves place names to coordinates via the OpenWeatherMap
// direct geocoding API.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/forecast-planner/backend/internal/domain"
)

const directPath = "/geo/1.0/direct"

// Result is one geocoding match: coordinates plus the provider's display
// name and country for the place.
type Result struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Name      string  `json:"name"`
	Country   string  `json:"country"`
}

// Client talks to the OpenWeatherMap geo API. Safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *slog.Logger
}

// NewClient constructs a geocoding client.
func NewClient(baseURL, apiKey string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     logger,
	}
}

// Lookup resolves a city or country name to its best match.
// Returns domain.ErrValidation for an empty name, domain.ErrNotFound when
// the provider has no match, and domain.ErrUpstream for transport failures.
func (c *Client) Lookup(ctx context.Context, name string) (Result, error) {
	if strings.TrimSpace(name) == "" {
		return Result{}, fmt.Errorf("geocode.Client.Lookup: %w: name is required", domain.ErrValidation)
	}

	params := url.Values{}
	params.Set("q", name)
	params.Set("limit", "1")
	params.Set("appid", c.apiKey)

	u := c.baseURL + directPath + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Result{}, fmt.Errorf("geocode.Client.Lookup: %w: %v", domain.ErrUpstream, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("geocode request failed", "name", name, "error", err)
		return Result{}, fmt.Errorf("geocode.Client.Lookup: %w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Error("geocode request failed", "name", name, "status", resp.StatusCode)
		return Result{}, fmt.Errorf("geocode.Client.Lookup: %w: unexpected status %d", domain.ErrUpstream, resp.StatusCode)
	}

	var matches []Result
	if err := json.NewDecoder(resp.Body).Decode(&matches); err != nil {
		return Result{}, fmt.Errorf("geocode.Client.Lookup: %w: decode response: %v", domain.ErrUpstream, err)
	}

	if len(matches) == 0 {
		return Result{}, fmt.Errorf("geocode.Client.Lookup: no coordinates for %q: %w", name, domain.ErrNotFound)
	}

	return matches[0], nil
}
