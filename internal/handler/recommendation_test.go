package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forecast-planner/backend/internal/domain"
	"github.com/forecast-planner/backend/internal/handler"
	"github.com/forecast-planner/backend/internal/service"
)

// The recommendation endpoint is tested against the real engine rather than a
// mock: the engine is pure and deterministic, so a mock would only restate it.
func newRecommendationHandler() http.Handler {
	engine := service.NewRecommendationService()
	return handler.NewServer(nil, nil, engine, "nairobi").Routes()
}

func postRecommendations(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/recommendations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	newRecommendationHandler().ServeHTTP(rec, req)
	return rec
}

func TestPostRecommendations_200(t *testing.T) {
	rec := postRecommendations(t, `{
		"temperature": 28.70,
		"humidity": 84.40,
		"precipitation_probability": 0.00
	}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.Recommendation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Weather analysis and recommendations", got.Description)
	assert.Equal(t, domain.TempWarm, got.Descriptions.Temperature)
	assert.Equal(t, domain.LevelHigh, got.Descriptions.Humidity)
	assert.Equal(t, domain.LevelLow, got.Descriptions.Precipitation)
	require.NotEmpty(t, got.Suggestions)
	assert.Equal(t, "Suitable for outdoor activities. Have fun outside", got.Suggestions[0],
		"the precipitation rule fires first")
	assert.Contains(t, got.Suggestions, "Stay hydrated")
}

func TestPostRecommendations_MissingField_422(t *testing.T) {
	rec := postRecommendations(t, `{"temperature": 20.0, "humidity": 50.0}`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	code, message := decodeErrorBody(t, rec)
	assert.Equal(t, "validation_error", code)
	assert.Contains(t, message, "required")
}

func TestPostRecommendations_NonNumericReading_422(t *testing.T) {
	// A JSON string where a number is expected fails decoding, same as any
	// other malformed body.
	rec := postRecommendations(t, `{"temperature": "hot", "humidity": 50.0, "precipitation_probability": 10.0}`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	code, _ := decodeErrorBody(t, rec)
	assert.Equal(t, "validation_error", code)
}

func TestPostRecommendations_MalformedBody_422(t *testing.T) {
	rec := postRecommendations(t, `{"temperature": `)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestPostRecommendations_NonFiniteReading_422(t *testing.T) {
	// JSON cannot carry NaN or Infinity literals, so they arrive as malformed
	// bodies; the engine's own guard is exercised in its unit tests.
	rec := postRecommendations(t, `{"temperature": NaN, "humidity": 50.0, "precipitation_probability": 10.0}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
