// Package service contains the business logic for the Forecast Planner API.
// Services validate inputs, enforce business rules, and orchestrate repo and
// provider calls. No SQL or HTTP lives here — services depend on interfaces.
package service

import (
	"fmt"
	"math"

	"github.com/forecast-planner/backend/internal/domain"
)

// RecommendationService classifies canonical weather readings into category
// labels and derives actionable suggestions from them. It is pure and
// stateless: safe for unlimited concurrent use with no synchronization.
type RecommendationService struct{}

// NewRecommendationService constructs a RecommendationService.
func NewRecommendationService() *RecommendationService {
	return &RecommendationService{}
}

// categoryBound is one half-open interval (lo, hi] with its label.
// A value v matches when lo < v <= hi. The first and last intervals run to
// ±Inf, so every finite value lands in exactly one category.
type categoryBound struct {
	label  string
	lo, hi float64
}

var temperatureCategories = []categoryBound{
	{domain.TempCold, math.Inf(-1), 10},
	{domain.TempCool, 10, 20},
	{domain.TempMild, 20, 25},
	{domain.TempWarm, 25, 30},
	{domain.TempHot, 30, math.Inf(1)},
}

// humidity and precipitation probability share the same percentage scale.
var levelCategories = []categoryBound{
	{domain.LevelLow, math.Inf(-1), 30},
	{domain.LevelModerate, 30, 60},
	{domain.LevelHigh, 60, math.Inf(1)},
}

// Analyze classifies the three readings into their category labels.
// Returns domain.ErrValidation when a reading is NaN or infinite — the Go
// equivalent of the non-numeric inputs the contract rejects.
func (s *RecommendationService) Analyze(temperature, humidity, precipitationProbability float64) (domain.WeatherDescription, error) {
	for name, v := range map[string]float64{
		"temperature":               temperature,
		"humidity":                  humidity,
		"precipitation probability": precipitationProbability,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return domain.WeatherDescription{}, fmt.Errorf("%w: %s must be a number", domain.ErrValidation, name)
		}
	}

	return domain.WeatherDescription{
		Temperature:   categorize(temperature, temperatureCategories),
		Humidity:      categorize(humidity, levelCategories),
		Precipitation: categorize(precipitationProbability, levelCategories),
	}, nil
}

// Recommend derives the ordered suggestion list for a classified reading.
// Returns domain.ErrValidation when a label is outside its vocabulary, which
// guards against callers passing labels Analyze did not produce.
func (s *RecommendationService) Recommend(desc domain.WeatherDescription) (domain.Recommendation, error) {
	if !validLabel(desc.Temperature, temperatureCategories) {
		return domain.Recommendation{}, fmt.Errorf("%w: invalid temperature category %q", domain.ErrValidation, desc.Temperature)
	}
	if !validLabel(desc.Humidity, levelCategories) {
		return domain.Recommendation{}, fmt.Errorf("%w: invalid humidity category %q", domain.ErrValidation, desc.Humidity)
	}
	if !validLabel(desc.Precipitation, levelCategories) {
		return domain.Recommendation{}, fmt.Errorf("%w: invalid precipitation category %q", domain.ErrValidation, desc.Precipitation)
	}

	return domain.Recommendation{
		Description:  "Weather analysis and recommendations",
		Descriptions: desc,
		Suggestions:  suggestions(desc),
	}, nil
}

// suggestions applies the rules in their fixed order: precipitation, then
// temperature, then humidity. "Stay hydrated" may appear twice (Hot + High
// humidity); the duplication is deliberate.
func suggestions(desc domain.WeatherDescription) []string {
	var out []string

	if desc.Precipitation == domain.LevelHigh {
		out = append(out, "May opt for indoor activities, if not, remember to carry an umbrella")
	} else {
		out = append(out, "Suitable for outdoor activities. Have fun outside")
	}

	switch desc.Temperature {
	case domain.TempHot:
		out = append(out, "Wear lightweight and breathable clothing", "Stay hydrated")
	case domain.TempWarm:
		out = append(out, "Comfortable, casual clothing")
	case domain.TempMild, domain.TempCool:
		out = append(out, "Light jacket or sweater")
	default:
		out = append(out, "Warm jacket, hat, and gloves")
	}

	if desc.Humidity == domain.LevelHigh {
		out = append(out, "Stay hydrated")
	}

	return out
}

// categorize returns the label of the interval containing v.
// The ±Inf endpoints make a miss impossible for finite v; the empty-string
// fallback exists only to keep the loop total.
func categorize(v float64, categories []categoryBound) string {
	for _, c := range categories {
		if c.lo < v && v <= c.hi {
			return c.label
		}
	}
	return ""
}

// validLabel reports whether label appears in the category table.
func validLabel(label string, categories []categoryBound) bool {
	for _, c := range categories {
		if c.label == label {
			return true
		}
	}
	return false
}
