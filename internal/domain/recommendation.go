package domain

// Category labels form three closed vocabularies. The engine only ever emits
// these values, and Recommend rejects anything outside them so a caller
// cannot smuggle in a label the analyzer did not produce.
const (
	TempCold = "Cold"
	TempCool = "Cool"
	TempMild = "Mild"
	TempWarm = "Warm"
	TempHot  = "Hot"

	LevelLow      = "Low"
	LevelModerate = "Moderate"
	LevelHigh     = "High"
)

// WeatherDescription is the intermediate classification of one reading:
// a label per measured dimension. Produced by Analyze, consumed by
// Recommend, never persisted.
type WeatherDescription struct {
	Temperature   string `json:"temperature"`
	Humidity      string `json:"humidity"`
	Precipitation string `json:"precipitation_probability"`
}

// Recommendation is the engine's final output: a fixed description line,
// the chosen label per dimension, and an ordered list of suggestions.
// Suggestions may repeat (e.g. "Stay hydrated" from both the temperature
// and humidity rules); duplication is accepted, not deduplicated.
type Recommendation struct {
	Description  string             `json:"description"`
	Descriptions WeatherDescription `json:"weather_descriptions"`
	Suggestions  []string           `json:"suggestions"`
}
