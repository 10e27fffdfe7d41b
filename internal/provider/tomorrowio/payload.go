package tomorrowio

// The two response shapes the Tomorrow.io API returns are kept as explicit
// tagged types rather than generic maps, so normalization never guesses at
// keys. Every reading is a pointer: the provider may omit any field and an
// absent reading must stay distinguishable from zero.

// RealtimePayload is shape A, returned by /v4/weather/realtime:
// a single object with a timestamp and a flat value set.
type RealtimePayload struct {
	Data struct {
		Time   string         `json:"time"`
		Values RealtimeValues `json:"values"`
	} `json:"data"`
}

// RealtimeValues carries the instantaneous readings of a realtime response.
type RealtimeValues struct {
	Temperature              *float64 `json:"temperature"`
	Humidity                 *float64 `json:"humidity"`
	WindSpeed                *float64 `json:"windSpeed"`
	PrecipitationProbability *float64 `json:"precipitationProbability"`
}

// DailyPayload is shape B, returned by /v4/weather/forecast with
// timesteps=1d: an array of per-day entries with averaged values.
type DailyPayload struct {
	Timelines struct {
		Daily []DailyEntry `json:"daily"`
	} `json:"timelines"`
}

// DailyEntry is one day of a daily forecast timeline.
type DailyEntry struct {
	Time   string      `json:"time"`
	Values DailyValues `json:"values"`
}

// DailyValues carries the day-averaged readings of a daily entry.
type DailyValues struct {
	TemperatureAvg              *float64 `json:"temperatureAvg"`
	HumidityAvg                 *float64 `json:"humidityAvg"`
	WindSpeedAvg                *float64 `json:"windSpeedAvg"`
	PrecipitationProbabilityAvg *float64 `json:"precipitationProbabilityAvg"`
}
