package models

import "time"

// LiveConditions is the current-moment reading from the real-time provider.
// Replaced wholesale on each refresh; FetchedAt and Cached make the age of a
// cached copy observable to the presentation layer.
type LiveConditions struct {
	ObservedAt   time.Time `json:"observed_at"`
	TemperatureC float64   `json:"temperature_c"`
	RainfallMM   float64   `json:"rainfall_mm"`
	HumidityPct  float64   `json:"humidity_pct"`
	WindSpeedMS  float64   `json:"wind_speed_ms"`
	Description  string    `json:"description"`

	FetchedAt time.Time `json:"fetched_at"`
	Cached    bool      `json:"cached"`
}

// Age reports how long ago the conditions were fetched from the provider.
func (l LiveConditions) Age(now time.Time) time.Duration {
	if l.FetchedAt.IsZero() {
		return 0
	}
	return now.Sub(l.FetchedAt)
}

// AsObservation converts a live reading into an archivable observation.
func (l LiveConditions) AsObservation() Observation {
	rain := l.RainfallMM
	temp := l.TemperatureC
	return Observation{
		Timestamp:    l.ObservedAt,
		RainfallMM:   &rain,
		TemperatureC: &temp,
	}
}
