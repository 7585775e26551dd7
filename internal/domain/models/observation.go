package models

import "time"

// Observation is a single timestamped weather reading. Rainfall and
// temperature are pointers because providers report gaps as nulls and a
// missing value must stay distinguishable from zero.
type Observation struct {
	Timestamp    time.Time `json:"timestamp"`
	RainfallMM   *float64  `json:"rainfall_mm,omitempty"`
	TemperatureC *float64  `json:"temperature_c,omitempty"`
}

// HistoricalSeries is an ordered daily observation sequence, ascending by
// timestamp. Gaps are tolerated; no point, the series as a whole, is ever
// mutated after it is returned to a caller.
type HistoricalSeries []Observation

// LastDate returns the timestamp of the final observation.
func (s HistoricalSeries) LastDate() (time.Time, bool) {
	if len(s) == 0 {
		return time.Time{}, false
	}
	return s[len(s)-1].Timestamp, true
}

// RainfallCount reports how many points carry a rainfall value. The forecast
// minimum-history threshold is checked against this, not len(s).
func (s HistoricalSeries) RainfallCount() int {
	n := 0
	for _, o := range s {
		if o.RainfallMM != nil {
			n++
		}
	}
	return n
}

// Location identifies the fixed geographic point all series refer to.
type Location struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	AltitudeM float64 `json:"altitude_m"`
}
