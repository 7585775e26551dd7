package models

import "time"

// ForecastPoint is one forecast day. Lower <= PredictedMM <= Upper holds for
// every point a generator returns.
type ForecastPoint struct {
	Date        time.Time `json:"date"`
	PredictedMM float64   `json:"predicted_rainfall_mm"`
	Lower       float64   `json:"lower_bound"`
	Upper       float64   `json:"upper_bound"`
}

// ForecastResult covers exactly Horizon consecutive calendar days following
// the last date of the series it was fitted on. Results are regenerated, not
// mutated, when the underlying series or horizon changes.
type ForecastResult struct {
	Horizon     int             `json:"horizon"`
	TrainedOn   int             `json:"trained_on"`
	GeneratedAt time.Time       `json:"generated_at"`
	Model       string          `json:"model"`
	Points      []ForecastPoint `json:"points"`
}
