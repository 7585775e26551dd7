package models

// RiskLevel classifies a hotspot site.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

// rank orders levels for escalation.
func (r RiskLevel) rank() int {
	switch r {
	case RiskHigh:
		return 2
	case RiskModerate:
		return 1
	default:
		return 0
	}
}

// Max returns the higher of two levels.
func (r RiskLevel) Max(other RiskLevel) RiskLevel {
	if other.rank() > r.rank() {
		return other
	}
	return r
}

// RiskSite is a known landslide/cloudburst hotspot.
type RiskSite struct {
	Name      string    `json:"name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	BaseRisk  RiskLevel `json:"base_risk"`
}

// ScoredSite is a hotspot re-scored against the current rainfall forecast.
type ScoredSite struct {
	RiskSite
	Risk           RiskLevel `json:"risk"`
	DistanceKM     float64   `json:"distance_km"`
	ExpectedRainMM float64   `json:"expected_rain_mm"`
}
