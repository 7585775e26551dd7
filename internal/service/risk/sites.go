package risk

import "rainwatch/internal/domain/models"

// DefaultSites are the hotspot sites used when none are configured.
func DefaultSites() []models.RiskSite {
	return []models.RiskSite{
		{Name: "Nagrota", Latitude: 32.78, Longitude: 74.92, BaseRisk: models.RiskHigh},
		{Name: "Jammu City", Latitude: 32.75, Longitude: 74.88, BaseRisk: models.RiskModerate},
	}
}
