package risk

import (
	"sort"

	"github.com/umahmood/haversine"

	"rainwatch/internal/domain/models"
)

// Options set the escalation thresholds for the scorer.
type Options struct {
	// NearbyRadiusKM bounds the distance within which forecast
	// rainfall escalates a site's risk level.
	NearbyRadiusKM float64

	// ModerateMM and HighMM are cumulative forecast rainfall thresholds
	// in millimetres over the forecast window.
	ModerateMM float64
	HighMM     float64
}

// Scorer re-scores hotspot sites against a rainfall forecast. A site's
// risk only ever escalates from its base level, never drops below it.
type Scorer struct {
	sites []models.RiskSite
	opts  Options
}

// NewScorer builds a Scorer over the given sites. Unset options fall
// back to workable defaults.
func NewScorer(sites []models.RiskSite, opts Options) *Scorer {
	if len(sites) == 0 {
		sites = DefaultSites()
	}
	if opts.NearbyRadiusKM <= 0 {
		opts.NearbyRadiusKM = 50
	}
	if opts.ModerateMM <= 0 {
		opts.ModerateMM = 40
	}
	if opts.HighMM <= opts.ModerateMM {
		opts.HighMM = opts.ModerateMM + 50
	}
	return &Scorer{sites: sites, opts: opts}
}

// Score computes the forecast-adjusted risk for every known site,
// ordered by distance from loc.
func (s *Scorer) Score(loc models.Location, forecast models.ForecastResult) []models.ScoredSite {
	var expected float64
	for _, p := range forecast.Points {
		expected += p.PredictedMM
	}

	escalation := models.RiskLow
	switch {
	case expected >= s.opts.HighMM:
		escalation = models.RiskHigh
	case expected >= s.opts.ModerateMM:
		escalation = models.RiskModerate
	}

	origin := haversine.Coord{Lat: loc.Latitude, Lon: loc.Longitude}
	scored := make([]models.ScoredSite, 0, len(s.sites))
	for _, site := range s.sites {
		_, km := haversine.Distance(origin, haversine.Coord{Lat: site.Latitude, Lon: site.Longitude})

		level := site.BaseRisk
		if km <= s.opts.NearbyRadiusKM {
			level = level.Max(escalation)
		}

		scored = append(scored, models.ScoredSite{
			RiskSite:       site,
			Risk:           level,
			DistanceKM:     km,
			ExpectedRainMM: expected,
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].DistanceKM < scored[j].DistanceKM
	})
	return scored
}
