package risk

import (
	"testing"
	"time"

	"rainwatch/internal/domain/models"
)

var jammu = models.Location{Name: "Jammu", Latitude: 32.73, Longitude: 74.86, AltitudeM: 327}

func forecastTotaling(totalMM float64, days int) models.ForecastResult {
	perDay := totalMM / float64(days)
	points := make([]models.ForecastPoint, days)
	for i := range points {
		points[i] = models.ForecastPoint{
			Date:        time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			PredictedMM: perDay,
			Lower:       perDay / 2,
			Upper:       perDay * 2,
		}
	}
	return models.ForecastResult{Horizon: days, Points: points}
}

func TestScoreOrderedByDistance(t *testing.T) {
	scorer := NewScorer(nil, Options{})

	scored := scorer.Score(jammu, forecastTotaling(10, 7))
	if len(scored) != 2 {
		t.Fatalf("got %d sites, want 2", len(scored))
	}
	for i := 1; i < len(scored); i++ {
		if scored[i].DistanceKM < scored[i-1].DistanceKM {
			t.Fatalf("sites not ordered by distance: %f before %f",
				scored[i-1].DistanceKM, scored[i].DistanceKM)
		}
	}
	if scored[0].Name != "Jammu City" {
		t.Fatalf("nearest site %q, want Jammu City", scored[0].Name)
	}
}

func TestScoreEscalatesOnHeavyRain(t *testing.T) {
	scorer := NewScorer(nil, Options{NearbyRadiusKM: 50, ModerateMM: 40, HighMM: 90})

	scored := scorer.Score(jammu, forecastTotaling(120, 15))
	for _, site := range scored {
		if site.Risk != models.RiskHigh {
			t.Fatalf("site %s risk %s, want high", site.Name, site.Risk)
		}
		if site.ExpectedRainMM != 120 {
			t.Fatalf("site %s expected rain %f, want 120", site.Name, site.ExpectedRainMM)
		}
	}
}

func TestScoreModerateThreshold(t *testing.T) {
	scorer := NewScorer(nil, Options{NearbyRadiusKM: 50, ModerateMM: 40, HighMM: 90})

	scored := scorer.Score(jammu, forecastTotaling(50, 7))
	for _, site := range scored {
		want := site.BaseRisk.Max(models.RiskModerate)
		if site.Risk != want {
			t.Fatalf("site %s risk %s, want %s", site.Name, site.Risk, want)
		}
	}
}

func TestScoreNeverDropsBelowBase(t *testing.T) {
	scorer := NewScorer(nil, Options{NearbyRadiusKM: 50, ModerateMM: 40, HighMM: 90})

	scored := scorer.Score(jammu, forecastTotaling(1, 7))
	for _, site := range scored {
		if site.Risk != site.BaseRisk {
			t.Fatalf("site %s risk %s, want base %s", site.Name, site.Risk, site.BaseRisk)
		}
	}
}

func TestScoreIgnoresDistantSites(t *testing.T) {
	sites := []models.RiskSite{
		{Name: "Far Ridge", Latitude: 34.08, Longitude: 74.80, BaseRisk: models.RiskLow},
	}
	scorer := NewScorer(sites, Options{NearbyRadiusKM: 50, ModerateMM: 40, HighMM: 90})

	scored := scorer.Score(jammu, forecastTotaling(200, 15))
	if scored[0].Risk != models.RiskLow {
		t.Fatalf("distant site escalated to %s", scored[0].Risk)
	}
	if scored[0].DistanceKM <= 50 {
		t.Fatalf("fixture site unexpectedly within radius: %f km", scored[0].DistanceKM)
	}
}
