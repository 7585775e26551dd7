package service

import (
	"context"

	"rainwatch/internal/domain/models"
	"rainwatch/internal/domain/repository"
)

// Forecaster fits a model to a historical rainfall series and produces point
// forecasts with uncertainty bounds. Implementations must be deterministic:
// identical series and horizon yield identical results within a run.
type Forecaster interface {
	Predict(ctx context.Context, series models.HistoricalSeries, h repository.Horizon) (models.ForecastResult, error)
}

// RiskScorer re-scores hotspot sites against a rainfall forecast.
type RiskScorer interface {
	Score(loc models.Location, forecast models.ForecastResult) []models.ScoredSite
}
