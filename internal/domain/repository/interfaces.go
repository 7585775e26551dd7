package repository

import (
	"context"
	"time"

	"rainwatch/internal/domain/models"
)

// HistoryProvider reads archival daily observations for a point. The range is
// validated (start <= end, within max lookback) before any network call; on
// partial availability the provider returns the points it has.
type HistoryProvider interface {
	Daily(ctx context.Context, loc models.Location, start, end time.Time) (models.HistoricalSeries, error)
}

// LiveProvider reads the current-moment conditions for a point. Each call is
// independent; caching is the caller's policy, not the provider's.
type LiveProvider interface {
	Current(ctx context.Context, loc models.Location) (models.LiveConditions, error)
}

// ObservationArchive is the local observation store. It backs the collection
// pipeline and serves as the history fallback when the upstream provider is
// down.
type ObservationArchive interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, o *models.Observation) error
	StoreBatch(ctx context.Context, obs []*models.Observation) error
	Query(ctx context.Context, from, to time.Time) (models.HistoricalSeries, error)
	Health(ctx context.Context) error
	Close() error
}

// ObservationPublisher pushes collected observations to a message backend.
type ObservationPublisher interface {
	Publish(ctx context.Context, o *models.Observation) error
	PublishBatch(ctx context.Context, obs []*models.Observation) error
	Close() error
}

type Metrics interface {
	RecordFetch(provider, result string)
	RecordError(kind string)
	RecordLive(tempC, rainMM float64)
	RecordLatency(op string, seconds float64)
	RecordCacheLookup(key string, hit bool)
}
