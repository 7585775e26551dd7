package usecase

import (
	"context"
	"fmt"

	"rainwatch/internal/domain/models"
	drepo "rainwatch/internal/domain/repository"
	"rainwatch/pkg/logger"
)

// BackendType selects where collected observations go.
type BackendType string

const (
	BackendKafka      BackendType = "kafka"
	BackendClickHouse BackendType = "clickhouse"
)

// ObservationProcessor routes collected observations to the configured
// backend: a Kafka topic for pipelined archival or the archive directly.
type ObservationProcessor struct {
	backend   BackendType
	publisher drepo.ObservationPublisher
	archive   drepo.ObservationArchive
	metrics   drepo.Metrics
	log       *logger.Logger
}

// NewObservationProcessor validates that the chosen backend has its sink
// wired before accepting observations.
func NewObservationProcessor(
	backend BackendType,
	publisher drepo.ObservationPublisher,
	archive drepo.ObservationArchive,
	metrics drepo.Metrics,
	log *logger.Logger,
) (*ObservationProcessor, error) {
	switch backend {
	case BackendKafka:
		if publisher == nil {
			return nil, fmt.Errorf("kafka backend selected but no publisher configured")
		}
	case BackendClickHouse:
		if archive == nil {
			return nil, fmt.Errorf("clickhouse backend selected but no archive configured")
		}
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
	return &ObservationProcessor{
		backend:   backend,
		publisher: publisher,
		archive:   archive,
		metrics:   metrics,
		log:       log,
	}, nil
}

// Process routes one observation.
func (p *ObservationProcessor) Process(ctx context.Context, o *models.Observation) error {
	var err error
	switch p.backend {
	case BackendKafka:
		err = p.publisher.Publish(ctx, o)
	case BackendClickHouse:
		err = p.archive.Store(ctx, o)
	}
	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process observation via %s: %w", p.backend, err)
	}
	p.metrics.RecordFetch(string(p.backend), "stored")
	return nil
}

// ProcessBatch routes a batch through the backend's batched path.
func (p *ObservationProcessor) ProcessBatch(ctx context.Context, obs []*models.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	var err error
	switch p.backend {
	case BackendKafka:
		err = p.publisher.PublishBatch(ctx, obs)
	case BackendClickHouse:
		err = p.archive.StoreBatch(ctx, obs)
	}
	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process %d observations via %s: %w", len(obs), p.backend, err)
	}
	p.log.Debug("observation batch processed",
		logger.Int("count", len(obs)), logger.String("backend", string(p.backend)))
	return nil
}

// Close releases the backend sink owned by the processor. The archive is
// shared with the read path and closed by its owner, not here.
func (p *ObservationProcessor) Close() error {
	if p.backend == BackendKafka && p.publisher != nil {
		return p.publisher.Close()
	}
	return nil
}
