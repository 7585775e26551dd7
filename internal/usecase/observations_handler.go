package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rainwatch/internal/domain/models"
	drepo "rainwatch/internal/domain/repository"
	"rainwatch/pkg/logger"
)

// ObservationsHandler consumes observation messages from Kafka and
// lands them in the archive. It implements the consumer's handler
// contract.
type ObservationsHandler struct {
	topic   string
	archive drepo.ObservationArchive
	metrics drepo.Metrics
	log     *logger.Logger
}

// NewObservationsHandler builds the handler for the given topic.
func NewObservationsHandler(topic string, archive drepo.ObservationArchive, metrics drepo.Metrics, log *logger.Logger) *ObservationsHandler {
	if topic == "" {
		topic = "observations"
	}
	return &ObservationsHandler{topic: topic, archive: archive, metrics: metrics, log: log}
}

// Topic returns the consumed topic name.
func (h *ObservationsHandler) Topic() string { return h.topic }

// Handle decodes and archives one observation message. A decode failure
// is permanent and reported without retry value; a store failure is
// returned so the consumer's retry policy applies.
func (h *ObservationsHandler) Handle(ctx context.Context, value []byte) error {
	var obs models.Observation
	if err := json.Unmarshal(value, &obs); err != nil {
		h.metrics.RecordError("decode")
		return fmt.Errorf("decode observation: %w", err)
	}
	if obs.Timestamp.IsZero() {
		h.metrics.RecordError("decode")
		return fmt.Errorf("observation missing timestamp")
	}

	began := time.Now()
	if err := h.archive.Store(ctx, &obs); err != nil {
		h.metrics.RecordError("ingest")
		return fmt.Errorf("archive observation: %w", err)
	}
	h.metrics.RecordLatency("ingest", time.Since(began).Seconds())
	h.log.Debug("observation ingested", logger.Time("observed_at", obs.Timestamp))
	return nil
}
