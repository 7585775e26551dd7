package repository

import (
	"context"
	"fmt"

	"rainwatch/internal/domain/models"
	"rainwatch/pkg/kafka"
	"rainwatch/pkg/logger"
)

// KafkaPublisher pushes collected observations onto a Kafka topic for
// downstream archival.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
	log      *logger.Logger
}

// NewKafkaPublisher wraps an existing producer.
func NewKafkaPublisher(producer *kafka.Producer, topic string, log *logger.Logger) *KafkaPublisher {
	if topic == "" {
		topic = "observations"
	}
	return &KafkaPublisher{producer: producer, topic: topic, log: log}
}

// Publish sends one observation. The message key is the observation
// timestamp so duplicate collections land in the same partition.
func (p *KafkaPublisher) Publish(ctx context.Context, o *models.Observation) error {
	key := []byte(o.Timestamp.UTC().Format("2006-01-02T15:04:05Z"))
	if err := p.producer.Publish(ctx, p.topic, key, o); err != nil {
		return fmt.Errorf("publish observation: %w", err)
	}
	return nil
}

// PublishBatch sends observations as one batched write.
func (p *KafkaPublisher) PublishBatch(ctx context.Context, obs []*models.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	messages := make([]kafka.Message, 0, len(obs))
	for _, o := range obs {
		messages = append(messages, kafka.Message{
			Key:   []byte(o.Timestamp.UTC().Format("2006-01-02T15:04:05Z")),
			Value: o,
		})
	}
	if err := p.producer.PublishBatch(ctx, p.topic, messages); err != nil {
		return fmt.Errorf("publish %d observations: %w", len(obs), err)
	}
	p.log.Debug("observations published", logger.Int("count", len(obs)), logger.String("topic", p.topic))
	return nil
}

// Close flushes and closes the producer.
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
