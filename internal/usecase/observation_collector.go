package usecase

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"rainwatch/internal/domain/models"
	drepo "rainwatch/internal/domain/repository"
	"rainwatch/pkg/logger"
)

// ObservationCollector polls the live provider on a fixed cadence and
// pushes each reading through the processor. A failed poll is logged
// and skipped; the next tick tries again.
type ObservationCollector struct {
	location  models.Location
	live      drepo.LiveProvider
	processor *ObservationProcessor
	metrics   drepo.Metrics
	log       *logger.Logger
	interval  time.Duration
	scheduler *gocron.Scheduler
}

// NewObservationCollector builds a collector polling every interval.
func NewObservationCollector(
	location models.Location,
	live drepo.LiveProvider,
	processor *ObservationProcessor,
	metrics drepo.Metrics,
	log *logger.Logger,
	interval time.Duration,
) *ObservationCollector {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &ObservationCollector{
		location:  location,
		live:      live,
		processor: processor,
		metrics:   metrics,
		log:       log,
		interval:  interval,
		scheduler: gocron.NewScheduler(time.UTC),
	}
}

// Start schedules the poll loop and returns immediately.
func (c *ObservationCollector) Start() error {
	if _, err := c.scheduler.Every(c.interval).Do(c.collect); err != nil {
		return err
	}
	c.scheduler.StartAsync()
	c.log.Info("observation collector started", logger.Duration("interval", c.interval))
	return nil
}

func (c *ObservationCollector) collect() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conditions, err := c.live.Current(ctx, c.location)
	if err != nil {
		c.metrics.RecordError("collector")
		c.log.Warn("collection poll failed", logger.Error(err))
		return
	}

	obs := conditions.AsObservation()
	if err := c.processor.Process(ctx, &obs); err != nil {
		c.log.Warn("collected observation dropped", logger.Error(err))
		return
	}
	c.log.Debug("observation collected",
		logger.Time("observed_at", obs.Timestamp),
		logger.Float64("rainfall_mm", conditions.RainfallMM))
}

// Shutdown stops the schedule. In-flight collections finish.
func (c *ObservationCollector) Shutdown() {
	c.scheduler.Stop()
	c.log.Info("observation collector stopped")
}
