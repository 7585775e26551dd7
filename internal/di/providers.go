package di

import (
	"context"
	"fmt"
	"time"

	"rainwatch/internal/domain/models"
	"rainwatch/internal/domain/repository"
	"rainwatch/internal/domain/service"
	"rainwatch/internal/handler/api"
	internalrepo "rainwatch/internal/repository"
	"rainwatch/internal/service/forecast"
	"rainwatch/internal/service/meteostat"
	"rainwatch/internal/service/openweather"
	"rainwatch/internal/service/risk"
	"rainwatch/internal/usecase"
	"rainwatch/pkg/cache"
	pkgch "rainwatch/pkg/clickhouse"
	"rainwatch/pkg/config"
	xhttp "rainwatch/pkg/http"
	pkgkafka "rainwatch/pkg/kafka"
	applogger "rainwatch/pkg/logger"
	"rainwatch/pkg/metrics"
	"rainwatch/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: "stdout",
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideLocation builds the served location from config.
func ProvideLocation(cfg *config.Config) models.Location {
	return models.Location{
		Name:      cfg.Location.Name,
		Latitude:  cfg.Location.Latitude,
		Longitude: cfg.Location.Longitude,
		AltitudeM: cfg.Location.AltitudeM,
	}
}

// ProvideCache selects the cache backend: layered memory+Redis when Redis
// is enabled, in-process memory otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	memOpts := []cache.MemoryOption{}
	if cfg.Cache.MemoryMaxSize > 0 {
		memOpts = append(memOpts, cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize))
	}
	if cfg.Cache.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(
			cache.WithRedisAddr(cfg.Cache.Redis.Addr),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix("rainwatch"),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return cache.NewLayeredCache(redisCache, memOpts...), nil
	}
	return cache.NewMemoryCache(memOpts...), nil
}

// ProvideHistoryProvider creates the Meteostat client.
func ProvideHistoryProvider(cfg *config.Config) repository.HistoryProvider {
	return meteostat.New(
		cfg.Meteostat.APIKey,
		cfg.Meteostat.BaseURL,
		cfg.Meteostat.MaxLookbackDays,
		cfg.Meteostat.Timeout,
	)
}

// ProvideLiveProvider creates the OpenWeather client.
func ProvideLiveProvider(cfg *config.Config) repository.LiveProvider {
	return openweather.New(
		cfg.OpenWeather.APIKey,
		cfg.OpenWeather.BaseURL,
		cfg.OpenWeather.Timeout,
	)
}

// ProvideForecaster creates the rainfall forecast model.
func ProvideForecaster(cfg *config.Config) service.Forecaster {
	return forecast.New(forecast.Options{
		MinHistory:        cfg.Forecast.MinHistory,
		WeeklySeasonality: cfg.Forecast.WeeklySeasonality,
		IntervalWidth:     cfg.Forecast.IntervalWidth,
	})
}

// ProvideRiskScorer creates the hotspot scorer from configured sites.
func ProvideRiskScorer(cfg *config.Config) service.RiskScorer {
	sites := make([]models.RiskSite, 0, len(cfg.Risk.Sites))
	for _, s := range cfg.Risk.Sites {
		sites = append(sites, models.RiskSite{
			Name:      s.Name,
			Latitude:  s.Latitude,
			Longitude: s.Longitude,
			BaseRisk:  models.RiskLevel(s.BaseRisk),
		})
	}
	return risk.NewScorer(sites, risk.Options{
		NearbyRadiusKM: cfg.Risk.NearbyRadiusKM,
		ModerateMM:     cfg.Risk.ModerateMM,
		HighMM:         cfg.Risk.HighMM,
	})
}

// ProvideClickHouseClient connects to ClickHouse. Returns nil when no host
// is configured; the archive and its fallback path are then disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.ClickHouse.Host == "" {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideArchive creates the observation archive over ClickHouse and
// initializes its schema.
func ProvideArchive(client *pkgch.Client, cfg *config.Config, log *applogger.Logger) (repository.ObservationArchive, error) {
	if client == nil {
		return nil, nil
	}
	archive := internalrepo.NewClickHouseArchive(client, cfg.ClickHouse.Database, log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := archive.Init(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("observation schema: %w", err)
	}
	return archive, nil
}

// ProvideKafkaProducer creates a Kafka producer when the kafka backend is
// selected. Returns nil otherwise.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Backend.Type != string(usecase.BackendKafka) || len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithBatch(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePublisher wraps the producer as an observation publisher.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config, log *applogger.Logger) repository.ObservationPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic, log)
}

// ProvideProcessor creates the observation processor when the collector is
// enabled.
func ProvideProcessor(
	cfg *config.Config,
	publisher repository.ObservationPublisher,
	archive repository.ObservationArchive,
	m repository.Metrics,
	log *applogger.Logger,
) (*usecase.ObservationProcessor, error) {
	if !cfg.Collector.Enabled {
		return nil, nil
	}
	return usecase.NewObservationProcessor(
		usecase.BackendType(cfg.Backend.Type), publisher, archive, m, log,
	)
}

// ProvideCollector creates the live observation collector.
func ProvideCollector(
	cfg *config.Config,
	loc models.Location,
	live repository.LiveProvider,
	processor *usecase.ObservationProcessor,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.ObservationCollector {
	if processor == nil {
		return nil
	}
	return usecase.NewObservationCollector(loc, live, processor, m, log, cfg.Collector.Interval)
}

// ProvideKafkaConsumer creates the archival consumer for the kafka backend.
func ProvideKafkaConsumer(cfg *config.Config, archive repository.ObservationArchive) (*pkgkafka.Consumer, error) {
	if cfg.Backend.Type != string(usecase.BackendKafka) || cfg.Kafka.Consumer.GroupID == "" || archive == nil {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideObservationsHandler creates the consumer-side archival handler.
func ProvideObservationsHandler(cfg *config.Config, archive repository.ObservationArchive, m repository.Metrics, log *applogger.Logger) *usecase.ObservationsHandler {
	if archive == nil {
		return nil
	}
	return usecase.NewObservationsHandler(cfg.Kafka.Topic, archive, m, log)
}

// ProvideDashboard creates the aggregator behind the HTTP layer.
func ProvideDashboard(
	cfg *config.Config,
	loc models.Location,
	history repository.HistoryProvider,
	live repository.LiveProvider,
	archive repository.ObservationArchive,
	model service.Forecaster,
	scorer service.RiskScorer,
	cacheSvc cache.Service,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.Dashboard {
	return usecase.NewDashboard(loc, history, live, archive, model, scorer, cacheSvc, m, log,
		usecase.DashboardOptions{
			LiveTTL:      cfg.Live.TTL,
			ForecastTTL:  cfg.Forecast.CacheTTL,
			LookbackDays: cfg.Meteostat.LookbackDays,
		})
}

// ProvideLiveStream creates the websocket push endpoint.
func ProvideLiveStream(dashboard *usecase.Dashboard, cfg *config.Config, log *applogger.Logger) *api.LiveStream {
	return api.NewLiveStream(dashboard, log, cfg.Live.TTL)
}

// ProvideHTTPHandler creates the route-registering handler.
func ProvideHTTPHandler(dashboard *usecase.Dashboard, stream *api.LiveStream, log *applogger.Logger) xhttp.Handler {
	return api.NewDashboardHandler(dashboard, stream, log)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	collector *usecase.ObservationCollector,
	processor *usecase.ObservationProcessor,
	consumer *pkgkafka.Consumer,
	obsHandler *usecase.ObservationsHandler,
	chClient *pkgch.Client,
	cacheSvc cache.Service,
) *server.App {
	return server.New(cfg, log, handler, collector, processor, consumer, obsHandler, chClient, cacheSvc)
}
