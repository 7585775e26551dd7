package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"rainwatch/internal/usecase"
	"rainwatch/pkg/cache"
	pkgch "rainwatch/pkg/clickhouse"
	"rainwatch/pkg/config"
	xhttp "rainwatch/pkg/http"
	pkgkafka "rainwatch/pkg/kafka"
	applogger "rainwatch/pkg/logger"
)

// App encapsulates the application lifecycle. Optional components
// (collector, consumer, archive) are nil when not configured and are
// skipped at start and shutdown.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	handler    xhttp.Handler
	collector  *usecase.ObservationCollector
	processor  *usecase.ObservationProcessor
	consumer   *pkgkafka.Consumer
	obsHandler *usecase.ObservationsHandler
	chClient   *pkgch.Client
	cache      cache.Service
	httpServer *xhttp.Server
}

// New creates an App with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	collector *usecase.ObservationCollector,
	processor *usecase.ObservationProcessor,
	consumer *pkgkafka.Consumer,
	obsHandler *usecase.ObservationsHandler,
	chClient *pkgch.Client,
	cacheSvc cache.Service,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		handler:    handler,
		collector:  collector,
		processor:  processor,
		consumer:   consumer,
		obsHandler: obsHandler,
		chClient:   chClient,
		cache:      cacheSvc,
	}
}

// Run starts all configured components and blocks until interrupted.
func (a *App) Run() error {
	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(true),
	)

	if a.collector != nil {
		if err := a.collector.Start(); err != nil {
			return err
		}
	}

	if a.consumer != nil && a.obsHandler != nil {
		a.consumer.RegisterHandler(a.obsHandler)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started", applogger.String("topic", a.obsHandler.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server listening",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("environment", a.cfg.Environment))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops components in reverse start order.
func (a *App) shutdown() error {
	if a.collector != nil {
		a.collector.Shutdown()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	if a.processor != nil {
		if err := a.processor.Close(); err != nil {
			a.log.Warn("processor close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
