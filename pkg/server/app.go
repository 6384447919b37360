package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"StalkPull/internal/handler/api"
	"StalkPull/internal/service/live"
	"StalkPull/internal/usecase"
	"StalkPull/pkg/cache"
	pkgch "StalkPull/pkg/clickhouse"
	"StalkPull/pkg/config"
	xhttp "StalkPull/pkg/http"
	pkgkafka "StalkPull/pkg/kafka"
	applogger "StalkPull/pkg/logger"
)

// App encapsulates the entire application lifecycle: the HTTP API, the
// Kafka report consumer, the live hub, and every resource they own.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	forecaster *usecase.Forecaster
	handler    *api.ForecastEchoHandler
	consumer   *pkgkafka.Consumer
	ingest     *usecase.ReportIngest
	hub        *live.Hub
	cache      cache.Service
	chClient   *pkgch.Client
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	forecaster *usecase.Forecaster,
	handler *api.ForecastEchoHandler,
	consumer *pkgkafka.Consumer,
	ingest *usecase.ReportIngest,
	hub *live.Hub,
	cacheSvc cache.Service,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		forecaster: forecaster,
		handler:    handler,
		consumer:   consumer,
		ingest:     ingest,
		hub:        hub,
		cache:      cacheSvc,
		chClient:   chClient,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(a.cfg.Metrics.Path),
		xhttp.WithServerLogger(a.log),
	)

	if a.consumer != nil && a.ingest != nil {
		a.consumer.RegisterHandler(a.ingest)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started", applogger.String("topic", a.ingest.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services: new work first (HTTP, consumer),
// then live connections, then owned resources.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.hub != nil {
		a.hub.Close()
	}

	// Closes the publisher and the week store.
	if a.forecaster != nil {
		a.forecaster.Close()
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
