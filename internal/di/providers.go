package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"StalkPull/internal/domain/repository"
	"StalkPull/internal/forecast"
	"StalkPull/internal/handler/api"
	internalrepo "StalkPull/internal/repository"
	"StalkPull/internal/service/live"
	"StalkPull/internal/service/ratelimit"
	"StalkPull/internal/usecase"
	"StalkPull/pkg/cache"
	pkgch "StalkPull/pkg/clickhouse"
	"StalkPull/pkg/config"
	pkgkafka "StalkPull/pkg/kafka"
	applogger "StalkPull/pkg/logger"
	"StalkPull/pkg/metrics"
	"StalkPull/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideEngine creates the pattern engine, with frontier tracing when
// enabled in config.
func ProvideEngine(cfg *config.Config, l *applogger.Logger) *forecast.Engine {
	if cfg.Forecast.Trace {
		return forecast.New(forecast.WithLogger(l))
	}
	return forecast.New()
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.NewRecorder(prometheus.DefaultRegisterer)
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideWeekStore creates the ClickHouse week store and ensures its schema.
func ProvideWeekStore(chClient *pkgch.Client, l *applogger.Logger) (repository.WeekStore, error) {
	store := internalrepo.NewClickHouseWeekStore(chClient)
	store.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = chClient.Close() // cannot log here (DI layer propagates the error)
		return nil, fmt.Errorf("week store schema: %w", err)
	}
	return store, nil
}

// ProvideCache builds the prediction cache: layered memory+Redis when Redis
// is configured, in-process memory only otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	mem := cfg.Cache.Memory
	if !cfg.Cache.Redis.Enabled {
		return cache.NewMemoryCache(
			cache.WithMemoryMaxSize(mem.MaxEntries),
			cache.WithMemoryTTL(mem.TTL),
		), nil
	}

	redisCache, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Cache.Redis.Addr),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
		cache.WithRedisPool(cfg.Cache.Redis.PoolSize, 2, 3*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(redisCache,
		cache.WithLayeredMemorySize(mem.MaxEntries),
		cache.WithLayeredMemoryTTL(mem.TTL),
	), nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		// Predictions are keyed by island so per-island updates stay ordered.
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePublisher creates the Kafka prediction publisher.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.PredictionsTopic)
}

// ProvideKafkaConsumer creates the report consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideHub creates the live WebSocket hub.
func ProvideHub(m repository.Metrics) *live.Hub {
	return live.NewHub(m)
}

// ProvideNotifier exposes the hub through the domain Notifier port.
func ProvideNotifier(hub *live.Hub) repository.Notifier {
	return hub
}

// ProvideForecaster creates the forecasting use case.
func ProvideForecaster(
	engine *forecast.Engine,
	store repository.WeekStore,
	cacheSvc cache.Service,
	pub repository.Publisher,
	notifier repository.Notifier,
	m repository.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.Forecaster {
	f := usecase.NewForecaster(engine, store, cacheSvc, pub, notifier, m, cfg.Forecast.CacheTTL)
	f.SetLogger(l)
	return f
}

// ProvideReportIngest creates the Kafka report handler.
func ProvideReportIngest(cfg *config.Config, f *usecase.Forecaster, m repository.Metrics) *usecase.ReportIngest {
	return usecase.NewReportIngest(cfg.Kafka.ReportsTopic, f, m)
}

// ProvideForecastHandler creates the Echo API handler.
func ProvideForecastHandler(
	l *applogger.Logger,
	f *usecase.Forecaster,
	hub *live.Hub,
	cfg *config.Config,
) *api.ForecastEchoHandler {
	return api.NewForecastEchoHandler(l, f, hub, ratelimit.New(),
		cfg.Server.ReportRate, cfg.Server.ReportBurst)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	forecaster *usecase.Forecaster,
	handler *api.ForecastEchoHandler,
	consumer *pkgkafka.Consumer,
	ingest *usecase.ReportIngest,
	hub *live.Hub,
	cacheSvc cache.Service,
	chClient *pkgch.Client,
) *server.App {
	return server.New(cfg, l, forecaster, handler, consumer, ingest, hub, cacheSvc, chClient)
}
