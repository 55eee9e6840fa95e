package di

import (
	"context"
	"fmt"
	"time"

	"BrentShift/internal/changepoint"
	"BrentShift/internal/domain/models"
	"BrentShift/internal/domain/repository"
	"BrentShift/internal/handler/api"
	"BrentShift/internal/loader"
	internalrepo "BrentShift/internal/repository"
	"BrentShift/internal/usecase"
	pkgcache "BrentShift/pkg/cache"
	pkgch "BrentShift/pkg/clickhouse"
	"BrentShift/pkg/config"
	xhttp "BrentShift/pkg/http"
	pkgkafka "BrentShift/pkg/kafka"
	applogger "BrentShift/pkg/logger"
	"BrentShift/pkg/metrics"
	"BrentShift/pkg/queue"
	"BrentShift/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideLoader creates the CSV price loader.
func ProvideLoader(log *applogger.Logger) *loader.Loader {
	return loader.New(log)
}

// ProvideModel creates the change-point model from config, falling back to
// the built-in defaults for unset fields.
func ProvideModel(cfg *config.Config, log *applogger.Logger) *changepoint.Model {
	mc := changepoint.Config{
		Draws:        cfg.Model.Draws,
		Tune:         cfg.Model.Tune,
		Chains:       cfg.Model.Chains,
		TargetAccept: cfg.Model.TargetAccept,
		Seed:         cfg.Model.Seed,
		MuSigma:      cfg.Model.MuSigma,
		SigmaScale:   cfg.Model.SigmaScale,
	}
	return changepoint.New(mc, log)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is
// disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
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
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideEventPublisher wraps the Kafka producer as an event publisher.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.EventPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)
}

// ProvideEventStore creates the configured event store backend.
func ProvideEventStore(cfg *config.Config, log *applogger.Logger) (repository.EventStore, error) {
	switch cfg.Export.Backend {
	case "clickhouse":
		client, err := pkgch.NewClient(
			pkgch.WithHost(cfg.ClickHouse.Host),
			pkgch.WithPort(cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithMaxConnections(10, 5),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse client: %w", err)
		}

		table := cfg.Export.Table
		if table == "" {
			table = "brent_change_points"
		}
		store := internalrepo.NewCHEventStore(client.DB(), table, log)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.Init(ctx); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		return store, nil
	default:
		return internalrepo.NewCSVEventStore(cfg.Export.EventsPath, log), nil
	}
}

// ProvideRedisCache creates the Redis cache, or nil when disabled.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	if !cfg.Cache.Redis.Enabled {
		return nil, nil
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisAddr(cfg.Cache.Redis.Addr),
		pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
		pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideCache selects the serving cache: layered when Redis is available,
// in-process otherwise.
func ProvideCache(rc *pkgcache.RedisCache) pkgcache.Service {
	if rc != nil {
		return pkgcache.NewLayeredCache(rc)
	}
	return pkgcache.NewMemoryCache()
}

// ProvidePipeline creates the detection pipeline.
func ProvidePipeline(
	ld *loader.Loader,
	model *changepoint.Model,
	store repository.EventStore,
	publisher repository.EventPublisher,
	m repository.Metrics,
	log *applogger.Logger,
	cfg *config.Config,
) *usecase.DetectionPipeline {
	aggregate, _ := models.ParseAggregationMode(cfg.Data.Aggregate)
	return usecase.NewDetectionPipeline(ld, model, store, publisher, m, log, cfg.Data.PricesPath, aggregate)
}

// ProvideEventsUseCase creates the read-side use case for the API.
func ProvideEventsUseCase(
	store repository.EventStore,
	ld *loader.Loader,
	cache pkgcache.Service,
	cfg *config.Config,
	log *applogger.Logger,
) *usecase.EventsUseCase {
	return usecase.NewEventsUseCase(store, ld, cache, cfg.Cache.TTL, cfg.Data.PricesPath, log)
}

// ProvideDetectionJob creates the queued-detection job handler.
func ProvideDetectionJob(
	pipeline *usecase.DetectionPipeline,
	events *usecase.EventsUseCase,
	log *applogger.Logger,
) *usecase.DetectionJob {
	return usecase.NewDetectionJob(pipeline, events, log)
}

// ProvideQueue creates the Redis-backed detection queue, or nil when the
// queue is disabled. The queue shares the Redis connection with the cache.
func ProvideQueue(
	cfg *config.Config,
	rc *pkgcache.RedisCache,
	job *usecase.DetectionJob,
	log *applogger.Logger,
) (*queue.RedisQueue, error) {
	if !cfg.Queue.Enabled {
		return nil, nil
	}
	if rc == nil {
		return nil, fmt.Errorf("queue requires cache.redis to be enabled")
	}
	q := queue.NewRedisQueue(log, &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		QueueSize:  cfg.Queue.QueueSize,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}, rc.Client(), queue.ModeProducerConsumer)
	q.RegisterJob(job)
	return q, nil
}

// ProvideTrigger exposes the queue as a publish-only trigger for the API.
func ProvideTrigger(q *queue.RedisQueue) queue.QueueService {
	if q == nil {
		return nil
	}
	return q
}

// ProvideHandler creates the HTTP handler.
func ProvideHandler(
	log *applogger.Logger,
	events *usecase.EventsUseCase,
	trigger queue.QueueService,
) xhttp.Handler {
	return api.NewEventsEchoHandler(log, events, trigger)
}

// logShipper adapts the Kafka producer to the log collector's publisher.
type logShipper struct {
	producer *pkgkafka.Producer
}

func (s logShipper) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return s.producer.Publish(ctx, topic, nil, payload)
}

// ProvideApp assembles the application and registers infrastructure
// closers for shutdown.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	pipeline *usecase.DetectionPipeline,
	handler xhttp.Handler,
	q *queue.RedisQueue,
	producer *pkgkafka.Producer,
	rc *pkgcache.RedisCache,
	store repository.EventStore,
) *server.App {
	if producer != nil && cfg.Kafka.LogsTopic != "" {
		log.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogsTopic,
			Publisher:      logShipper{producer: producer},
		})
	}

	app := server.New(cfg, log, pipeline, handler, q)
	app.AddCloser("event store", store.Close)
	if producer != nil {
		app.AddCloser("kafka producer", producer.Close)
	}
	if rc != nil {
		app.AddCloser("redis", rc.Close)
	}
	return app
}
