package di

import (
	"context"
	"fmt"
	"time"

	domrepo "AgriChain/internal/domain/repository"
	domsvc "AgriChain/internal/domain/service"
	"AgriChain/internal/handler/api"
	internalrepo "AgriChain/internal/repository"
	icache "AgriChain/internal/service/cache"
	svcmetrics "AgriChain/internal/service/metrics"
	"AgriChain/internal/service/ratelimit"
	"AgriChain/internal/services/forecasting"
	"AgriChain/internal/usecase"
	pkgch "AgriChain/pkg/clickhouse"
	"AgriChain/pkg/config"
	"AgriChain/pkg/forest"
	xhttp "AgriChain/pkg/http"
	pkgkafka "AgriChain/pkg/kafka"
	applogger "AgriChain/pkg/logger"
	"AgriChain/pkg/metrics"
	"AgriChain/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideRegistry creates the Prometheus registry served on the metrics path.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	svcmetrics.Register(reg)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) domrepo.Metrics {
	return metrics.New(reg)
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideHistoryStore opens the configured price history backend.
func ProvideHistoryStore(cfg *config.Config, l *applogger.Logger) (domrepo.HistoryStore, func(), error) {
	switch cfg.History.Backend {
	case "clickhouse":
		client, err := ProvideClickHouseClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		table := cfg.ClickHouse.Database + "." + cfg.History.Table
		store := internalrepo.NewCHHistoryStore(client, table, l)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.InitSchema(ctx, store.Schema(cfg.ClickHouse.Database)); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		return store, closeWith(l, "clickhouse history store", store.Close), nil
	default:
		c := cfg.History.Columns
		store := internalrepo.NewCSVHistoryStore(cfg.History.Path, internalrepo.Columns{
			Commodity: c.Commodity,
			Market:    c.Market,
			Date:      c.Date,
			Price:     c.Price,
			MinPrice:  c.MinPrice,
			MaxPrice:  c.MaxPrice,
		}, cfg.History.ReloadTTL, l)
		return store, closeWith(l, "csv history store", store.Close), nil
	}
}

// ProvideForecastPublisher creates the Kafka publisher, or a no-op one when
// Kafka is disabled. With Kafka on, error logs are aggregated onto the log
// topic; the collector is detached before the producer closes so its last
// batch still goes out.
func ProvideForecastPublisher(cfg *config.Config, l *applogger.Logger, reg *prometheus.Registry) (domrepo.ForecastPublisher, func(), error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NoopForecastPublisher{}, func() {}, nil
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
		pkgkafka.WithRegisterer(reg),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	pub := internalrepo.NewKafkaForecastPublisher(producer, cfg.Kafka.Topic)

	if cfg.Kafka.LogTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{Topic: cfg.Kafka.LogTopic, Publisher: pub})
	}
	cleanup := func() {
		l.RemoveCollector()
		if err := pub.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	return pub, cleanup, nil
}

// ProvideModelCache creates the trained model cache.
func ProvideModelCache(cfg *config.Config) domrepo.ModelCache {
	return icache.NewModelCache(cfg.Model.CacheTTL)
}

// ProvideBytesCache creates the rendered-response cache.
func ProvideBytesCache(cfg *config.Config, l *applogger.Logger) (icache.BytesCache, func(), error) {
	switch cfg.Cache.Type {
	case "redis", "layered":
		rc := icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   "agrichain:",
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rc.Ping(ctx); err != nil {
			_ = rc.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		if cfg.Cache.Type == "layered" {
			return icache.NewLayeredCache(rc, cfg.Cache.L1TTL), closeWith(l, "redis", rc.Close), nil
		}
		return rc, closeWith(l, "redis", rc.Close), nil
	case "none":
		return icache.Noop{}, func() {}, nil
	default:
		return icache.NewMemoryCache(cfg.Cache.TTL), func() {}, nil
	}
}

// ProvideTrainer creates the random forest trainer.
func ProvideTrainer(cfg *config.Config, store domrepo.HistoryStore, m domrepo.Metrics, l *applogger.Logger) domsvc.ModelTrainer {
	fc := forest.DefaultConfig()
	fc.NumTrees = cfg.Model.Trees
	fc.MaxDepth = cfg.Model.MaxDepth
	fc.MinSamplesLeaf = cfg.Model.MinSamplesLeaf
	fc.Seed = cfg.Model.Seed
	return forecasting.NewTrainer(store, m, l,
		forecasting.WithForestConfig(fc),
		forecasting.WithTailSize(cfg.Model.TailSize),
	)
}

// ProvideForecastService creates the forecasting use case.
func ProvideForecastService(
	cfg *config.Config,
	store domrepo.HistoryStore,
	trainer domsvc.ModelTrainer,
	models domrepo.ModelCache,
	pub domrepo.ForecastPublisher,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.PriceForecastService {
	return usecase.NewPriceForecastService(usecase.PriceForecastDeps{
		Store:      store,
		Trainer:    trainer,
		Forecaster: forecasting.Forecaster{},
		Summarizer: forecasting.NewSummarizer(time.Now),
		Models:     models,
		Publisher:  pub,
		Metrics:    m,
		Logger:     l,
		MaxDays:    cfg.Forecast.MaxDays,
	})
}

// ProvideCatalog creates the commodity catalog use case.
func ProvideCatalog(store domrepo.HistoryStore) *usecase.CatalogUseCase {
	return usecase.NewCatalogUseCase(store)
}

// ProvideRateLimiter returns nil when rate limiting is disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.Server.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst, 10*time.Minute)
}

// ProvideHandler creates the HTTP route handler.
func ProvideHandler(
	cfg *config.Config,
	l *applogger.Logger,
	svc *usecase.PriceForecastService,
	catalog *usecase.CatalogUseCase,
	responses icache.BytesCache,
	limiter *ratelimit.Limiter,
) *api.ForecastEchoHandler {
	opts := []api.HandlerOption{
		api.WithResponseCache(responses, cfg.Cache.TTL),
		api.WithHorizon(cfg.Forecast.DefaultDays, cfg.Forecast.MaxDays),
	}
	if limiter != nil {
		opts = append(opts, api.WithRateLimit(limiter))
	}
	return api.NewForecastEchoHandler(l, svc, catalog, opts...)
}

// ProvideHTTPServer creates the Echo server with health checks for the
// history store and, when used, Redis.
func ProvideHTTPServer(
	cfg *config.Config,
	l *applogger.Logger,
	h *api.ForecastEchoHandler,
	reg *prometheus.Registry,
	store domrepo.HistoryStore,
	responses icache.BytesCache,
) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(l),
		xhttp.WithHealthCheck("history", historyCheck(store)),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path, reg, reg))
	} else {
		opts = append(opts, xhttp.WithMetrics("", nil, nil))
	}
	if p, ok := responses.(interface{ Ping(context.Context) error }); ok {
		opts = append(opts, xhttp.WithHealthCheck("redis", p.Ping))
	}
	return xhttp.NewServer(h, opts...)
}

// historyCheck pings a database-backed store, or reads the catalog of a
// file-backed one.
func historyCheck(store domrepo.HistoryStore) xhttp.HealthCheck {
	if p, ok := store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping
	}
	return func(ctx context.Context) error {
		_, err := store.Commodities(ctx)
		return err
	}
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	svc *usecase.PriceForecastService,
	srv *xhttp.Server,
	limiter *ratelimit.Limiter,
) *server.App {
	return server.New(cfg, l, svc, srv, limiter)
}

func closeWith(l *applogger.Logger, what string, closeFn func() error) func() {
	return func() {
		if err := closeFn(); err != nil {
			l.Warn(what+" close error", applogger.Error(err))
		}
	}
}
