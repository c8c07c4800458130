package di

import (
	"context"
	"fmt"
	"time"

	domrepo "SpillNet/internal/domain/repository"
	internalrepo "SpillNet/internal/repository"
	"SpillNet/internal/service/ratelimit"
	"SpillNet/internal/services/forecast"
	"SpillNet/internal/services/marketdata"
	"SpillNet/internal/usecase"
	"SpillNet/pkg/cache"
	pkgch "SpillNet/pkg/clickhouse"
	"SpillNet/pkg/config"
	xhttp "SpillNet/pkg/http"
	pkgkafka "SpillNet/pkg/kafka"
	applogger "SpillNet/pkg/logger"
	"SpillNet/pkg/metrics"
	"SpillNet/pkg/sqlite"

	"github.com/prometheus/client_golang/prometheus"
)

const initTimeout = 10 * time.Second

// ProvideLogger builds the root logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideRegistry creates the registry shared by pipeline and HTTP metrics.
func ProvideRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(cfg *config.Config, reg *prometheus.Registry) domrepo.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Nop{}
	}
	return metrics.New(reg)
}

func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(
		xhttp.WithTimeout(cfg.Data.RequestTimeout),
		xhttp.WithUserAgent("Mozilla/5.0 (compatible; spillnet)"),
	)
}

// ProvideMarketDataSource selects the synthetic generator or the Yahoo chart API.
func ProvideMarketDataSource(cfg *config.Config, client *xhttp.Client, l *applogger.Logger) (domrepo.MarketDataSource, error) {
	switch cfg.Data.Source {
	case "synthetic":
		return marketdata.NewSyntheticSource(cfg.Data.Seed, cfg.Data.SyntheticPoints, cfg.Markets), nil
	case "yahoo":
		return marketdata.NewYahooSource(client,
			marketdata.WithBaseURL(cfg.Data.YahooBaseURL),
			marketdata.WithRequestRate(cfg.Data.RequestsPerSecond),
			marketdata.WithYahooLogger(l),
		), nil
	}
	return nil, fmt.Errorf("unknown data source %q", cfg.Data.Source)
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvidePriceStore opens the artifact backend named by storage.backend.
func ProvidePriceStore(cfg *config.Config, l *applogger.Logger) (domrepo.PriceStore, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	var (
		store   domrepo.PriceStore
		cleanup = func() {}
		err     error
	)
	switch cfg.Storage.Backend {
	case "csv":
		store, err = internalrepo.NewCSVStore(cfg.Storage.Dir)
	case "sqlite":
		db, oerr := sqlite.Open(ctx, cfg.SQLite.Path)
		if oerr != nil {
			return nil, nil, oerr
		}
		store, err = internalrepo.NewSQLiteStore(ctx, db, l)
		if err != nil {
			_ = db.Close()
		}
	case "clickhouse":
		client, cerr := ProvideClickHouseClient(cfg)
		if cerr != nil {
			return nil, nil, cerr
		}
		store, err = internalrepo.NewCHPriceStore(ctx, client, l)
		if err != nil {
			_ = client.Close()
			break
		}
		cleanup = func() {
			if err := client.Close(); err != nil {
				l.Warn("clickhouse close error", applogger.Error(err))
			}
		}
	case "none":
		store = internalrepo.NewMemoryStore()
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("price store: %w", err)
	}

	l.Info("price store ready", applogger.String("backend", cfg.Storage.Backend))
	return store, func() {
		if err := store.Close(); err != nil {
			l.Warn("price store close error", applogger.Error(err))
		}
		cleanup()
	}, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithTopic(cfg.Kafka.Topic),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideReportPublisher ships reports to Kafka when enabled and logs them otherwise.
func ProvideReportPublisher(cfg *config.Config, l *applogger.Logger) (domrepo.ReportPublisher, func(), error) {
	var pub domrepo.ReportPublisher
	if cfg.Kafka.Enabled {
		producer, err := ProvideKafkaProducer(cfg)
		if err != nil {
			return nil, nil, err
		}
		pub = internalrepo.NewKafkaPublisher(producer)
		l.Info("kafka publisher ready", applogger.Strings("brokers", cfg.Kafka.Brokers), applogger.String("topic", cfg.Kafka.Topic))
	} else {
		pub = internalrepo.NewLogPublisher(l)
	}
	return pub, func() {
		if err := pub.Close(); err != nil {
			l.Warn("publisher close error", applogger.Error(err))
		}
	}, nil
}

// ProvideReportConsumer returns nil unless Kafka and the report subscription are enabled.
func ProvideReportConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, 100*time.Millisecond, 5*time.Second),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

func ProvideReportListener(cfg *config.Config, dashboard *usecase.DashboardUseCase, l *applogger.Logger) *usecase.ReportListener {
	return usecase.NewReportListener(cfg.Kafka.Topic, dashboard, l)
}

// ProvideCacheStore selects the memo backend named by cache.backend.
func ProvideCacheStore(cfg *config.Config, l *applogger.Logger) (cache.Store, func(), error) {
	var store cache.Store
	switch cfg.Cache.Backend {
	case "memory":
		store = cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize))
	case "redis", "layered":
		redis, err := cache.NewRedisCache(
			cache.WithRedisHost(cfg.Redis.Host),
			cache.WithRedisPort(cfg.Redis.Port),
			cache.WithRedisPassword(cfg.Redis.Password),
			cache.WithRedisDB(cfg.Redis.DB),
			cache.WithRedisPrefix(cfg.Redis.Prefix),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		store = redis
		if cfg.Cache.Backend == "layered" {
			store = cache.NewLayeredCache(redis, cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize))
		}
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
	return store, func() {
		if err := store.Close(); err != nil {
			l.Warn("cache close error", applogger.Error(err))
		}
	}, nil
}

func ProvideMemo(store cache.Store, l *applogger.Logger) *cache.Memo {
	return cache.NewMemo(store, cache.WithMemoLogger(l))
}

func ProvideIngestConfig(cfg *config.Config) (usecase.IngestConfig, error) {
	from, to, err := cfg.DateRange()
	if err != nil {
		return usecase.IngestConfig{}, err
	}
	return usecase.IngestConfig{Markets: cfg.Markets, From: from, To: to}, nil
}

func ProvideAnalysisConfig(cfg *config.Config) usecase.AnalysisConfig {
	return usecase.AnalysisConfig{
		Window:             cfg.Volatility.Window,
		TrainFraction:      cfg.Split.Train,
		ValidationFraction: cfg.Split.Validation,
		Lags:               cfg.Spillover.Lags,
		Horizon:            cfg.Spillover.Horizon,
	}
}

func ProvidePipelineConfig(cfg *config.Config, analysis usecase.AnalysisConfig) usecase.PipelineConfig {
	f := cfg.Forecast
	return usecase.PipelineConfig{
		Analysis: analysis,
		Forecast: usecase.ForecastConfig{
			Enabled:  f.Enabled,
			Epochs:   f.Epochs,
			Horizons: f.Horizons,
			GraphGrid: forecast.Grid{
				Hidden:        f.Graph.Hidden,
				Heads:         f.Graph.Heads,
				Layers:        f.Graph.Layers,
				LearningRates: f.Graph.LearningRates,
				Dropouts:      f.Graph.Dropouts,
			},
			BaselineGrid: forecast.Grid{
				Hidden:        f.Baseline.Hidden,
				LearningRates: f.Baseline.LearningRates,
				Dropouts:      f.Baseline.Dropouts,
			},
		},
	}
}

func ProvideSearcher(cfg *config.Config, l *applogger.Logger, m domrepo.Metrics) *forecast.Searcher {
	return forecast.NewSearcher(
		forecast.WithSeed(cfg.Forecast.Seed),
		forecast.WithParallelism(cfg.Forecast.Parallelism),
		forecast.WithLogger(l),
		forecast.WithMetrics(m),
	)
}

// ProvideRateLimiter returns nil when rate limiting is disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)
}
