package di

import (
	"context"
	"fmt"
	"time"

	domrepo "GridCast/internal/domain/repository"
	dservice "GridCast/internal/domain/service"
	"GridCast/internal/handler/api"
	internalrepo "GridCast/internal/repository"
	"GridCast/internal/service/marketdata"
	"GridCast/internal/service/ratelimit"
	"GridCast/internal/service/stream"
	"GridCast/internal/service/timegpt"
	"GridCast/internal/services/synthetic"
	"GridCast/internal/usecase"
	"GridCast/pkg/cache"
	pkgch "GridCast/pkg/clickhouse"
	"GridCast/pkg/config"
	xhttp "GridCast/pkg/http"
	pkgkafka "GridCast/pkg/kafka"
	applogger "GridCast/pkg/logger"
	"GridCast/pkg/metrics"
	"GridCast/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "console"
	if cfg.Environment == "production" {
		format = "json"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideClock supplies wall-clock time to the pipeline.
func ProvideClock() dservice.Clock {
	return time.Now
}

// ProvideSyntheticGenerator creates the synthetic series generator.
func ProvideSyntheticGenerator(cfg *config.Config) *synthetic.Generator {
	return synthetic.New(cfg.Synthetic.Seed)
}

// ProvideForecastProvider creates the external forecasting client.
// Nil when no API key is configured; the pipeline then goes synthetic.
func ProvideForecastProvider(cfg *config.Config) dservice.ForecastProvider {
	return timegpt.New(
		cfg.Forecaster.APIKey,
		cfg.Forecaster.BaseURL,
		cfg.Forecaster.Model,
		cfg.Forecaster.Timeout,
	)
}

// ProvideMarketDataSource creates the market-data API client, nil when unset.
func ProvideMarketDataSource(cfg *config.Config) dservice.MarketDataSource {
	return marketdata.New(cfg.MarketData.PricesURL, cfg.MarketData.Timeout)
}

// ProvideClickHouseClient creates a ClickHouse client, nil when unset.
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvidePriceStore creates the historical price store, nil without ClickHouse.
func ProvidePriceStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) (domrepo.PriceStore, error) {
	if chClient == nil {
		return nil, nil
	}
	store := internalrepo.NewCHPriceStore(chClient, cfg.ClickHouse.Database+".market_prices")
	if s, ok := store.(interface{ SetLogger(*applogger.Logger) }); ok {
		s.SetLogger(l)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("price store init: %w", err)
	}
	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer, nil without brokers.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
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

// ProvideTickPublisher creates the Kafka tick publisher, nil without Kafka.
func ProvideTickPublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.TickPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaTickPublisher(producer, cfg.Kafka.TicksTopic)
}

// ProvideAlertPublisher creates the arbitrage alert publisher, nil without Kafka.
func ProvideAlertPublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.AlertPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaAlertPublisher(producer, cfg.Kafka.AlertsTopic)
}

// ProvideCache creates the response cache: Redis when an address is
// configured, in-process memory otherwise, nil when disabled.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	if cfg.Cache.Addr != "" {
		return cache.NewRedisCache(
			cache.WithRedisAddr(cfg.Cache.Addr),
			cache.WithRedisPassword(cfg.Cache.Password),
			cache.WithRedisDB(cfg.Cache.DB),
			cache.WithRedisPrefix("gridcast"),
		)
	}
	return cache.NewMemoryCache(), nil
}

// ProvideMarketStream creates the live price stream, nil when unset.
func ProvideMarketStream(cfg *config.Config) domrepo.MarketStream {
	if cfg.Stream.URL == "" {
		return nil
	}
	return stream.New(
		cfg.Stream.APIKey,
		cfg.Stream.URL,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
	)
}

// ProvidePriceProcessor creates the tick processor use case.
func ProvidePriceProcessor(
	pub domrepo.TickPublisher,
	store domrepo.PriceStore,
	m domrepo.Metrics,
	cfg *config.Config,
) *usecase.PriceProcessor {
	return usecase.NewPriceProcessor(pub, store, m, cfg.Stream.Backend)
}

// ProvidePriceCollector creates the stream collector, nil without a stream.
func ProvidePriceCollector(
	ms domrepo.MarketStream,
	processor *usecase.PriceProcessor,
	m domrepo.Metrics,
) *usecase.PriceCollector {
	if ms == nil {
		return nil
	}
	return usecase.NewPriceCollector(ms, processor, m)
}

// ProvideForecastOrchestrator creates the forecast pipeline use case.
func ProvideForecastOrchestrator(
	provider dservice.ForecastProvider,
	source dservice.MarketDataSource,
	store domrepo.PriceStore,
	alerts domrepo.AlertPublisher,
	m domrepo.Metrics,
	gen *synthetic.Generator,
	l *applogger.Logger,
	clock dservice.Clock,
	cfg *config.Config,
) *usecase.ForecastOrchestrator {
	return usecase.NewForecastOrchestrator(
		provider, source, store, alerts, m, gen, l, clock,
		cfg.History.Days, cfg.Forecaster.MaxConcurrent,
	)
}

// ProvideAnomalyDetector creates the anomaly detection use case.
func ProvideAnomalyDetector(
	provider dservice.ForecastProvider,
	c cache.Service,
	l *applogger.Logger,
) *usecase.AnomalyDetector {
	return usecase.NewAnomalyDetector(provider, c, l)
}

// ProvideRateLimiter creates the per-client token bucket limiter.
func ProvideRateLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideHTTPHandler creates the Echo route handler.
func ProvideHTTPHandler(
	l *applogger.Logger,
	forecast *usecase.ForecastOrchestrator,
	anomaly *usecase.AnomalyDetector,
	limiter *ratelimit.Limiter,
	store domrepo.PriceStore,
	collector *usecase.PriceCollector,
) xhttp.Handler {
	return api.NewForecastEchoHandler(l, forecast, anomaly, limiter, store, collector)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	handler xhttp.Handler,
	collector *usecase.PriceCollector,
	chClient *pkgch.Client,
	c cache.Service,
	l *applogger.Logger,
) *server.App {
	app := server.New(cfg, handler, collector, chClient, c, l)
	if collector != nil {
		app.PriceProc = collector.Processor()
	}
	return app
}
