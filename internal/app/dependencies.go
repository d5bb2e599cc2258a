package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	validator "github.com/go-playground/validator/v10"
	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // registers pgx5://
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/noah-isme/catalogo-mayorista/db/migrations"
	"github.com/noah-isme/catalogo-mayorista/internal/catalog"
	"github.com/noah-isme/catalogo-mayorista/internal/common"
	"github.com/noah-isme/catalogo-mayorista/internal/config"
	dbgen "github.com/noah-isme/catalogo-mayorista/internal/db/gen"
	"github.com/noah-isme/catalogo-mayorista/internal/health"
	"github.com/noah-isme/catalogo-mayorista/internal/media"
	"github.com/noah-isme/catalogo-mayorista/internal/obs"
	"github.com/noah-isme/catalogo-mayorista/internal/queue"
	"github.com/noah-isme/catalogo-mayorista/internal/ratelimit"
	"github.com/noah-isme/catalogo-mayorista/internal/resilience"
	"github.com/noah-isme/catalogo-mayorista/internal/sheets"
)

// Dependencies carries the clients shared by the API and the worker.
type Dependencies struct {
	Config       *config.Config
	Logger       zerolog.Logger
	DB           *pgxpool.Pool
	Queries      *dbgen.Queries
	Redis        *redis.Client
	Validator    *validator.Validate
	LimiterStore limiter.Store
	RedisOpt     asynq.RedisConnOpt
	Tasks        *asynq.Client
	Inspector    *asynq.Inspector
	Objects      media.ObjectStore
	Sheets       *sheets.Source
	Registry     *prometheus.Registry

	closers []func() error
}

// New connects every backing service named by cfg. Postgres and the
// spreadsheet client are optional; Redis is not.
func New(ctx context.Context, cfg *config.Config, service string, logger zerolog.Logger) (*Dependencies, error) {
	d := &Dependencies{
		Config:    cfg,
		Logger:    logger,
		Validator: common.NewValidator(),
	}
	if cfg.MetricsEnabled {
		d.Registry = obs.NewRegistry()
		obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, d.Registry)
		if err := resilience.RegisterMetrics(d.Registry); err != nil {
			return nil, fmt.Errorf("register breaker metrics: %w", err)
		}
	}

	var meters metric.MeterProvider
	if cfg.MetricsEnabled {
		meters = otel.GetMeterProvider()
	}
	rdb, err := OpenRedis(ctx, cfg.RedisURL, meters, logger)
	if err != nil {
		return nil, err
	}
	d.Redis = rdb
	d.closers = append(d.closers, rdb.Close)

	if cfg.DatabaseURL != "" {
		if cfg.MigrationsAuto {
			if err := RunMigrations(cfg.DatabaseURL); err != nil {
				d.Close()
				return nil, err
			}
			logger.Info().Msg("migrations applied")
		}
		pool, err := OpenDB(ctx, cfg.DatabaseURL, service)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.DB = pool
		d.Queries = dbgen.New(pool)
		d.closers = append(d.closers, func() error { pool.Close(); return nil })
	}

	if d.LimiterStore, err = ratelimit.NewStore(rdb, "limiter"); err != nil {
		d.Close()
		return nil, fmt.Errorf("limiter store: %w", err)
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("parse asynq redis uri: %w", err)
	}
	d.RedisOpt = redisOpt
	d.Tasks = asynq.NewClient(redisOpt)
	d.Inspector = asynq.NewInspector(redisOpt)
	d.closers = append(d.closers, d.Tasks.Close, d.Inspector.Close)

	if d.Objects, err = OpenObjectStore(ctx, cfg); err != nil {
		d.Close()
		return nil, err
	}
	if gcs, ok := d.Objects.(*media.GCSStore); ok {
		d.closers = append(d.closers, gcs.Client.Close)
	}

	if cfg.SheetsConfigured() {
		client, err := sheets.NewClient(ctx, sheets.Config{
			SpreadsheetID: cfg.SheetsID,
			APIKey:        cfg.SheetsAPIKey,
			Timeout:       cfg.SheetsTimeout,
		})
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("sheets client: %w", err)
		}
		d.Sheets = sheets.NewSource(client, logger)
	}
	return d, nil
}

// OpenDB returns a traced pgx pool that has answered a ping.
func OpenDB(ctx context.Context, databaseURL, service string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = service

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// OpenRedis parses url, instruments the client and pings it. A nil meters
// skips pool metrics.
func OpenRedis(ctx context.Context, url string, meters metric.MeterProvider, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if meters != nil {
		if err := redisotel.InstrumentMetrics(client, redisotel.WithMeterProvider(meters)); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RunMigrations applies the embedded schema.
func RunMigrations(databaseURL string) error {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, MigrateURL(databaseURL))
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// MigrateURL rewrites a postgres URL for the pgx v5 migrate driver.
func MigrateURL(databaseURL string) string {
	for _, scheme := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(databaseURL, scheme) {
			return "pgx5://" + strings.TrimPrefix(databaseURL, scheme)
		}
	}
	return databaseURL
}

// OpenObjectStore returns the bucket product images and logos are written to.
func OpenObjectStore(ctx context.Context, cfg *config.Config) (media.ObjectStore, error) {
	if cfg.StorageDriver != config.StorageGCS {
		return &media.MemoryStore{Bucket: cfg.StorageBucket, BaseURL: cfg.StoragePublicBaseURL}, nil
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	return media.NewGCSStore(client, cfg.StorageBucket, cfg.StoragePublicBaseURL), nil
}

// CatalogSource picks the product source named by CATALOG_SOURCE.
func (d *Dependencies) CatalogSource() catalog.Source {
	switch {
	case d.Config.CatalogSource == config.SourceDB && d.Queries != nil:
		return &catalog.DBSource{Queries: d.Queries, CatalogID: d.Config.CatalogID}
	case d.Sheets != nil:
		return d.Sheets
	default:
		d.Logger.Warn().Str("source", d.Config.CatalogSource).Msg("catalog source not configured, serving an empty catalog")
		return catalog.StaticSource{}
	}
}

// CatalogService builds the snapshot service over the configured source.
func (d *Dependencies) CatalogService() (*catalog.Service, error) {
	var overlay *catalog.ImageOverlay
	if d.Config.CatalogImagesFile != "" {
		overlay = catalog.NewImageOverlay(d.Config.CatalogImagesFile)
	}
	return catalog.NewService(catalog.ServiceConfig{
		Source:  d.CatalogSource(),
		Cache:   catalog.NewCache(d.Redis, d.Config.CatalogCacheTTL),
		Overlay: overlay,
		Logger:  d.Logger,
	})
}

// Jobs returns the enqueue side of the task queue.
func (d *Dependencies) Jobs() queue.Client {
	return queue.Client{
		Tasks:     d.Tasks,
		Queue:     d.Config.QueueName,
		MaxRetry:  d.Config.QueueMaxRetry,
		Timeout:   d.Config.QueueTimeout,
		UniqueFor: time.Minute,
	}
}

// Probes lists the readiness checks for the connected services.
func (d *Dependencies) Probes() map[string]health.Probe {
	probes := map[string]health.Probe{
		"redis": func(ctx context.Context) error { return d.Redis.Ping(ctx).Err() },
	}
	if d.DB != nil {
		probes["db"] = d.DB.Ping
	}
	return probes
}

// Close releases clients in reverse order of creation.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.Logger.Error().Err(err).Msg("close dependency")
		}
	}
	d.closers = nil
}
