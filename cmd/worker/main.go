package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/noah-isme/catalogo-mayorista/internal/admin"
	"github.com/noah-isme/catalogo-mayorista/internal/app"
	"github.com/noah-isme/catalogo-mayorista/internal/config"
	"github.com/noah-isme/catalogo-mayorista/internal/health"
	"github.com/noah-isme/catalogo-mayorista/internal/media"
	"github.com/noah-isme/catalogo-mayorista/internal/obs"
	"github.com/noah-isme/catalogo-mayorista/internal/queue"
)

const serviceName = "catalogo-worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(serviceName, cfg.LogFormat, cfg.LogLevel).With().Str("component", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, obs.TracingConfig{
		ServiceName:   serviceName,
		Endpoint:      cfg.TracingEndpoint,
		Exporter:      cfg.TracingExporter,
		SamplingRatio: cfg.TracingSampling,
		Environment:   cfg.AppEnv,
	})
	if err != nil {
		logger.Error().Err(err).Msg("initialise tracing")
	} else {
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				logger.Error().Err(err).Msg("shutdown tracer")
			}
		}()
	}

	deps, err := app.New(ctx, cfg, serviceName, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise dependencies")
	}
	defer deps.Close()

	catalogService, err := deps.CatalogService()
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}

	worker := &queue.Worker{
		Catalog: catalogService,
		Notify:  queue.Broadcast{Client: deps.Redis},
		Media:   &media.Uploader{Store: deps.Objects},
		Jobs:    deps.Jobs(),
		Logger:  logger,
	}
	if deps.Queries != nil {
		adminService := &admin.Service{Queries: deps.Queries, Validate: deps.Validator, Logger: logger}
		if deps.Sheets != nil {
			adminService.Sheets = deps.Sheets
		}
		worker.Importer = adminService
		worker.Images = adminService
	}

	mux := asynq.NewServeMux()
	worker.Register(mux)

	taskLogger := queue.Logger{L: logger}
	srv := asynq.NewServer(deps.RedisOpt, asynq.Config{
		Concurrency:    cfg.WorkerConcurrency,
		Queues:         map[string]int{cfg.QueueName: 1},
		Logger:         taskLogger,
		RetryDelayFunc: queue.RetryDelay(cfg.QueueRetryBase, 0.2),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, t *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			if retried >= maxRetry || errors.Is(err, asynq.SkipRetry) {
				logger.Error().Err(err).Str("task_type", t.Type()).Msg("task archived")
			}
		}),
		ShutdownTimeout: cfg.ShutdownTimeout,
	})

	scheduler := asynq.NewScheduler(deps.RedisOpt, &asynq.SchedulerOpts{Logger: taskLogger, Location: time.UTC})
	if cfg.CatalogRefreshInterval > 0 {
		entryID, err := queue.RegisterSchedule(scheduler, cfg.CatalogRefreshInterval, cfg.QueueName)
		if err != nil {
			logger.Fatal().Err(err).Msg("register catalog refresh schedule")
		}
		logger.Info().Str("entry_id", entryID).Dur("every", cfg.CatalogRefreshInterval).Msg("catalog refresh scheduled")
	}

	if deps.Registry != nil {
		deps.Registry.MustRegister(queue.Collector{Inspector: deps.Inspector, Queues: []string{cfg.QueueName}, Logger: logger})
	}
	opsServer := newOpsServer(cfg.WorkerHTTPAddr, deps)
	go func() {
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("ops server stopped")
		}
	}()

	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start task server")
	}
	if err := scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("start scheduler")
	}
	logger.Info().Int("concurrency", cfg.WorkerConcurrency).Str("queue", cfg.QueueName).Msg("worker starting")

	<-ctx.Done()
	health.SetReady(false)
	scheduler.Shutdown()
	srv.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("ops server shutdown")
	}
	logger.Info().Msg("worker shutdown complete")
}

func newOpsServer(addr string, deps *app.Dependencies) *http.Server {
	r := chi.NewRouter()
	hh := health.Handler{Probes: deps.Probes(), Timeout: deps.Config.ReadyTimeout}
	r.Get("/health/live", hh.Live)
	r.Get("/health/ready", hh.Ready)
	if deps.Registry != nil {
		r.Handle("/metrics", obs.MetricsHandler(deps.Registry))
	}
	return &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
}
