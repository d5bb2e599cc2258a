package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/catalogo-mayorista/internal/admin"
	"github.com/noah-isme/catalogo-mayorista/internal/catalog"
	"github.com/noah-isme/catalogo-mayorista/internal/obs"
	"github.com/noah-isme/catalogo-mayorista/internal/resilience"
	"github.com/noah-isme/catalogo-mayorista/internal/sheets"
)

// Refresher reloads the catalog snapshot.
type Refresher interface {
	Refresh(ctx context.Context) (catalog.Snapshot, error)
}

// Importer upserts spreadsheet rows into Postgres.
type Importer interface {
	ImportSheets(ctx context.Context) ([]admin.SheetResult, error)
}

// VariantBuilder turns staged originals into public variants.
type VariantBuilder interface {
	VariantsFromStaged(ctx context.Context, productID string, objectPaths []string) ([]string, error)
}

// ImageRecorder stores generated image URLs for a product.
type ImageRecorder interface {
	AttachImages(ctx context.Context, productID string, urls []string) error
}

// Publisher announces catalog changes to other processes.
type Publisher interface {
	Publish(ctx context.Context) error
}

// Worker holds the task handlers. Nil dependencies make their task fail
// without retry.
type Worker struct {
	Catalog  Refresher
	Notify   Publisher
	Importer Importer
	Media    VariantBuilder
	Images   ImageRecorder
	Jobs     Client
	Logger   zerolog.Logger
}

// Register mounts every handler on mux.
func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.Use(Observe(w.Logger))
	mux.HandleFunc(TypeCatalogRefresh, w.HandleCatalogRefresh)
	mux.HandleFunc(TypeSheetsImport, w.HandleSheetsImport)
	mux.HandleFunc(TypeMediaVariants, w.HandleMediaVariants)
}

// HandleCatalogRefresh checks that the source loads, then tells API replicas
// to reload.
func (w *Worker) HandleCatalogRefresh(ctx context.Context, _ *asynq.Task) error {
	if w.Catalog == nil && w.Notify == nil {
		return fmt.Errorf("catalog not configured: %w", asynq.SkipRetry)
	}
	if w.Catalog != nil {
		snap, err := w.Catalog.Refresh(ctx)
		if err != nil {
			return err
		}
		w.Logger.Info().Str("source", snap.Source).Int("products", len(snap.Products)).Msg("catalog refreshed")
	}
	if w.Notify != nil {
		return w.Notify.Publish(ctx)
	}
	return nil
}

func (w *Worker) HandleSheetsImport(ctx context.Context, _ *asynq.Task) error {
	if w.Importer == nil {
		return fmt.Errorf("importer not configured: %w", asynq.SkipRetry)
	}
	results, err := w.Importer.ImportSheets(ctx)
	if errors.Is(err, sheets.ErrNotConfigured) {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	if err != nil {
		return err
	}
	w.Logger.Info().Ints("imported", admin.ImportedCounts(results)).Msg("sheets imported")
	w.refresh(ctx)
	return nil
}

func (w *Worker) HandleMediaVariants(ctx context.Context, t *asynq.Task) error {
	if w.Media == nil || w.Images == nil {
		return fmt.Errorf("media not configured: %w", asynq.SkipRetry)
	}
	var p MediaVariantsPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.ProductID == "" || len(p.Objects) == 0 {
		return fmt.Errorf("empty payload: %w", asynq.SkipRetry)
	}
	urls, err := w.Media.VariantsFromStaged(ctx, p.ProductID, p.Objects)
	if err != nil {
		return err
	}
	if err := w.Images.AttachImages(ctx, p.ProductID, urls); err != nil {
		if errors.Is(err, admin.ErrNotFound) {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return err
	}
	w.Logger.Info().Str("product_id", p.ProductID).Int("variants", len(urls)).Msg("image variants stored")
	w.refresh(ctx)
	return nil
}

func (w *Worker) refresh(ctx context.Context) {
	if w.Jobs.Tasks == nil {
		return
	}
	if _, err := w.Jobs.EnqueueCatalogRefresh(ctx); err != nil {
		w.Logger.Warn().Err(err).Msg("enqueue catalog refresh")
	}
}

// Observe logs and counts every processed task.
func Observe(logger zerolog.Logger) asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
			start := time.Now()
			taskID, _ := asynq.GetTaskID(ctx)
			retried, _ := asynq.GetRetryCount(ctx)
			ctx, span := obs.StartSpan(ctx, "task "+t.Type(),
				attribute.String("task.id", taskID),
				attribute.Int("task.retried", retried),
			)
			err := next.ProcessTask(ctx, t)
			obs.EndSpan(span, err)
			obs.ObserveTask(t.Type(), err)

			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}
			evt.Str("task_type", t.Type()).
				Str("task_id", taskID).
				Int("retried", retried).
				Dur("duration", time.Since(start)).
				Msg("task processed")
			return err
		})
	}
}

// RetryDelay backs off exponentially from base with jitter.
func RetryDelay(base time.Duration, jitterPct float64) asynq.RetryDelayFunc {
	return func(n int, _ error, _ *asynq.Task) time.Duration {
		return resilience.Backoff(base, n+1, jitterPct)
	}
}

// Logger adapts zerolog to asynq's logger.
type Logger struct {
	L zerolog.Logger
}

func (l Logger) Debug(args ...any) { l.L.Debug().Msg(fmt.Sprint(args...)) }
func (l Logger) Info(args ...any)  { l.L.Info().Msg(fmt.Sprint(args...)) }
func (l Logger) Warn(args ...any)  { l.L.Warn().Msg(fmt.Sprint(args...)) }
func (l Logger) Error(args ...any) { l.L.Error().Msg(fmt.Sprint(args...)) }
func (l Logger) Fatal(args ...any) { l.L.Fatal().Msg(fmt.Sprint(args...)) }

// RegisterSchedule adds the periodic catalog refresh to s.
func RegisterSchedule(s *asynq.Scheduler, every time.Duration, queueName string) (string, error) {
	if every <= 0 {
		return "", errors.New("queue: refresh interval must be positive")
	}
	if queueName == "" {
		queueName = DefaultQueue
	}
	return s.Register(fmt.Sprintf("@every %s", every), NewCatalogRefreshTask(), asynq.Queue(queueName), asynq.Unique(every))
}
