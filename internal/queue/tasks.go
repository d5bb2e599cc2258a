package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
)

// Task types handled by the worker.
const (
	TypeCatalogRefresh = "catalog:refresh"
	TypeSheetsImport   = "sheets:import"
	TypeMediaVariants  = "media:variants"

	DefaultQueue = "default"
)

// MediaVariantsPayload points at staged originals of one product.
type MediaVariantsPayload struct {
	ProductID string   `json:"product_id"`
	Objects   []string `json:"objects"`
}

// TaskEnqueuer is satisfied by *asynq.Client.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Client publishes domain tasks. Duplicate refreshes and imports inside
// UniqueFor are dropped.
type Client struct {
	Tasks     TaskEnqueuer
	Queue     string
	MaxRetry  int
	Timeout   time.Duration
	UniqueFor time.Duration
}

func (c Client) options(unique bool) []asynq.Option {
	q := c.Queue
	if q == "" {
		q = DefaultQueue
	}
	opts := []asynq.Option{asynq.Queue(q)}
	if c.MaxRetry > 0 {
		opts = append(opts, asynq.MaxRetry(c.MaxRetry))
	}
	if c.Timeout > 0 {
		opts = append(opts, asynq.Timeout(c.Timeout))
	}
	if unique && c.UniqueFor > 0 {
		opts = append(opts, asynq.Unique(c.UniqueFor))
	}
	return opts
}

func (c Client) enqueue(ctx context.Context, task *asynq.Task, unique bool) (string, error) {
	if c.Tasks == nil {
		return "", errors.New("queue: task client not configured")
	}
	info, err := c.Tasks.EnqueueContext(ctx, task, c.options(unique)...)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	return info.ID, nil
}

// NewCatalogRefreshTask builds a catalog reload task.
func NewCatalogRefreshTask() *asynq.Task {
	return asynq.NewTask(TypeCatalogRefresh, nil)
}

// NewSheetsImportTask builds a spreadsheet import task.
func NewSheetsImportTask() *asynq.Task {
	return asynq.NewTask(TypeSheetsImport, nil)
}

// NewMediaVariantsTask builds a variant generation task for staged originals.
func NewMediaVariantsTask(productID string, objects []string) (*asynq.Task, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" || len(objects) == 0 {
		return nil, errors.New("queue: product id and staged objects are required")
	}
	payload, err := json.Marshal(MediaVariantsPayload{ProductID: productID, Objects: objects})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeMediaVariants, payload), nil
}

// EnqueueCatalogRefresh schedules a catalog reload.
func (c Client) EnqueueCatalogRefresh(ctx context.Context) (string, error) {
	return c.enqueue(ctx, NewCatalogRefreshTask(), true)
}

// EnqueueSheetsImport schedules a spreadsheet import.
func (c Client) EnqueueSheetsImport(ctx context.Context) (string, error) {
	return c.enqueue(ctx, NewSheetsImportTask(), true)
}

// EnqueueMediaVariants schedules variant generation for staged originals.
func (c Client) EnqueueMediaVariants(ctx context.Context, productID string, objects []string) (string, error) {
	task, err := NewMediaVariantsTask(productID, objects)
	if err != nil {
		return "", err
	}
	return c.enqueue(ctx, task, false)
}
