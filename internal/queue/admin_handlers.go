package queue

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/catalogo-mayorista/internal/common"
)

// Inspector is the read/replay subset of *asynq.Inspector.
type Inspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
	ListArchivedTasks(queue string, opts ...asynq.ListOption) ([]*asynq.TaskInfo, error)
	RunTask(queue, id string) error
	DeleteTask(queue, id string) error
}

// AdminHandler exposes queue stats and the archived (dead letter) tasks.
type AdminHandler struct {
	Inspector Inspector
	Queue     string
	PageSize  int
	Logger    zerolog.Logger
}

func (h *AdminHandler) queue() string {
	if h.Queue == "" {
		return DefaultQueue
	}
	return h.Queue
}

func (h *AdminHandler) pageSize() int {
	if h.PageSize <= 0 {
		return 50
	}
	return h.PageSize
}

func (h *AdminHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, asynq.ErrQueueNotFound):
		common.JSON(w, http.StatusOK, map[string]any{"data": []archivedItem{}, "total": 0})
	case errors.Is(err, asynq.ErrTaskNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "task not found", nil)
	default:
		h.Logger.Error().Err(err).Msg("queue inspector")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "queue unavailable", nil)
	}
}

// Stats handles GET /api/v1/admin/queue/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Inspector == nil {
		common.JSONError(w, http.StatusServiceUnavailable, "QUEUE_DISABLED", "background jobs are not configured", nil)
		return
	}
	info, err := h.Inspector.GetQueueInfo(h.queue())
	if errors.Is(err, asynq.ErrQueueNotFound) {
		common.JSON(w, http.StatusOK, map[string]any{"queue": h.queue(), "size": 0})
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"queue":      info.Queue,
		"size":       info.Size,
		"pending":    info.Pending,
		"active":     info.Active,
		"scheduled":  info.Scheduled,
		"retry":      info.Retry,
		"archived":   info.Archived,
		"completed":  info.Completed,
		"processed":  info.Processed,
		"failed":     info.Failed,
		"paused":     info.Paused,
		"latency_ms": info.Latency.Milliseconds(),
	})
}

type archivedItem struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Payload      string    `json:"payload,omitempty"`
	Retried      int       `json:"retried"`
	MaxRetry     int       `json:"maxRetry"`
	LastError    string    `json:"lastError,omitempty"`
	LastFailedAt time.Time `json:"lastFailedAt"`
}

// ListArchived handles GET /api/v1/admin/queue/archived?page=&limit=.
func (h *AdminHandler) ListArchived(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Inspector == nil {
		common.JSONError(w, http.StatusServiceUnavailable, "QUEUE_DISABLED", "background jobs are not configured", nil)
		return
	}
	page, limit := parsePage(r, h.pageSize())
	tasks, err := h.Inspector.ListArchivedTasks(h.queue(), asynq.Page(page), asynq.PageSize(limit))
	if err != nil {
		h.writeError(w, err)
		return
	}
	items := make([]archivedItem, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, archivedItem{
			ID:           t.ID,
			Type:         t.Type,
			Payload:      string(t.Payload),
			Retried:      t.Retried,
			MaxRetry:     t.MaxRetry,
			LastError:    t.LastErr,
			LastFailedAt: t.LastFailedAt,
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":  items,
		"page":  page,
		"limit": limit,
	})
}

// RunArchived handles POST /api/v1/admin/queue/archived/{taskID}/run.
func (h *AdminHandler) RunArchived(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Inspector == nil {
		common.JSONError(w, http.StatusServiceUnavailable, "QUEUE_DISABLED", "background jobs are not configured", nil)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "taskID"))
	if id == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "task id is required", nil)
		return
	}
	if err := h.Inspector.RunTask(h.queue(), id); err != nil {
		h.writeError(w, err)
		return
	}
	h.Logger.Info().Str("task_id", id).Msg("archived task replayed")
	common.JSON(w, http.StatusOK, map[string]any{"replayed": id})
}

// DeleteArchived handles DELETE /api/v1/admin/queue/archived/{taskID}.
func (h *AdminHandler) DeleteArchived(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Inspector == nil {
		common.JSONError(w, http.StatusServiceUnavailable, "QUEUE_DISABLED", "background jobs are not configured", nil)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "taskID"))
	if err := h.Inspector.DeleteTask(h.queue(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parsePage(r *http.Request, defaultLimit int) (page, limit int) {
	page, limit = 1, defaultLimit
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("page")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			page = parsed
		}
	}
	return page, limit
}
