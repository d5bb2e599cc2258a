package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/catalogo-mayorista/internal/common"
	dbgen "github.com/noah-isme/catalogo-mayorista/internal/db/gen"
	"github.com/noah-isme/catalogo-mayorista/internal/obs"
)

// Actors recorded when no admin subject is on the request.
const (
	ActorAnonymous = "anonymous"
	ActorSystem    = "system"
)

// Store defines the database operations required for auditing.
type Store interface {
	InsertAuditLog(ctx context.Context, arg dbgen.InsertAuditLogParams) (dbgen.InsertAuditLogRow, error)
	ListAuditLogs(ctx context.Context, arg dbgen.ListAuditLogsParams) ([]dbgen.AuditLog, error)
}

// Entry is one back office action.
type Entry struct {
	Actor        string
	Action       string
	ResourceType string
	ResourceID   string
	Status       int
	Metadata     map[string]any
}

// Service persists the admin audit trail.
type Service struct {
	Store   Store
	Enabled bool
}

// Record stores e for req. Empty action and resource fall back to the route.
func (s Service) Record(ctx context.Context, req *http.Request, e Entry) error {
	if !s.Enabled {
		return nil
	}
	if req == nil {
		return errors.New("audit: request is required")
	}
	if s.Store == nil {
		return errors.New("audit: store not configured")
	}

	route := routeOf(req)
	actor := strings.TrimSpace(e.Actor)
	if actor == "" {
		actor = ActorAnonymous
	}
	status := e.Status
	if status == 0 {
		status = http.StatusOK
	}

	_, err := s.Store.InsertAuditLog(ctx, dbgen.InsertAuditLogParams{
		Actor:        actor,
		Action:       buildAction(e.Action, req.Method, route),
		ResourceType: buildResource(e.ResourceType, route),
		ResourceID:   toText(e.ResourceID),
		Method:       req.Method,
		Path:         req.URL.Path,
		Status:       int32(status),
		Ip:           toText(common.ClientIP(req)),
		RequestID:    toText(req.Header.Get("X-Request-ID")),
		Metadata:     toJSONB(e.Metadata, req.URL.RawQuery),
	})
	return err
}

func routeOf(req *http.Request) string {
	if rc := chi.RouteContext(req.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	if pattern := obs.RoutePatternFromContext(req.Context()); pattern != "" {
		return pattern
	}
	return strings.TrimSpace(req.URL.Path)
}

func buildAction(action, method, route string) string {
	if trimmed := strings.TrimSpace(action); trimmed != "" {
		return trimmed
	}
	if route == "" {
		route = "/"
	}
	return strings.ToUpper(strings.TrimSpace(method)) + " " + route
}

func buildResource(resourceType, route string) string {
	if trimmed := strings.TrimSpace(resourceType); trimmed != "" {
		return trimmed
	}
	route = strings.TrimSpace(route)
	if route == "" {
		return "unknown"
	}
	segments := strings.Split(strings.Trim(route, "/"), "/")
	if len(segments) >= 3 && segments[0] == "api" && segments[1] == "v1" {
		segments = segments[2:]
	}
	kept := segments[:0]
	for _, seg := range segments {
		if strings.HasPrefix(seg, "{") {
			continue
		}
		kept = append(kept, seg)
	}
	return strings.Join(kept, ".")
}

func toText(value string) pgtype.Text {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: trimmed, Valid: true}
}

func toJSONB(metadata map[string]any, query string) []byte {
	if len(metadata) == 0 && strings.TrimSpace(query) == "" {
		return nil
	}
	payload := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		payload[k] = v
	}
	if strings.TrimSpace(query) != "" {
		payload["query"] = query
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}
