package audit

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/catalogo-mayorista/internal/common"
	"github.com/noah-isme/catalogo-mayorista/internal/obs"
)

// HTTPRecorder records admin requests after they have been handled.
type HTTPRecorder struct {
	Service Service
	OnError func(error)
}

// HTTPConfig names the action a route performs.
type HTTPConfig struct {
	Action          string
	ResourceType    string
	ResourceIDParam string
}

// Middleware returns a chi middleware that records one entry per request.
func (r HTTPRecorder) Middleware(cfg HTTPConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !r.Service.Enabled {
				next.ServeHTTP(w, req)
				return
			}
			rec := obs.NewStatusRecorder(w)
			next.ServeHTTP(rec, req)

			actor, _ := common.Subject(req.Context())
			entry := Entry{
				Actor:        actor,
				Action:       cfg.Action,
				ResourceType: cfg.ResourceType,
				Status:       rec.Status(),
			}
			if cfg.ResourceIDParam != "" {
				entry.ResourceID = chi.URLParam(req, cfg.ResourceIDParam)
			}
			if err := r.Service.Record(req.Context(), req, entry); err != nil && r.OnError != nil {
				r.OnError(err)
			}
		})
	}
}
