package audit

import (
	"net/http"

	"github.com/noah-isme/catalogo-mayorista/internal/common"
	dbgen "github.com/noah-isme/catalogo-mayorista/internal/db/gen"
)

// Handler exposes the audit trail to administrators.
type Handler struct {
	Store Store
}

// List handles GET /api/v1/admin/audit?limit=&offset=.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "AUDIT_NOT_CONFIGURED", "audit store not configured", nil)
		return
	}
	limit := common.AtoiDefault(r.URL.Query().Get("limit"), 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := common.AtoiDefault(r.URL.Query().Get("offset"), 0)
	if offset < 0 {
		offset = 0
	}

	rows, err := h.Store.ListAuditLogs(r.Context(), dbgen.ListAuditLogsParams{Limit: int32(limit), Offset: int32(offset)})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "AUDIT_QUERY_FAILED", "unable to fetch audit logs", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows, "limit": limit, "offset": offset})
}
