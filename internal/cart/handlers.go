package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/catalogo-mayorista/internal/common"
)

const (
	// SessionHeader carries the cart session id for API clients.
	SessionHeader = "X-Cart-Session"
	// SessionCookie carries the cart session id for browsers.
	SessionCookie = "cart_session"
)

// SessionOptions controls the session cookie.
type SessionOptions struct {
	TTL      time.Duration
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

// Session returns the cart session of the request, minting a new one when the
// request carries none. The id is echoed in the response header and cookie.
func Session(w http.ResponseWriter, r *http.Request, opts SessionOptions) string {
	id := strings.TrimSpace(r.Header.Get(SessionHeader))
	if id == "" {
		if c, err := r.Cookie(SessionCookie); err == nil {
			id = strings.TrimSpace(c.Value)
		}
	}
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	w.Header().Set(SessionHeader, id)
	cookie := &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		Domain:   opts.Domain,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	}
	if opts.TTL > 0 {
		cookie.MaxAge = int(opts.TTL / time.Second)
	}
	if cookie.SameSite == 0 {
		cookie.SameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, cookie)
	return id
}

// Handler wires cart services to HTTP.
type Handler struct {
	Svc     *Service
	Session SessionOptions
}

type itemPayload struct {
	ProductID string `json:"product_id"`
	Quantity  *int   `json:"quantity"`
}

// Get handles GET /api/v1/cart.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	session := Session(w, r, h.Session)
	summary, err := h.Svc.Get(r.Context(), session)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, session, summary)
}

// AddItem handles POST /api/v1/cart/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	var payload itemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	payload.ProductID = strings.TrimSpace(payload.ProductID)
	if payload.ProductID == "" {
		common.WriteError(w, common.BadRequest("product_id", "product_id is required"))
		return
	}
	if payload.Quantity == nil || *payload.Quantity < 1 {
		common.WriteError(w, common.BadRequest("quantity", "quantity must be at least 1"))
		return
	}
	session := Session(w, r, h.Session)
	summary, err := h.Svc.Add(r.Context(), session, payload.ProductID, *payload.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, session, summary)
}

// UpdateItem handles PATCH /api/v1/cart/items/{productID}.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	var payload itemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if payload.Quantity == nil || *payload.Quantity < 0 {
		common.WriteError(w, common.BadRequest("quantity", "quantity must be zero or positive"))
		return
	}
	session := Session(w, r, h.Session)
	summary, err := h.Svc.Update(r.Context(), session, chi.URLParam(r, "productID"), *payload.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, session, summary)
}

// RemoveItem handles DELETE /api/v1/cart/items/{productID}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	session := Session(w, r, h.Session)
	summary, err := h.Svc.Remove(r.Context(), session, chi.URLParam(r, "productID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, session, summary)
}

// Clear handles DELETE /api/v1/cart.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	session := Session(w, r, h.Session)
	summary, err := h.Svc.Clear(r.Context(), session)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, session, summary)
}

// Quote handles GET /api/v1/cart/quote?product_id=.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	productID := strings.TrimSpace(r.URL.Query().Get("product_id"))
	if productID == "" {
		common.WriteError(w, common.BadRequest("product_id", "product_id is required"))
		return
	}
	session := Session(w, r, h.Session)
	quote, err := h.Svc.Quote(r.Context(), session, productID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": quote, "session": session})
}

func (h *Handler) respond(w http.ResponseWriter, status int, session string, summary Summary) {
	common.JSON(w, status, map[string]any{"data": summary, "session": session})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if err == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unknown error", nil)
		return
	}
	if common.IsAppError(err) {
		common.WriteError(w, err)
		return
	}
	switch {
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrBusy):
		common.JSONError(w, http.StatusConflict, "CART_BUSY", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart operation failed", nil)
	}
}
