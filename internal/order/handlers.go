package order

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/noah-isme/catalogo-mayorista/internal/cart"
	"github.com/noah-isme/catalogo-mayorista/internal/common"
	"github.com/noah-isme/catalogo-mayorista/internal/obs"
)

// Handler exposes the order export of the session cart.
type Handler struct {
	Cart      *cart.Service
	Session   cart.SessionOptions
	Formatter *Formatter
	Phone     string
	Logger    zerolog.Logger
}

// Export handles GET /api/v1/cart/order. ?format=text returns the bare text.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	if h.Cart == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	formatter := h.Formatter
	if formatter == nil {
		formatter = NewFormatter(Options{})
	}
	session := cart.Session(w, r, h.Session)
	summary, err := h.Cart.Get(r.Context(), session)
	if err != nil {
		h.Logger.Error().Err(err).Msg("order export failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load cart", nil)
		return
	}
	if len(summary.Lines) == 0 {
		common.JSONError(w, http.StatusUnprocessableEntity, "EMPTY_CART", "cart is empty", nil)
		return
	}

	text := formatter.Format(summary)
	obs.ObserveOrderExport()

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(text))
		return
	}
	resp := map[string]any{
		"text":    text,
		"summary": summary,
		"session": session,
	}
	if link := ShareLink(h.Phone, text); link != "" {
		resp["whatsappUrl"] = link
	}
	common.JSON(w, http.StatusOK, resp)
}
