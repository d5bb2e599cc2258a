package branding

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/catalogo-mayorista/internal/common"
)

type Handler struct {
	Svc *Service
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if common.IsAppError(err) {
		common.WriteError(w, err)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "branding unavailable", nil)
}

// Get handles GET /api/v1/branding/{catalogID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.Svc.Get(r.Context(), chi.URLParam(r, "catalogID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": b})
}

// Update handles PUT /api/v1/admin/branding/{catalogID}. It accepts either a
// JSON body or a multipart form with color fields and an optional "logo" file.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	in := Input{CatalogID: chi.URLParam(r, "catalogID")}
	var logo *Logo

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(MaxLogoBytes + (1 << 20)); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid multipart form", nil)
			return
		}
		defer r.MultipartForm.RemoveAll()
		in.PrimaryColor = r.FormValue("primary_color")
		in.SecondaryColor = r.FormValue("secondary_color")

		f, fh, err := r.FormFile("logo")
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid logo", nil)
			return
		default:
			data, err := io.ReadAll(io.LimitReader(f, MaxLogoBytes+1))
			f.Close()
			if err != nil {
				common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid logo", nil)
				return
			}
			logo = &Logo{Filename: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Data: data}
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
			return
		}
		in.CatalogID = chi.URLParam(r, "catalogID")
	}

	b, err := h.Svc.Update(r.Context(), in, logo)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": b})
}
