package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/catalogo-mayorista/internal/common"
	"github.com/noah-isme/catalogo-mayorista/internal/sheets"
)

const (
	// MaxImageFiles caps the files accepted by one image upload.
	MaxImageFiles = 10
	// MaxImageBytes caps a single uploaded image.
	MaxImageBytes = 10 << 20

	multipartMemory = 32 << 20
)

// Jobs enqueues background work. A nil Jobs keeps everything inline.
type Jobs interface {
	EnqueueCatalogRefresh(ctx context.Context) (string, error)
	EnqueueSheetsImport(ctx context.Context) (string, error)
	EnqueueMediaVariants(ctx context.Context, productID string, objectPaths []string) (string, error)
}

// ImageUploader stores product images.
type ImageUploader interface {
	ProductImages(ctx context.Context, productID string, files [][]byte) ([]string, error)
	StageOriginal(ctx context.Context, productID, contentType string, data []byte) (string, error)
}

// Handler serves the product back office. Zero upload limits fall back to
// MaxImageFiles and MaxImageBytes.
type Handler struct {
	Svc          *Service
	Uploader     ImageUploader
	Jobs         Jobs
	Logger       zerolog.Logger
	MaxFiles     int
	MaxFileBytes int64
}

func (h *Handler) maxFiles() int {
	if h.MaxFiles > 0 {
		return h.MaxFiles
	}
	return MaxImageFiles
}

func (h *Handler) maxFileBytes() int64 {
	if h.MaxFileBytes > 0 {
		return h.MaxFileBytes
	}
	return MaxImageBytes
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
	case errors.Is(err, ErrConflict):
		common.JSONError(w, http.StatusConflict, "CONFLICT", "sku already exists", nil)
	case errors.Is(err, sheets.ErrNotConfigured):
		common.JSONError(w, http.StatusBadRequest, "SHEETS_NOT_CONFIGURED", "Google Sheets import is not configured", nil)
	case common.IsAppError(err):
		common.WriteError(w, err)
	default:
		h.Logger.Error().Err(err).Msg("admin request failed")
		common.WriteError(w, err)
	}
}

// refresh asks the catalog to reload after a write. Failures only log.
func (h *Handler) refresh(ctx context.Context) {
	if h.Jobs == nil {
		return
	}
	if _, err := h.Jobs.EnqueueCatalogRefresh(ctx); err != nil {
		h.Logger.Warn().Err(err).Msg("enqueue catalog refresh")
	}
}

func decodeInput(r *http.Request) (ProductInput, error) {
	var in ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		return in, common.NewAppError("BAD_REQUEST", "invalid JSON body", http.StatusBadRequest, err)
	}
	return in, nil
}

// List handles GET /api/v1/admin/products.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.Svc.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": products})
}

// Get handles GET /api/v1/admin/products/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	p, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": p})
}

// Create handles POST /api/v1/admin/products.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	in, err := decodeInput(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	p, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.refresh(r.Context())
	common.JSON(w, http.StatusCreated, map[string]any{"data": p})
}

// Update handles PUT /api/v1/admin/products/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	in, err := decodeInput(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	p, err := h.Svc.Update(r.Context(), id, in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.refresh(r.Context())
	common.JSON(w, http.StatusOK, map[string]any{"data": p})
}

// Delete handles DELETE /api/v1/admin/products/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	h.refresh(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func readUpload(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	tooLarge := common.NewAppError("FILE_TOO_LARGE", fmt.Sprintf("%s exceeds %d bytes", fh.Filename, limit), http.StatusRequestEntityTooLarge, nil)
	if fh.Size > limit {
		return nil, tooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, tooLarge
	}
	return data, nil
}

// UploadImages handles POST /api/v1/admin/products/{id}/images. With
// ?async=true the originals are staged and variants are built by the worker.
func (h *Handler) UploadImages(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if _, err := h.Svc.Get(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	if h.Uploader == nil {
		common.JSONError(w, http.StatusServiceUnavailable, "MEDIA_NOT_CONFIGURED", "image storage is not configured", nil)
		return
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "Sin archivos", nil)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["images"]
	if len(headers) == 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "Sin archivos", nil)
		return
	}
	if len(headers) > h.maxFiles() {
		common.JSONError(w, http.StatusBadRequest, "TOO_MANY_FILES", fmt.Sprintf("at most %d files per upload", h.maxFiles()), nil)
		return
	}
	files := make([][]byte, 0, len(headers))
	for _, fh := range headers {
		data, err := readUpload(fh, h.maxFileBytes())
		if err != nil {
			h.writeError(w, err)
			return
		}
		files = append(files, data)
	}

	productID := chi.URLParam(r, "id")
	ctx := r.Context()
	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async && h.Jobs != nil {
		staged := make([]string, 0, len(files))
		for _, data := range files {
			p, err := h.Uploader.StageOriginal(ctx, productID, http.DetectContentType(data), data)
			if err != nil {
				common.JSONError(w, http.StatusBadRequest, "INVALID_IMAGE", err.Error(), nil)
				return
			}
			staged = append(staged, p)
		}
		taskID, err := h.Jobs.EnqueueMediaVariants(ctx, productID, staged)
		if err != nil {
			h.writeError(w, err)
			return
		}
		common.JSON(w, http.StatusAccepted, map[string]any{"task_id": taskID, "staged": staged})
		return
	}

	urls, err := h.Uploader.ProductImages(ctx, productID, files)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_IMAGE", err.Error(), nil)
		return
	}
	if err := h.Svc.AttachImages(ctx, productID, urls); err != nil {
		h.writeError(w, err)
		return
	}
	h.refresh(ctx)
	common.JSON(w, http.StatusCreated, map[string]any{"urls": urls})
}

// ExportJSON handles GET /api/v1/admin/export/json.
func (h *Handler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	products, err := h.Svc.ExportProducts(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"products": products})
}

// ExportCSV handles GET /api/v1/admin/export/csv.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	products, err := h.Svc.ExportProducts(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="productos.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, ProductsCSV(products))
}

// ImportSheets handles POST /api/v1/admin/import/sheets. With ?async=true the
// import runs on the worker and the task id is returned.
func (h *Handler) ImportSheets(w http.ResponseWriter, r *http.Request) {
	if h.Svc.Sheets == nil {
		h.writeError(w, sheets.ErrNotConfigured)
		return
	}
	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async && h.Jobs != nil {
		taskID, err := h.Jobs.EnqueueSheetsImport(r.Context())
		if err != nil {
			h.writeError(w, err)
			return
		}
		common.JSON(w, http.StatusAccepted, map[string]any{"task_id": taskID})
		return
	}
	results, err := h.Svc.ImportSheets(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.refresh(r.Context())
	common.JSON(w, http.StatusOK, map[string]any{
		"imported": ImportedCounts(results),
		"sheets":   results,
	})
}
