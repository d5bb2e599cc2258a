package admin_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/catalogo-mayorista/internal/admin"
	"github.com/noah-isme/catalogo-mayorista/internal/media"
	"github.com/noah-isme/catalogo-mayorista/internal/sheets"
)

func withID(req *http.Request, id string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func pngFile(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	img.Set(1, 1, color.RGBA{G: 180, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartBody(t *testing.T, field string, files ...[]byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for i, data := range files {
		part, err := mw.CreateFormFile(field, "img"+string(rune('a'+i))+".png")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

type handlerFixture struct {
	h     *admin.Handler
	q     *fakeQueries
	jobs  *fakeJobs
	store *media.MemoryStore
}

func newHandlerFixture() handlerFixture {
	q := newFakeQueries()
	jobs := &fakeJobs{}
	store := &media.MemoryStore{Bucket: "catalogo", BaseURL: "https://storage.test"}
	return handlerFixture{
		h: &admin.Handler{
			Svc:      newService(q),
			Uploader: &media.Uploader{Store: store, Variants: []media.Variant{{Suffix: "thumb", Width: 16}}},
			Jobs:     jobs,
			Logger:   zerolog.Nop(),
		},
		q:     q,
		jobs:  jobs,
		store: store,
	}
}

func (f handlerFixture) create(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", strings.NewReader(body)))
	return rec
}

func createdID(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Data admin.Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Data.ID
}

func TestProductCRUDHandlers(t *testing.T) {
	f := newHandlerFixture()

	rec := f.create(t, `{"nombre":"Paleta","sku":"P-1","precio1":"$100","stock":2}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := createdID(t, rec)
	require.Equal(t, 1, f.jobs.refreshes)

	rec = f.create(t, `{"nombre":"Otra","sku":"P-1"}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = f.create(t, `{"sku":"P-2"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Nombre y SKU son obligatorios")

	rec = f.create(t, `{"nombre":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	f.h.Update(rec, withID(httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"nombre":"Paleta Pro","sku":"P-1","stock":5}`)), id))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"Paleta Pro"`)

	rec = httptest.NewRecorder()
	f.h.List(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"stock":5`)

	rec = httptest.NewRecorder()
	f.h.Get(rec, withID(httptest.NewRequest(http.MethodGet, "/", nil), "bogus"))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	f.h.Delete(rec, withID(httptest.NewRequest(http.MethodDelete, "/", nil), id))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	f.h.Delete(rec, withID(httptest.NewRequest(http.MethodDelete, "/", nil), id))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadImages(t *testing.T) {
	f := newHandlerFixture()
	id := createdID(t, f.create(t, `{"nombre":"Paleta","sku":"P-1"}`))

	upload := func(target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
		req := withID(httptest.NewRequest(http.MethodPost, target, body), id)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		f.h.UploadImages(rec, req)
		return rec
	}

	t.Run("no files", func(t *testing.T) {
		body, ct := multipartBody(t, "other", pngFile(t))
		rec := upload("/", body, ct)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "Sin archivos")
	})

	t.Run("too many files", func(t *testing.T) {
		files := make([][]byte, admin.MaxImageFiles+1)
		for i := range files {
			files[i] = []byte("x")
		}
		body, ct := multipartBody(t, "images", files...)
		rec := upload("/", body, ct)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not an image", func(t *testing.T) {
		body, ct := multipartBody(t, "images", []byte("hello"))
		rec := upload("/", body, ct)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Empty(t, f.q.images)
	})

	t.Run("sync", func(t *testing.T) {
		body, ct := multipartBody(t, "images", pngFile(t), pngFile(t))
		rec := upload("/", body, ct)
		require.Equal(t, http.StatusCreated, rec.Code)
		var resp struct {
			URLs []string `json:"urls"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.URLs, 2)
		require.True(t, strings.HasPrefix(resp.URLs[0], "https://storage.test/catalogo/products/"+id+"/"))
		require.Len(t, f.q.images, 2)
	})

	t.Run("async stages originals", func(t *testing.T) {
		body, ct := multipartBody(t, "images", pngFile(t))
		rec := upload("/?async=true", body, ct)
		require.Equal(t, http.StatusAccepted, rec.Code)
		require.Contains(t, rec.Body.String(), `"task_id":"variants-1"`)
		staged := f.jobs.variants[id]
		require.Len(t, staged, 1)
		obj, ok := f.store.Object(staged[0])
		require.True(t, ok)
		require.Equal(t, "image/png", obj.ContentType)
	})

	t.Run("unknown product", func(t *testing.T) {
		body, ct := multipartBody(t, "images", pngFile(t))
		req := withID(httptest.NewRequest(http.MethodPost, "/", body), "2b1c6a55-1f5e-4c11-9f0e-8e0f1d4bc001")
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		f.h.UploadImages(rec, req)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestExportHandlers(t *testing.T) {
	f := newHandlerFixture()

	rec := httptest.NewRecorder()
	f.h.ExportCSV(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Body.String())
	require.Contains(t, rec.Header().Get("Content-Disposition"), "productos.csv")

	f.create(t, `{"nombre":"Paleta","sku":"P-1"}`)

	rec = httptest.NewRecorder()
	f.h.ExportCSV(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, 2, len(strings.Split(rec.Body.String(), "\n")))

	rec = httptest.NewRecorder()
	f.h.ExportJSON(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	var resp struct {
		Products []admin.Product `json:"products"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Products, 1)
	require.Equal(t, "P-1", resp.Products[0].SKU)
}

func TestImportSheetsHandler(t *testing.T) {
	f := newHandlerFixture()

	rec := httptest.NewRecorder()
	f.h.ImportSheets(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	f.h.Svc.Sheets = fakeSheets{err: sheets.ErrNotConfigured}
	rec = httptest.NewRecorder()
	f.h.ImportSheets(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	f.h.Svc.Sheets = fakeSheets{imports: []sheets.SheetImport{
		{Sheet: "Paletas", Rows: []sheets.ImportRow{{Nombre: "A", SKU: "A-1"}, {Nombre: "B", SKU: "B-1"}}},
	}}
	rec = httptest.NewRecorder()
	f.h.ImportSheets(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"imported":[2]`)

	rec = httptest.NewRecorder()
	f.h.ImportSheets(rec, httptest.NewRequest(http.MethodPost, "/?async=true", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, 1, f.jobs.imports)
}
