package admin_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	dbgen "github.com/noah-isme/catalogo-mayorista/internal/db/gen"
	"github.com/noah-isme/catalogo-mayorista/internal/sheets"
)

type fakeQueries struct {
	mu       sync.Mutex
	products map[[16]byte]dbgen.Product
	images   []dbgen.Image
	upserts  []dbgen.UpsertProductBySKUParams
	failSKU  string
	clock    time.Time
}

func newFakeQueries() *fakeQueries {
	return &fakeQueries{
		products: make(map[[16]byte]dbgen.Product),
		clock:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeQueries) tick() pgtype.Timestamptz {
	f.clock = f.clock.Add(time.Second)
	return pgtype.Timestamptz{Time: f.clock, Valid: true}
}

func (f *fakeQueries) skuTaken(sku string, except [16]byte) bool {
	for id, p := range f.products {
		if p.Sku == sku && id != except {
			return true
		}
	}
	return false
}

func (f *fakeQueries) ListProducts(context.Context) ([]dbgen.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]dbgen.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Time.After(out[j].CreatedAt.Time) })
	return out, nil
}

func (f *fakeQueries) GetProduct(_ context.Context, id pgtype.UUID) (dbgen.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id.Bytes]
	if !ok {
		return dbgen.Product{}, pgx.ErrNoRows
	}
	return p, nil
}

func (f *fakeQueries) CreateProduct(_ context.Context, arg dbgen.CreateProductParams) (dbgen.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.skuTaken(arg.Sku, [16]byte{}) {
		return dbgen.Product{}, &pgconn.PgError{Code: "23505", ConstraintName: "products_sku_key"}
	}
	ts := f.tick()
	p := dbgen.Product{
		ID:          pgtype.UUID{Bytes: uuid.New(), Valid: true},
		CatalogID:   arg.CatalogID,
		Nombre:      arg.Nombre,
		Sku:         arg.Sku,
		Marca:       arg.Marca,
		Descripcion: arg.Descripcion,
		Categoria:   arg.Categoria,
		Precio1:     arg.Precio1,
		Precio2:     arg.Precio2,
		Precio3:     arg.Precio3,
		Stock:       arg.Stock,
		Variantes:   arg.Variantes,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	f.products[p.ID.Bytes] = p
	return p, nil
}

func (f *fakeQueries) UpdateProduct(_ context.Context, arg dbgen.UpdateProductParams) (dbgen.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[arg.ID.Bytes]
	if !ok {
		return dbgen.Product{}, pgx.ErrNoRows
	}
	if f.skuTaken(arg.Sku, arg.ID.Bytes) {
		return dbgen.Product{}, &pgconn.PgError{Code: "23505"}
	}
	p.Nombre, p.Sku, p.Marca, p.Descripcion, p.Categoria = arg.Nombre, arg.Sku, arg.Marca, arg.Descripcion, arg.Categoria
	p.Precio1, p.Precio2, p.Precio3 = arg.Precio1, arg.Precio2, arg.Precio3
	p.Stock, p.Variantes = arg.Stock, arg.Variantes
	p.UpdatedAt = f.tick()
	f.products[arg.ID.Bytes] = p
	return p, nil
}

func (f *fakeQueries) DeleteProduct(_ context.Context, id pgtype.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[id.Bytes]; !ok {
		return 0, nil
	}
	delete(f.products, id.Bytes)
	kept := f.images[:0]
	for _, img := range f.images {
		if img.ProductID.Bytes != id.Bytes {
			kept = append(kept, img)
		}
	}
	f.images = kept
	return 1, nil
}

func (f *fakeQueries) InsertImage(_ context.Context, arg dbgen.InsertImageParams) (dbgen.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[arg.ProductID.Bytes]; !ok {
		return dbgen.Image{}, &pgconn.PgError{Code: "23503"}
	}
	img := dbgen.Image{ID: int64(len(f.images) + 1), ProductID: arg.ProductID, Url: arg.Url, CreatedAt: f.tick()}
	f.images = append(f.images, img)
	return img, nil
}

func (f *fakeQueries) ListAllImages(context.Context) ([]dbgen.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dbgen.Image(nil), f.images...), nil
}

func (f *fakeQueries) UpsertProductBySKU(_ context.Context, arg dbgen.UpsertProductBySKUParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if arg.Sku == f.failSKU {
		return errors.New("upsert failed")
	}
	f.upserts = append(f.upserts, arg)
	return nil
}

type fakeSheets struct {
	imports []sheets.SheetImport
	err     error
}

func (f fakeSheets) ImportRows(context.Context) ([]sheets.SheetImport, error) {
	return f.imports, f.err
}

type fakeJobs struct {
	mu        sync.Mutex
	refreshes int
	imports   int
	variants  map[string][]string
}

func (j *fakeJobs) EnqueueCatalogRefresh(context.Context) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.refreshes++
	return "refresh-1", nil
}

func (j *fakeJobs) EnqueueSheetsImport(context.Context) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.imports++
	return "import-1", nil
}

func (j *fakeJobs) EnqueueMediaVariants(_ context.Context, productID string, paths []string) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.variants == nil {
		j.variants = make(map[string][]string)
	}
	j.variants[productID] = append(j.variants[productID], paths...)
	return "variants-1", nil
}
