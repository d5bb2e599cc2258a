package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/catalogo-mayorista/internal/catalog"
	"github.com/noah-isme/catalogo-mayorista/internal/common"
	dbgen "github.com/noah-isme/catalogo-mayorista/internal/db/gen"
	"github.com/noah-isme/catalogo-mayorista/internal/sheets"
)

var (
	// ErrNotFound is returned when a product id does not exist.
	ErrNotFound = errors.New("admin: product not found")
	// ErrConflict is returned when a SKU is already taken.
	ErrConflict = errors.New("admin: sku already exists")
)

const uniqueViolation = "23505"

// Queries is the subset of generated queries the back office needs.
type Queries interface {
	ListProducts(ctx context.Context) ([]dbgen.Product, error)
	GetProduct(ctx context.Context, id pgtype.UUID) (dbgen.Product, error)
	CreateProduct(ctx context.Context, arg dbgen.CreateProductParams) (dbgen.Product, error)
	UpdateProduct(ctx context.Context, arg dbgen.UpdateProductParams) (dbgen.Product, error)
	DeleteProduct(ctx context.Context, id pgtype.UUID) (int64, error)
	InsertImage(ctx context.Context, arg dbgen.InsertImageParams) (dbgen.Image, error)
	ListAllImages(ctx context.Context) ([]dbgen.Image, error)
	UpsertProductBySKU(ctx context.Context, arg dbgen.UpsertProductBySKUParams) error
}

// SheetReader yields import candidates from the spreadsheet.
type SheetReader interface {
	ImportRows(ctx context.Context) ([]sheets.SheetImport, error)
}

// Service implements the product back office on Postgres.
type Service struct {
	Queries  Queries
	Sheets   SheetReader
	Validate *validator.Validate
	Logger   zerolog.Logger
}

// Product is the back office view of a product row.
type Product struct {
	ID          string          `json:"id"`
	CatalogID   string          `json:"catalog_id,omitempty"`
	Nombre      string          `json:"nombre"`
	SKU         string          `json:"sku"`
	Marca       string          `json:"marca"`
	Descripcion string          `json:"descripcion"`
	Categoria   string          `json:"categoria"`
	Precio1     string          `json:"precio1"`
	Precio2     string          `json:"precio2"`
	Precio3     string          `json:"precio3"`
	Stock       int32           `json:"stock"`
	Variantes   json.RawMessage `json:"variantes"`
	Images      []string        `json:"images,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductInput is the create/update payload.
type ProductInput struct {
	CatalogID   string          `json:"catalog_id" validate:"max=64"`
	Nombre      string          `json:"nombre" validate:"required,max=200"`
	SKU         string          `json:"sku" validate:"required,max=64"`
	Marca       string          `json:"marca" validate:"max=100"`
	Descripcion string          `json:"descripcion" validate:"max=5000"`
	Categoria   string          `json:"categoria" validate:"max=100"`
	Precio1     string          `json:"precio1" validate:"max=32"`
	Precio2     string          `json:"precio2" validate:"max=32"`
	Precio3     string          `json:"precio3" validate:"max=32"`
	Stock       int32           `json:"stock" validate:"gte=0"`
	Variantes   json.RawMessage `json:"variantes"`
}

// Sanitize strips angle brackets and surrounding whitespace.
func Sanitize(s string) string {
	return strings.TrimSpace(strings.NewReplacer("<", "", ">", "").Replace(s))
}

func (in *ProductInput) sanitize() {
	in.CatalogID = Sanitize(in.CatalogID)
	in.Nombre = Sanitize(in.Nombre)
	in.SKU = Sanitize(in.SKU)
	in.Marca = Sanitize(in.Marca)
	in.Descripcion = Sanitize(in.Descripcion)
	in.Categoria = Sanitize(in.Categoria)
	in.Precio1 = Sanitize(in.Precio1)
	in.Precio2 = Sanitize(in.Precio2)
	in.Precio3 = Sanitize(in.Precio3)
}

func (in ProductInput) variantes() []byte {
	trimmed := bytes.TrimSpace(in.Variantes)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return trimmed
}

func (s *Service) validate(in *ProductInput) error {
	in.sanitize()
	if in.Nombre == "" || in.SKU == "" {
		return common.NewAppError("VALIDATION", "Nombre y SKU son obligatorios", http.StatusBadRequest, nil)
	}
	if len(in.variantes()) > 0 && !json.Valid(in.variantes()) {
		return common.BadRequest("variantes", "variantes must be valid JSON")
	}
	v := s.Validate
	if v == nil {
		v = common.NewValidator()
	}
	if err := v.Struct(in); err != nil {
		return common.ValidationError("invalid product", err)
	}
	return nil
}

// ParseID converts a path id into a UUID parameter.
func ParseID(raw string) (pgtype.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return pgtype.UUID{}, common.BadRequest("id", "invalid product id")
	}
	return pgtype.UUID{Bytes: id, Valid: true}, nil
}

func mapWriteError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrConflict
	}
	return err
}

func toProduct(row dbgen.Product) Product {
	p := Product{
		ID:          catalog.UUIDString(row.ID),
		CatalogID:   row.CatalogID.String,
		Nombre:      row.Nombre,
		SKU:         row.Sku,
		Marca:       row.Marca,
		Descripcion: row.Descripcion,
		Categoria:   row.Categoria,
		Precio1:     row.Precio1,
		Precio2:     row.Precio2,
		Precio3:     row.Precio3,
		Stock:       row.Stock,
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}
	if len(row.Variantes) > 0 {
		p.Variantes = json.RawMessage(row.Variantes)
	}
	return p
}

// List returns every product, newest first.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	rows, err := s.Queries.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	out := make([]Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, toProduct(row))
	}
	return out, nil
}

// Get returns one product.
func (s *Service) Get(ctx context.Context, id pgtype.UUID) (Product, error) {
	row, err := s.Queries.GetProduct(ctx, id)
	if err != nil {
		return Product{}, mapWriteError(err)
	}
	return toProduct(row), nil
}

// Create validates and inserts a product.
func (s *Service) Create(ctx context.Context, in ProductInput) (Product, error) {
	if err := s.validate(&in); err != nil {
		return Product{}, err
	}
	row, err := s.Queries.CreateProduct(ctx, dbgen.CreateProductParams{
		CatalogID:   pgtype.Text{String: in.CatalogID, Valid: in.CatalogID != ""},
		Nombre:      in.Nombre,
		Sku:         in.SKU,
		Marca:       in.Marca,
		Descripcion: in.Descripcion,
		Categoria:   in.Categoria,
		Precio1:     in.Precio1,
		Precio2:     in.Precio2,
		Precio3:     in.Precio3,
		Stock:       in.Stock,
		Variantes:   in.variantes(),
	})
	if err != nil {
		return Product{}, mapWriteError(err)
	}
	s.Logger.Info().Str("sku", row.Sku).Msg("product created")
	return toProduct(row), nil
}

// Update replaces the editable fields of a product.
func (s *Service) Update(ctx context.Context, id pgtype.UUID, in ProductInput) (Product, error) {
	if err := s.validate(&in); err != nil {
		return Product{}, err
	}
	row, err := s.Queries.UpdateProduct(ctx, dbgen.UpdateProductParams{
		ID:          id,
		Nombre:      in.Nombre,
		Sku:         in.SKU,
		Marca:       in.Marca,
		Descripcion: in.Descripcion,
		Categoria:   in.Categoria,
		Precio1:     in.Precio1,
		Precio2:     in.Precio2,
		Precio3:     in.Precio3,
		Stock:       in.Stock,
		Variantes:   in.variantes(),
	})
	if err != nil {
		return Product{}, mapWriteError(err)
	}
	return toProduct(row), nil
}

// Delete removes a product and, through the foreign key, its images.
func (s *Service) Delete(ctx context.Context, id pgtype.UUID) error {
	n, err := s.Queries.DeleteProduct(ctx, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AttachImages records uploaded image URLs for a product.
func (s *Service) AttachImages(ctx context.Context, productID string, urls []string) error {
	id, err := ParseID(productID)
	if err != nil {
		return err
	}
	for _, u := range urls {
		if _, err := s.Queries.InsertImage(ctx, dbgen.InsertImageParams{ProductID: id, Url: u}); err != nil {
			return fmt.Errorf("insert image: %w", mapWriteError(err))
		}
	}
	return nil
}

// ExportProducts returns every product with its image URLs.
func (s *Service) ExportProducts(ctx context.Context) ([]Product, error) {
	products, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	images, err := s.Queries.ListAllImages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	byProduct := make(map[string][]string)
	for _, img := range images {
		key := catalog.UUIDString(img.ProductID)
		byProduct[key] = append(byProduct[key], img.Url)
	}
	for i := range products {
		products[i].Images = byProduct[products[i].ID]
		if products[i].Images == nil {
			products[i].Images = []string{}
		}
	}
	return products, nil
}

// SheetResult reports how one sheet was imported.
type SheetResult struct {
	Sheet    string `json:"sheet"`
	Imported int    `json:"imported"`
	Failed   int    `json:"failed,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ImportSheets upserts name, SKU and category of every spreadsheet row by SKU.
// Sheets that cannot be read are reported and skipped.
func (s *Service) ImportSheets(ctx context.Context) ([]SheetResult, error) {
	if s.Sheets == nil {
		return nil, sheets.ErrNotConfigured
	}
	imports, err := s.Sheets.ImportRows(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]SheetResult, 0, len(imports))
	for _, imp := range imports {
		res := SheetResult{Sheet: imp.Sheet}
		if imp.Err != nil {
			res.Error = imp.Err.Error()
			s.Logger.Warn().Err(imp.Err).Str("sheet", imp.Sheet).Msg("sheet import skipped")
			results = append(results, res)
			continue
		}
		for _, row := range imp.Rows {
			err := s.Queries.UpsertProductBySKU(ctx, dbgen.UpsertProductBySKUParams{
				Nombre:    row.Nombre,
				Sku:       row.SKU,
				Categoria: row.Categoria,
			})
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				res.Failed++
				continue
			}
			res.Imported++
		}
		results = append(results, res)
	}
	s.Logger.Info().Int("sheets", len(results)).Msg("sheets import finished")
	return results, nil
}

// ImportedCounts returns the per-sheet counts of sheets that were read.
func ImportedCounts(results []SheetResult) []int {
	out := make([]int, 0, len(results))
	for _, r := range results {
		if r.Error != "" {
			continue
		}
		out = append(out, r.Imported)
	}
	return out
}
