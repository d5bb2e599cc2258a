package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	dbgen "github.com/noah-isme/catalogo-mayorista/internal/db/gen"
)

// Source supplies the full product list. Every call returns a fresh, complete list.
type Source interface {
	Name() string
	Products(ctx context.Context) ([]Product, error)
}

// StaticSource serves a fixed product list.
type StaticSource []Product

func (StaticSource) Name() string { return "static" }

func (s StaticSource) Products(context.Context) ([]Product, error) {
	out := make([]Product, len(s))
	copy(out, s)
	return out, nil
}

type dbQueries interface {
	ListProducts(ctx context.Context) ([]dbgen.Product, error)
	ListProductsByCatalog(ctx context.Context, catalogID pgtype.Text) ([]dbgen.Product, error)
	ListAllImages(ctx context.Context) ([]dbgen.Image, error)
}

// DBSource reads products managed through the admin back office.
type DBSource struct {
	Queries   dbQueries
	CatalogID string
}

func (s *DBSource) Name() string { return "db" }

// Products maps product rows to catalog entries. Rows without price columns
// yield empty tier prices.
func (s *DBSource) Products(ctx context.Context) ([]Product, error) {
	var (
		rows []dbgen.Product
		err  error
	)
	if id := strings.TrimSpace(s.CatalogID); id != "" {
		rows, err = s.Queries.ListProductsByCatalog(ctx, pgtype.Text{String: id, Valid: true})
	} else {
		rows, err = s.Queries.ListProducts(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	images, err := s.Queries.ListAllImages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	byProduct := make(map[string][]string)
	for _, img := range images {
		key := UUIDString(img.ProductID)
		byProduct[key] = append(byProduct[key], img.Url)
	}

	products := make([]Product, 0, len(rows))
	for _, row := range rows {
		id := UUIDString(row.ID)
		brand := row.Marca
		if brand == "" {
			brand = ExtractBrand(row.Nombre)
		}
		p := Product{
			ID:          id,
			Name:        row.Nombre,
			SKU:         strings.TrimSpace(row.Sku),
			Brand:       brand,
			Description: row.Descripcion,
			Stock:       int(row.Stock),
			StockStatus: StockStatusFor(int(row.Stock)),
			Price1:      row.Precio1,
			Price2:      row.Precio2,
			Price3:      row.Precio3,
			Category:    row.Categoria,
			IsZapatilla: IsZapatilla(row.Categoria, row.Nombre),
			Images:      byProduct[id],
		}
		if p.Images == nil {
			p.Images = []string{}
		}
		if p.Price1 != "" || p.Price2 != "" || p.Price3 != "" {
			p.ApplyLabels(LabelsFor(p.Category, p.IsZapatilla))
		}
		products = append(products, p)
	}
	return products, nil
}

// UUIDString formats a pgtype.UUID as canonical text, or "" when invalid.
func UUIDString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	return uuid.UUID(id.Bytes).String()
}
