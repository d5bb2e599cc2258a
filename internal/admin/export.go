package admin

import (
	"strconv"
	"strings"
	"time"
)

var csvColumns = []string{
	"id", "catalog_id", "nombre", "sku", "marca", "descripcion", "categoria",
	"precio1", "precio2", "precio3", "stock", "variantes", "created_at", "updated_at",
}

func csvRecord(p Product) []string {
	return []string{
		p.ID, p.CatalogID, p.Nombre, p.SKU, p.Marca, p.Descripcion, p.Categoria,
		p.Precio1, p.Precio2, p.Precio3, strconv.Itoa(int(p.Stock)), string(p.Variantes),
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// ProductsCSV renders products as CSV: a bare header row, then one row per
// product with every value quoted and inner quotes doubled. No products
// yields an empty document.
func ProductsCSV(products []Product) string {
	if len(products) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.Join(csvColumns, ","))
	for _, p := range products {
		b.WriteByte('\n')
		for i, v := range csvRecord(p) {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(v, `"`, `""`))
			b.WriteByte('"')
		}
	}
	return b.String()
}
