package sheets

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/noah-isme/catalogo-mayorista/internal/catalog"
)

// Column positions within a catalog sheet row (A..L).
const (
	colNombre      = 1
	colPrecio1     = 2
	colPrecio2     = 3
	colPrecio3     = 4
	colDescripcion = 5
	colStock       = 7
	colSKU         = 8
	colYear        = 9
	colImages      = 10
	colLevel       = 11
)

// SheetNames are the catalog tabs, in load order. Each tab name is also the
// product category.
var SheetNames = []string{
	"Paletas de Padel",
	"Bolsos y Mochilas",
	"Accesorios y zapatillas",
	"Pelotas Padel",
}

// ImportRow is the subset of a sheet row upserted into the products table.
type ImportRow struct {
	Nombre    string `json:"nombre"`
	SKU       string `json:"sku"`
	Categoria string `json:"categoria"`
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

// Stringify converts API cell values to strings.
func Stringify(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		out[i] = make([]string, len(row))
		for j, v := range row {
			switch t := v.(type) {
			case nil:
			case string:
				out[i][j] = t
			default:
				out[i][j] = fmt.Sprint(t)
			}
		}
	}
	return out
}

// ParseProducts maps the rows of one sheet to products. The first row is the
// header. It also returns how many data rows were rejected.
func ParseProducts(sheet string, rows [][]string) ([]catalog.Product, int) {
	if len(rows) < 2 {
		return nil, 0
	}
	products := make([]catalog.Product, 0, len(rows)-1)
	skipped := 0
	for _, row := range rows[1:] {
		p, ok := parseProduct(sheet, row)
		if !ok {
			skipped++
			continue
		}
		products = append(products, p)
	}
	return products, skipped
}

func parseProduct(sheet string, row []string) (catalog.Product, bool) {
	nombre := cell(row, colNombre)
	sku := cell(row, colSKU)
	if nombre == "" || sku == "" || len(sku) <= 2 || sku == "SKU" {
		return catalog.Product{}, false
	}

	prices := normalizePrices(cell(row, colPrecio1), cell(row, colPrecio2), cell(row, colPrecio3))
	stock := leadingInt(cell(row, colStock))
	zapatilla := catalog.IsZapatilla(sheet, nombre)

	p := catalog.Product{
		ID:          sheet + "-" + sku,
		Name:        nombre,
		SKU:         sku,
		Brand:       catalog.ExtractBrand(nombre),
		Year:        cell(row, colYear),
		Level:       cell(row, colLevel),
		Description: cell(row, colDescripcion),
		Stock:       stock,
		StockStatus: catalog.StockStatusFor(stock),
		Price1:      prices[0],
		Price2:      prices[1],
		Price3:      prices[2],
		Category:    sheet,
		IsZapatilla: zapatilla,
		Images:      splitImages(cell(row, colImages)),
	}
	p.ApplyLabels(catalog.LabelsFor(sheet, zapatilla))
	return p, true
}

// normalizePrices replaces blank, "-" and "0" tiers with the first tier that
// carries a real price, or "0" when none does.
func normalizePrices(raw ...string) [3]string {
	fallback := "0"
	for _, p := range raw {
		if p != "" && p != "-" && p != "0" && p != "$0" {
			fallback = p
			break
		}
	}
	var out [3]string
	for i := range out {
		p := ""
		if i < len(raw) {
			p = raw[i]
		}
		if p == "" || p == "-" || p == "0" {
			p = fallback
		}
		out[i] = p
	}
	return out
}

// leadingInt reads an optional sign and leading digits; anything else is 0.
func leadingInt(s string) int {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

func splitImages(raw string) []string {
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// ParseImportRows extracts upsert candidates from one sheet. Rows without a
// name or SKU, and repeated header rows, are dropped.
func ParseImportRows(sheet string, rows [][]string) []ImportRow {
	if len(rows) < 2 {
		return nil
	}
	out := make([]ImportRow, 0, len(rows)-1)
	for _, row := range rows[1:] {
		nombre := cell(row, colNombre)
		sku := cell(row, colSKU)
		if nombre == "" || sku == "" || sku == "SKU" {
			continue
		}
		out = append(out, ImportRow{Nombre: nombre, SKU: sku, Categoria: sheet})
	}
	return out
}
