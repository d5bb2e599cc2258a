package catalog

import (
	"sort"
	"strings"

	"github.com/noah-isme/catalogo-mayorista/internal/pricing"
)

const (
	SortDefault = "default"
	SortAsc     = "asc"
	SortDesc    = "desc"
)

// Query captures the listing filters.
type Query struct {
	Search         string
	Category       string
	Brand          string
	ShowOutOfStock bool
	Sort           string
	Page           int
	Limit          int
}

// Filter applies the listing rules in order: SKU presence, stock, category,
// brand, free text search and finally price ordering.
func Filter(products []Product, q Query) []Product {
	out := make([]Product, 0, len(products))
	terms := searchTerms(q.Search)
	for _, p := range products {
		if !p.HasSKU() {
			continue
		}
		if !q.ShowOutOfStock && p.Stock <= 0 {
			continue
		}
		if !matchesAll(q.Category) && p.Category != q.Category {
			continue
		}
		if !matchesAll(q.Brand) && p.Brand != q.Brand {
			continue
		}
		if len(terms) > 0 && !matchesSearch(p, terms) {
			continue
		}
		out = append(out, p)
	}

	switch q.Sort {
	case SortAsc:
		sort.SliceStable(out, func(i, j int) bool {
			return pricing.ReferencePrice(out[i].PricingItem()) < pricing.ReferencePrice(out[j].PricingItem())
		})
	case SortDesc:
		sort.SliceStable(out, func(i, j int) bool {
			return pricing.ReferencePrice(out[i].PricingItem()) > pricing.ReferencePrice(out[j].PricingItem())
		})
	}
	return out
}

func matchesAll(v string) bool {
	return v == "" || v == AllValues
}

func searchTerms(search string) []string {
	return strings.Fields(strings.ToLower(strings.TrimSpace(search)))
}

var nameSeparators = strings.NewReplacer("-", " ", "/", " ", "(", " ", ")", " ")

// matchesSearch requires every term to hit the SKU, a name word prefix, the
// level or the year.
func matchesSearch(p Product, terms []string) bool {
	words := strings.Fields(nameSeparators.Replace(strings.ToLower(p.Name)))
	sku := strings.ToLower(p.SKU)
	level := strings.ToLower(p.Level)
	year := strings.ToLower(p.Year)

	for _, term := range terms {
		if strings.Contains(sku, term) || strings.Contains(level, term) || strings.Contains(year, term) {
			continue
		}
		hit := false
		for _, w := range words {
			if strings.HasPrefix(w, term) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

// Facets lists the selectable categories and brands.
type Facets struct {
	Categories []string `json:"categories"`
	Brands     []string `json:"brands"`
}

// BuildFacets derives facets from products with a SKU. Brands are scoped to the
// selected category unless it is empty or AllValues.
func BuildFacets(products []Product, category string) Facets {
	f := Facets{Categories: []string{AllValues}, Brands: []string{AllValues}}
	seenCat := map[string]bool{}
	seenBrand := map[string]bool{}
	for _, p := range products {
		if !p.HasSKU() {
			continue
		}
		if !seenCat[p.Category] {
			seenCat[p.Category] = true
			f.Categories = append(f.Categories, p.Category)
		}
		if !matchesAll(category) && p.Category != category {
			continue
		}
		if p.Brand != "" && !seenBrand[p.Brand] {
			seenBrand[p.Brand] = true
			f.Brands = append(f.Brands, p.Brand)
		}
	}
	return f
}
