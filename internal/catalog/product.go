package catalog

import (
	"strings"

	"github.com/noah-isme/catalogo-mayorista/internal/pricing"
)

const (
	StockAvailable = "Con stock"
	StockSoldOut   = "Sin stock"

	// AllValues selects every category or brand in filters and facets.
	AllValues = "Todos"
)

// Product is a catalog entry as loaded from a Source. Products are never mutated
// once a snapshot is published.
type Product struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	SKU          string        `json:"sku"`
	Brand        string        `json:"brand"`
	Year         string        `json:"year,omitempty"`
	Level        string        `json:"level,omitempty"`
	Description  string        `json:"description,omitempty"`
	Stock        int           `json:"stock"`
	StockStatus  string        `json:"stockStatus"`
	Price1       string        `json:"price1"`
	Price2       string        `json:"price2"`
	Price3       string        `json:"price3"`
	Price1Label  string        `json:"price1Label"`
	Price2Label  string        `json:"price2Label"`
	Price3Label  string        `json:"price3Label"`
	ShortLabels  [3]string     `json:"shortLabels"`
	Category     string        `json:"category"`
	IsZapatilla  bool          `json:"isZapatilla"`
	Images       []string      `json:"images"`
	PricingClass pricing.Class `json:"pricingClass,omitempty"`
}

// PricingItem returns the view of the product consumed by the pricing rules.
func (p Product) PricingItem() pricing.Item {
	return pricing.Item{
		Name:     p.Name,
		Category: p.Category,
		Class:    p.PricingClass,
		Prices:   [3]string{p.Price1, p.Price2, p.Price3},
	}
}

// PooledMinimum reports whether the product shares the accessory minimum.
func (p Product) PooledMinimum() bool {
	return pricing.IsPooledMinimum(p.PricingItem())
}

// HasSKU reports whether the product carries a usable SKU.
func (p Product) HasSKU() bool {
	return strings.TrimSpace(p.SKU) != ""
}

// Labels describes the quantity breaks shown next to each tier price.
type Labels struct {
	Long  [3]string
	Short [3]string
}

var (
	DefaultLabels = Labels{
		Long:  [3]string{"+20 unidades", "10 a 19 unidades", "4 a 9 unidades"},
		Short: [3]string{"+20", "10-19", "4-9"},
	}
	AccessoryLabels = Labels{
		Long:  [3]string{"60 o más unidades", "41 a 59 unidades", "20 a 40 unidades"},
		Short: [3]string{"60+", "41-59", "20-40"},
	}
)

// LabelsFor picks the label set matching the pricing schedule of a product.
func LabelsFor(category string, zapatilla bool) Labels {
	return ClassLabels(category == pricing.AccessoryCategory && !zapatilla)
}

// ClassLabels returns the labels of the pooled or standard schedule.
func ClassLabels(pooled bool) Labels {
	if pooled {
		return AccessoryLabels
	}
	return DefaultLabels
}

// ApplyLabels copies the label set onto the product.
func (p *Product) ApplyLabels(l Labels) {
	p.Price1Label, p.Price2Label, p.Price3Label = l.Long[0], l.Long[1], l.Long[2]
	p.ShortLabels = l.Short
}

// IsZapatilla reports whether an accessory category product is footwear.
func IsZapatilla(category, name string) bool {
	return category == pricing.AccessoryCategory && strings.Contains(strings.ToLower(name), "zapatilla")
}

// StockStatusFor maps a stock count to its display status.
func StockStatusFor(stock int) string {
	if stock > 0 {
		return StockAvailable
	}
	return StockSoldOut
}

var knownBrands = []string{"Bullpadel", "Nox", "Sane", "Siux", "Wingpadel", "Black Crown", "Varlion", "X-TRUST", "Odpro"}

// ExtractBrand returns the first known brand mentioned in the product name.
func ExtractBrand(name string) string {
	lower := strings.ToLower(name)
	for _, brand := range knownBrands {
		if strings.Contains(lower, strings.ToLower(brand)) {
			return brand
		}
	}
	return ""
}
