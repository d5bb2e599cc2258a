package cart

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/catalogo-mayorista/internal/pricing"
)

// BelowMinimumLabel marks lines priced with the surcharge.
var BelowMinimumLabel = fmt.Sprintf("menos de %d unidades", pricing.PooledMinimum)

// Line is one priced row of an order summary.
type Line struct {
	ProductID     string          `json:"productId"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	Category      string          `json:"category"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tier          int             `json:"tier"`
	TierLabel     string          `json:"tierLabel,omitempty"`
	Surcharged    bool            `json:"surcharged"`
	PooledMinimum bool            `json:"pooledMinimum"`
	Invalid       bool            `json:"invalid"`
}

// Summary is the hand-off payload for order export and display.
type Summary struct {
	Lines                []Line          `json:"lines"`
	Total                decimal.Decimal `json:"total"`
	TotalItems           int             `json:"totalItems"`
	Pools                pricing.Pools   `json:"pools"`
	ShowAccessoryWarning bool            `json:"showAccessoryWarning"`
	PooledMinimum        int             `json:"pooledMinimum"`
}

// Surcharged counts lines priced below the pooled minimum.
func (s Summary) Surcharged() int {
	n := 0
	for _, l := range s.Lines {
		if l.Surcharged {
			n++
		}
	}
	return n
}

// Summary prices every line with the same rule used by TotalPrice.
func (c *Cart) Summary() Summary {
	s := Summary{
		Lines:                make([]Line, 0, len(c.items)),
		Total:                decimal.Zero,
		TotalItems:           c.TotalItems(),
		Pools:                c.pools,
		ShowAccessoryWarning: c.warning,
		PooledMinimum:        pricing.PooledMinimum,
	}
	for _, it := range c.items {
		q := c.Quote(it.Product)
		subtotal := q.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		line := Line{
			ProductID:     it.Product.ID,
			Name:          it.Product.Name,
			SKU:           it.Product.SKU,
			Category:      it.Product.Category,
			Quantity:      it.Quantity,
			UnitPrice:     q.Price,
			Subtotal:      subtotal,
			Tier:          q.Tier,
			TierLabel:     tierLabel(it, q),
			Surcharged:    q.Surcharged,
			PooledMinimum: c.IsPooledMinimum(it.Product),
			Invalid:       it.Quantity == 0,
		}
		s.Lines = append(s.Lines, line)
		s.Total = s.Total.Add(subtotal)
	}
	return s
}

func tierLabel(it Item, q pricing.Quote) string {
	if q.Surcharged {
		return BelowMinimumLabel
	}
	switch q.Tier {
	case 1:
		return it.Product.Price1Label
	case 2:
		return it.Product.Price2Label
	case 3:
		return it.Product.Price3Label
	}
	return ""
}
