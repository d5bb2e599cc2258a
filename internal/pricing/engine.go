package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AccessoryCategory is the category whose items share the pooled 20 unit minimum.
const AccessoryCategory = "Accesorios y zapatillas"

// PooledMinimum is the combined quantity pooled-minimum items must reach before
// wholesale tiers apply.
const PooledMinimum = 20

// SurchargeFactor multiplies the tier 3 price of pooled-minimum items below the minimum.
var SurchargeFactor = decimal.RequireFromString("1.55")

// Class overrides the name based classification when set on an Item.
type Class string

const (
	ClassAuto     Class = ""
	ClassStandard Class = "standard"
	ClassPooled   Class = "pooled"
)

// Item is the pricing view of a catalog product.
type Item struct {
	Name     string
	Category string
	Class    Class
	// Prices holds tier 1 (largest break) to tier 3 (base) as raw text.
	Prices [3]string
}

// Line is an item together with the quantity held in a cart.
type Line struct {
	Item Item
	Qty  int
}

// Pools are the aggregate quantities used as tier denominators.
type Pools struct {
	Pooled   int `json:"pooled_minimum"`
	Standard int `json:"standard"`
}

// Total returns the quantity across both pools.
func (p Pools) Total() int { return p.Pooled + p.Standard }

// For returns the pool an item of the given class draws from.
func (p Pools) For(pooled bool) int {
	if pooled {
		return p.Pooled
	}
	return p.Standard
}

// Quote explains a resolved unit price.
type Quote struct {
	Price      decimal.Decimal `json:"price"`
	Tier       int             `json:"tier"`
	Surcharged bool            `json:"surcharged"`
	FellBack   bool            `json:"fell_back"`
	PoolQty    int             `json:"pool_quantity"`
}

type breakpoint struct {
	min  int
	tier int
}

var (
	standardSchedule = []breakpoint{{20, 1}, {10, 2}, {0, 3}}
	pooledSchedule   = []breakpoint{{60, 1}, {41, 2}, {PooledMinimum, 3}}
)

// IsPooledMinimum reports whether the item belongs to the pooled-minimum class.
// Shoes and the mini net sit in the accessory category but follow the standard schedule.
func IsPooledMinimum(it Item) bool {
	switch it.Class {
	case ClassPooled:
		return true
	case ClassStandard:
		return false
	}
	if it.Category != AccessoryCategory {
		return false
	}
	name := strings.ToLower(it.Name)
	return !strings.Contains(name, "zapatilla") && !strings.Contains(name, "red mini")
}

// Aggregate sums line quantities into the two disjoint pools.
func Aggregate(lines []Line) Pools {
	var pools Pools
	for _, l := range lines {
		if IsPooledMinimum(l.Item) {
			pools.Pooled += l.Qty
		} else {
			pools.Standard += l.Qty
		}
	}
	return pools
}

// UnitPrice returns the per unit price of the item given the cart pools.
func UnitPrice(it Item, pools Pools) decimal.Decimal {
	return Resolve(it, pools).Price
}

// Resolve picks the tier for the item and reports how the price was reached.
func Resolve(it Item, pools Pools) Quote {
	pooled := IsPooledMinimum(it)
	qty := pools.For(pooled)
	q := Quote{PoolQty: qty}

	schedule := standardSchedule
	if pooled {
		schedule = pooledSchedule
	}
	for _, bp := range schedule {
		if qty >= bp.min {
			q.Tier = bp.tier
			break
		}
	}

	if q.Tier == 0 {
		q.Tier = 3
	}
	if pooled && qty < PooledMinimum {
		// Below the pooled minimum the surcharge applies to tier 3 as is.
		q.Surcharged = true
		q.Price = decimal.NewFromInt(ParsePrice(it.Prices[2])).Mul(SurchargeFactor)
		return q
	}

	price := ParsePrice(it.Prices[q.Tier-1])
	if price == 0 {
		for _, raw := range it.Prices {
			if p := ParsePrice(raw); p > 0 {
				price = p
				q.FellBack = true
				break
			}
		}
	}
	q.Price = decimal.NewFromInt(price)
	return q
}

// ReferencePrice is the base price used to rank products by price. Pooled-minimum
// products count double.
func ReferencePrice(it Item) int64 {
	base := ParsePrice(it.Prices[2])
	if IsPooledMinimum(it) {
		return base * 2
	}
	return base
}
