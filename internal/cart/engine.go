package cart

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/catalogo-mayorista/internal/catalog"
	"github.com/noah-isme/catalogo-mayorista/internal/pricing"
)

// Item is a product held in the cart. Quantity 0 is kept until the shopper
// corrects or removes the line.
type Item struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// Cart is a single shopper's cart. It is not safe for concurrent use; the Store
// serializes access per session.
type Cart struct {
	items   []Item
	pools   pricing.Pools
	warning bool
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Restore rebuilds a cart from previously captured items.
func Restore(items []Item) *Cart {
	c := &Cart{items: append([]Item(nil), items...)}
	c.recompute()
	return c
}

// Clone returns an independent copy of the cart.
func (c *Cart) Clone() *Cart {
	return Restore(c.items)
}

// Items returns a copy of the cart lines in insertion order.
func (c *Cart) Items() []Item {
	return append([]Item(nil), c.items...)
}

// Len reports the number of distinct lines.
func (c *Cart) Len() int { return len(c.items) }

// Add appends the product or increments its quantity when already present.
// Quantity validation is the caller's responsibility.
func (c *Cart) Add(p catalog.Product, qty int) {
	if i := c.indexOf(p.ID); i >= 0 {
		c.items[i].Quantity += qty
	} else {
		c.items = append(c.items, Item{Product: p, Quantity: qty})
	}
	c.recompute()
}

// Remove drops the line for productID. Unknown ids are ignored.
func (c *Cart) Remove(productID string) {
	if i := c.indexOf(productID); i >= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
	}
	c.recompute()
}

// UpdateQuantity sets the quantity of an existing line. Negative quantities
// and unknown ids are ignored; zero is stored as is.
func (c *Cart) UpdateQuantity(productID string, qty int) {
	if qty < 0 {
		return
	}
	if i := c.indexOf(productID); i >= 0 {
		c.items[i].Quantity = qty
	}
	c.recompute()
}

// Clear empties the cart and resets the accessory warning.
func (c *Cart) Clear() {
	c.items = nil
	c.pools = pricing.Pools{}
	c.warning = false
}

// TotalItems sums every line quantity.
func (c *Cart) TotalItems() int {
	total := 0
	for _, it := range c.items {
		total += it.Quantity
	}
	return total
}

// Pools returns the current pooled quantities.
func (c *Cart) Pools() pricing.Pools { return c.pools }

// PooledMinimumTotal is the quantity across pooled-minimum lines.
func (c *Cart) PooledMinimumTotal() int { return c.pools.Pooled }

// IsPooledMinimum reports whether p belongs to the pooled-minimum class.
func (c *Cart) IsPooledMinimum(p catalog.Product) bool {
	return pricing.IsPooledMinimum(p.PricingItem())
}

// ShowAccessoryWarning is set while the cart holds pooled-minimum products
// below the combined minimum.
func (c *Cart) ShowAccessoryWarning() bool { return c.warning }

// Quote resolves the unit price of p against the current cart without
// changing it. p does not need to be in the cart.
func (c *Cart) Quote(p catalog.Product) pricing.Quote {
	return pricing.Resolve(p.PricingItem(), c.pools)
}

// PricePerUnit is the unit price of p for the current cart contents.
func (c *Cart) PricePerUnit(p catalog.Product) decimal.Decimal {
	return c.Quote(p).Price
}

// TotalPrice sums unit price times quantity over all lines.
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(c.PricePerUnit(it.Product).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

func (c *Cart) indexOf(productID string) int {
	for i, it := range c.items {
		if it.Product.ID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) recompute() {
	lines := make([]pricing.Line, len(c.items))
	hasPooled := false
	for i, it := range c.items {
		item := it.Product.PricingItem()
		lines[i] = pricing.Line{Item: item, Qty: it.Quantity}
		if pricing.IsPooledMinimum(item) {
			hasPooled = true
		}
	}
	c.pools = pricing.Aggregate(lines)
	c.warning = hasPooled && c.pools.Pooled < pricing.PooledMinimum
}

type snapshot struct {
	Items []Item `json:"items"`
}

// MarshalJSON stores only the lines; derived state is rebuilt on load.
func (c *Cart) MarshalJSON() ([]byte, error) {
	items := c.items
	if items == nil {
		items = []Item{}
	}
	return json.Marshal(snapshot{Items: items})
}

// UnmarshalJSON restores lines and recomputes derived state.
func (c *Cart) UnmarshalJSON(data []byte) error {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	c.items = s.Items
	c.recompute()
	return nil
}
