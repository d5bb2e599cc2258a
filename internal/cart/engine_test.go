package cart_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/catalogo-mayorista/internal/cart"
	"github.com/noah-isme/catalogo-mayorista/internal/catalog"
)

func paleta(id string) catalog.Product {
	return catalog.Product{
		ID:       id,
		Name:     "Paleta " + id,
		SKU:      id,
		Category: "Paletas de Padel",
		Price1:   "$100",
		Price2:   "$150",
		Price3:   "$200",
	}
}

func grip(id, price3 string) catalog.Product {
	return catalog.Product{
		ID:       id,
		Name:     "Grip " + id,
		SKU:      id,
		Category: "Accesorios y zapatillas",
		Price1:   "$30",
		Price2:   "$40",
		Price3:   price3,
	}
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "want %s got %s", want, got)
}

func TestScenarioStandardTierOne(t *testing.T) {
	c := cart.New()
	p := paleta("P1")
	c.Add(p, 25)

	require.Equal(t, 25, c.Pools().Standard)
	requireDecimal(t, "100", c.PricePerUnit(p))
	requireDecimal(t, "2500", c.TotalPrice())
	require.False(t, c.ShowAccessoryWarning())
}

func TestScenarioPooledBelowMinimum(t *testing.T) {
	c := cart.New()
	p := grip("G1", "$50")
	c.Add(p, 5)

	requireDecimal(t, "77.5", c.PricePerUnit(p))
	requireDecimal(t, "387.5", c.TotalPrice())
	require.True(t, c.ShowAccessoryWarning())
}

func TestScenarioPooledAcrossProducts(t *testing.T) {
	c := cart.New()
	a := grip("GA", "$50")
	b := grip("GB", "$80")
	c.Add(a, 10)
	c.Add(b, 15)

	require.Equal(t, 25, c.PooledMinimumTotal())
	requireDecimal(t, "50", c.PricePerUnit(a))
	requireDecimal(t, "80", c.PricePerUnit(b))
	require.False(t, c.ShowAccessoryWarning())
}

func TestPooledBoundary(t *testing.T) {
	p := grip("G1", "$50")

	c := cart.New()
	c.Add(p, 19)
	requireDecimal(t, "77.5", c.PricePerUnit(p))
	require.True(t, c.Quote(p).Surcharged)

	c.Add(p, 1)
	requireDecimal(t, "50", c.PricePerUnit(p))
	require.False(t, c.ShowAccessoryWarning())
}

func TestNegativeStandardQuantityNeverSurcharges(t *testing.T) {
	c := cart.New()
	p := paleta("P1")
	c.Add(p, -1)

	require.Equal(t, -1, c.Pools().Standard)
	q := c.Quote(p)
	require.False(t, q.Surcharged)
	require.Equal(t, 3, q.Tier)
	requireDecimal(t, "200", q.Price)
}

func TestAddMergesSameProduct(t *testing.T) {
	c := cart.New()
	p := paleta("P1")
	c.Add(p, 3)
	c.Add(p, 2)

	items := c.Items()
	require.Len(t, items, 1)
	require.Equal(t, 5, items[0].Quantity)
}

func TestInsertionOrderKept(t *testing.T) {
	c := cart.New()
	c.Add(paleta("B"), 1)
	c.Add(paleta("A"), 1)
	c.Add(paleta("B"), 1)

	items := c.Items()
	require.Equal(t, "B", items[0].Product.ID)
	require.Equal(t, "A", items[1].Product.ID)
}

func TestUpdateQuantity(t *testing.T) {
	c := cart.New()
	p := grip("G1", "$50")
	c.Add(p, 25)

	c.UpdateQuantity("G1", -3)
	require.Equal(t, 25, c.TotalItems())

	c.UpdateQuantity("G1", 0)
	require.Equal(t, 1, c.Len())
	require.Equal(t, 0, c.TotalItems())
	// a zero line still marks the cart as holding pooled items
	require.True(t, c.ShowAccessoryWarning())

	c.UpdateQuantity("missing", 4)
	require.Equal(t, 0, c.TotalItems())
}

func TestRemoveAndClear(t *testing.T) {
	c := cart.New()
	c.Add(grip("G1", "$50"), 2)
	c.Add(paleta("P1"), 1)
	require.True(t, c.ShowAccessoryWarning())

	c.Remove("missing")
	require.Equal(t, 2, c.Len())

	c.Remove("G1")
	require.False(t, c.ShowAccessoryWarning())
	require.Equal(t, 1, c.TotalItems())

	c.Add(grip("G2", "$50"), 1)
	c.Clear()
	require.Zero(t, c.Len())
	require.False(t, c.ShowAccessoryWarning())
	requireDecimal(t, "0", c.TotalPrice())
}

func TestWarningFalseWhenEmpty(t *testing.T) {
	require.False(t, cart.New().ShowAccessoryWarning())
}

func TestPoolsPartitionTotalItems(t *testing.T) {
	c := cart.New()
	c.Add(grip("G1", "$50"), 7)
	c.Add(paleta("P1"), 4)
	c.Add(catalog.Product{ID: "Z1", Name: "Zapatilla Bullpadel", Category: "Accesorios y zapatillas"}, 3)

	pools := c.Pools()
	require.Equal(t, 7, pools.Pooled)
	require.Equal(t, 7, pools.Standard)
	require.Equal(t, c.TotalItems(), pools.Pooled+pools.Standard)
}

func TestPricePerUnitIsPure(t *testing.T) {
	c := cart.New()
	p := paleta("P1")
	c.Add(p, 12)
	first := c.PricePerUnit(p)
	second := c.PricePerUnit(p)
	require.True(t, first.Equal(second))
	require.Equal(t, 12, c.TotalItems())
}

func TestQuoteForProductNotInCart(t *testing.T) {
	c := cart.New()
	c.Add(paleta("P1"), 10)
	requireDecimal(t, "150", c.PricePerUnit(paleta("P2")))
}

func TestSummaryMatchesTotals(t *testing.T) {
	c := cart.New()
	g := grip("G1", "$50")
	g.Price3Label = "20 a 40 unidades"
	c.Add(g, 5)
	c.Add(paleta("P1"), 2)
	c.Add(paleta("P2"), 1)
	c.UpdateQuantity("P2", 0)

	s := c.Summary()
	require.Len(t, s.Lines, 3)
	require.True(t, s.Total.Equal(c.TotalPrice()))
	require.Equal(t, 7, s.TotalItems)
	require.True(t, s.ShowAccessoryWarning)
	require.Equal(t, 1, s.Surcharged())
	require.Equal(t, cart.BelowMinimumLabel, s.Lines[0].TierLabel)
	require.Equal(t, "menos de 20 unidades", s.Lines[0].TierLabel)
	require.Equal(t, 3, s.Lines[0].Tier)
	require.True(t, s.Lines[0].PooledMinimum)
	requireDecimal(t, "387.5", s.Lines[0].Subtotal)
	requireDecimal(t, "400", s.Lines[1].Subtotal)
	require.True(t, s.Lines[2].Invalid)
}

func TestSummaryLabelsPooledLineAtMinimum(t *testing.T) {
	c := cart.New()
	g := grip("G1", "$50")
	g.Price3Label = "20 a 40 unidades"
	c.Add(g, 20)

	s := c.Summary()
	require.False(t, s.Lines[0].Surcharged)
	require.Equal(t, "20 a 40 unidades", s.Lines[0].TierLabel)
}

func TestJSONRoundTripRebuildsDerivedState(t *testing.T) {
	c := cart.New()
	c.Add(grip("G1", "$50"), 5)

	data, err := json.Marshal(c)
	require.NoError(t, err)

	restored := cart.New()
	require.NoError(t, json.Unmarshal(data, restored))
	require.Equal(t, 5, restored.PooledMinimumTotal())
	require.True(t, restored.ShowAccessoryWarning())
	require.True(t, restored.TotalPrice().Equal(c.TotalPrice()))
}

func TestCloneIsIndependent(t *testing.T) {
	c := cart.New()
	c.Add(paleta("P1"), 1)
	clone := c.Clone()
	clone.Add(paleta("P1"), 4)
	require.Equal(t, 1, c.TotalItems())
	require.Equal(t, 5, clone.TotalItems())
}
