package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func standardItem(p1, p2, p3 string) Item {
	return Item{Name: "Paleta Nox AT10", Category: "Paletas de Padel", Prices: [3]string{p1, p2, p3}}
}

func accessoryItem(name, p1, p2, p3 string) Item {
	return Item{Name: name, Category: AccessoryCategory, Prices: [3]string{p1, p2, p3}}
}

func TestParsePrice(t *testing.T) {
	cases := map[string]int64{
		"$1.234":      1234,
		"":            0,
		"-":           0,
		"$0":          0,
		"  $ 15.500 ": 15500,
		"200":         200,
		"abc":         0,
		"1.234,50":    1234,
		"-40":         0,
		"$1.000.000":  1000000,
	}
	for in, want := range cases {
		require.Equal(t, want, ParsePrice(in), "input %q", in)
	}
}

func TestIsPooledMinimum(t *testing.T) {
	require.True(t, IsPooledMinimum(accessoryItem("Grip Bullpadel x3", "", "", "")))
	require.False(t, IsPooledMinimum(accessoryItem("Zapatilla Siux Diablo", "", "", "")))
	require.False(t, IsPooledMinimum(accessoryItem("ZAPATILLAS Nox", "", "", "")))
	require.False(t, IsPooledMinimum(accessoryItem("Red Mini Padel", "", "", "")))
	require.False(t, IsPooledMinimum(standardItem("", "", "")))

	forced := standardItem("", "", "")
	forced.Class = ClassPooled
	require.True(t, IsPooledMinimum(forced))

	exempt := accessoryItem("Muñequera", "", "", "")
	exempt.Class = ClassStandard
	require.False(t, IsPooledMinimum(exempt))
}

func TestAggregatePartitionsLines(t *testing.T) {
	lines := []Line{
		{Item: standardItem("$1", "$2", "$3"), Qty: 4},
		{Item: accessoryItem("Grip", "", "", "$50"), Qty: 7},
		{Item: accessoryItem("Zapatilla Bullpadel", "", "", "$50"), Qty: 2},
		{Item: accessoryItem("Visera", "", "", "$50"), Qty: 0},
	}
	pools := Aggregate(lines)
	require.Equal(t, 7, pools.Pooled)
	require.Equal(t, 6, pools.Standard)
	require.Equal(t, 13, pools.Total())
}

func TestStandardSchedule(t *testing.T) {
	it := standardItem("$100", "$150", "$200")
	require.True(t, UnitPrice(it, Pools{Standard: 25}).Equal(decimal.NewFromInt(100)))
	require.True(t, UnitPrice(it, Pools{Standard: 20}).Equal(decimal.NewFromInt(100)))
	require.True(t, UnitPrice(it, Pools{Standard: 19}).Equal(decimal.NewFromInt(150)))
	require.True(t, UnitPrice(it, Pools{Standard: 10}).Equal(decimal.NewFromInt(150)))
	require.True(t, UnitPrice(it, Pools{Standard: 9}).Equal(decimal.NewFromInt(200)))
	require.True(t, UnitPrice(it, Pools{Standard: 0}).Equal(decimal.NewFromInt(200)))
	// Pooled quantity never affects standard items.
	require.True(t, UnitPrice(it, Pools{Pooled: 80, Standard: 1}).Equal(decimal.NewFromInt(200)))
}

func TestStandardNegativePoolIsBaseTier(t *testing.T) {
	it := standardItem("$100", "$150", "$200")
	q := Resolve(it, Pools{Standard: -1})
	require.False(t, q.Surcharged)
	require.Equal(t, 3, q.Tier)
	require.True(t, q.Price.Equal(decimal.NewFromInt(200)))

	// An empty base tier still falls back for standard items.
	q = Resolve(standardItem("$100", "$150", ""), Pools{Standard: -3})
	require.False(t, q.Surcharged)
	require.True(t, q.FellBack)
	require.True(t, q.Price.Equal(decimal.NewFromInt(100)))
}

func TestStandardPriceIsMonotonic(t *testing.T) {
	it := standardItem("$100", "$150", "$200")
	prev := UnitPrice(it, Pools{})
	for qty := 1; qty <= 40; qty++ {
		cur := UnitPrice(it, Pools{Standard: qty})
		require.True(t, cur.LessThanOrEqual(prev), "qty %d", qty)
		prev = cur
	}
}

func TestPooledSchedule(t *testing.T) {
	it := accessoryItem("Grip", "$30", "$40", "$50")
	require.True(t, UnitPrice(it, Pools{Pooled: 60}).Equal(decimal.NewFromInt(30)))
	require.True(t, UnitPrice(it, Pools{Pooled: 59}).Equal(decimal.NewFromInt(40)))
	require.True(t, UnitPrice(it, Pools{Pooled: 41}).Equal(decimal.NewFromInt(40)))
	require.True(t, UnitPrice(it, Pools{Pooled: 40}).Equal(decimal.NewFromInt(50)))
	require.True(t, UnitPrice(it, Pools{Pooled: 20}).Equal(decimal.NewFromInt(50)))
}

func TestPooledSurchargeBoundary(t *testing.T) {
	it := accessoryItem("Grip", "$30", "$40", "$50")

	below := Resolve(it, Pools{Pooled: 19})
	require.True(t, below.Surcharged)
	require.Equal(t, 3, below.Tier)
	require.Equal(t, "77.5", below.Price.String())

	at := Resolve(it, Pools{Pooled: 20})
	require.False(t, at.Surcharged)
	require.True(t, at.Price.Equal(decimal.NewFromInt(50)))
}

func TestSurchargeSkipsFallback(t *testing.T) {
	it := accessoryItem("Grip", "$30", "$40", "")
	require.True(t, UnitPrice(it, Pools{Pooled: 5}).IsZero())
}

func TestFallbackToFirstPositiveTier(t *testing.T) {
	it := standardItem("-", "$150", "")
	q := Resolve(it, Pools{Standard: 3})
	require.True(t, q.FellBack)
	require.True(t, q.Price.Equal(decimal.NewFromInt(150)))

	q = Resolve(it, Pools{Standard: 30})
	require.True(t, q.Price.Equal(decimal.NewFromInt(150)))

	acc := accessoryItem("Grip", "$30", "", "$50")
	require.True(t, UnitPrice(acc, Pools{Pooled: 45}).Equal(decimal.NewFromInt(30)))
}

func TestAllTiersEmptyPricesZero(t *testing.T) {
	it := standardItem("", "-", "$0")
	require.True(t, UnitPrice(it, Pools{Standard: 12}).IsZero())
}

func TestUnitPriceIsPure(t *testing.T) {
	it := accessoryItem("Grip", "$30", "$40", "$50")
	pools := Pools{Pooled: 7}
	require.True(t, UnitPrice(it, pools).Equal(UnitPrice(it, pools)))
}

func TestReferencePrice(t *testing.T) {
	require.Equal(t, int64(200), ReferencePrice(standardItem("$100", "$150", "$200")))
	require.Equal(t, int64(100), ReferencePrice(accessoryItem("Grip", "", "", "$50")))
}
