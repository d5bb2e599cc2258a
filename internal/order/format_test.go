package order_test

import (
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/catalogo-mayorista/internal/cart"
	"github.com/noah-isme/catalogo-mayorista/internal/catalog"
	"github.com/noah-isme/catalogo-mayorista/internal/order"
)

func TestFormatOrderText(t *testing.T) {
	c := cart.New()
	c.Add(catalog.Product{ID: "G1", Name: "Grip Bullpadel", SKU: "GRP01", Category: "Accesorios y zapatillas", Price3: "$50"}, 5)
	c.Add(catalog.Product{ID: "P1", Name: "Pelotas Head", SKU: "PEL1", Category: "Pelotas Padel", Price3: "$90"}, 2)

	text := order.NewFormatter(order.Options{}).Format(c.Summary())

	want := "Pedido Maycam Games:\n================================\n" +
		"\n📦 Grip Bullpadel\nSKU: GRP01\nCantidad: 5 unidades\nPrecio unitario: $77,5\nSubtotal: 387,5\n" +
		"\n📦 Pelotas Head\nSKU: PEL1\nCantidad: 2 unidades\nPrecio unitario: $90\nSubtotal: 180\n" +
		"\n================================\n💰 Total: $567,5\n📊 Total unidades: 7\n================================"
	require.Equal(t, want, text)
}

func TestFormatterBrand(t *testing.T) {
	text := order.NewFormatter(order.Options{Brand: "Padel Sur"}).Format(cart.Summary{Total: decimal.Zero})
	require.True(t, strings.HasPrefix(text, "Pedido Padel Sur:\n"))
	require.Contains(t, text, "📊 Total unidades: 0\n")
}

func TestAmountGroupsThousands(t *testing.T) {
	f := order.NewFormatter(order.Options{})
	require.Equal(t, "250.000", f.Amount(decimal.NewFromInt(250000)))
	require.Equal(t, "12.345,67", f.Amount(decimal.RequireFromString("12345.671")))
	require.Equal(t, "0", f.Amount(decimal.Zero))
}

func TestShareLink(t *testing.T) {
	require.Empty(t, order.ShareLink("", "hola"))

	link := order.ShareLink("+54 9 11 5555-0000", "Pedido: 2 unidades")
	require.True(t, strings.HasPrefix(link, "https://wa.me/5491155550000?text="))
	u, err := url.Parse(link)
	require.NoError(t, err)
	require.Equal(t, "Pedido: 2 unidades", u.Query().Get("text"))
	require.NotContains(t, link, "+")
}
