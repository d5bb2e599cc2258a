package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func skus(products []Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.SKU)
	}
	return out
}

func filterFixture() []Product {
	return []Product{
		{SKU: "PAL-01", Name: "Paleta Siux Electra ST3 (Pro)", Brand: "Siux", Category: "Paletas de Padel", Stock: 2, Price3: "$150.000", Year: "2026", Level: "Avanzado"},
		{SKU: "PAL-02", Name: "Paleta Nox ML10/Pro Cup", Brand: "Nox", Category: "Paletas de Padel", Stock: 1, Price3: "$120.000", Year: "2025", Level: "Intermedio"},
		{SKU: "ACC-01", Name: "Muñequera Nox", Brand: "Nox", Category: "Accesorios y zapatillas", Stock: 100, Price3: "$70.000"},
		{SKU: "ZAP-01", Name: "Zapatilla Bullpadel Hack", Brand: "Bullpadel", Category: "Accesorios y zapatillas", Stock: 4, Price3: "$100.000"},
		{SKU: "BOL-01", Name: "Bolso Varlion", Brand: "Varlion", Category: "Bolsos y Mochilas", Stock: 0, Price3: "$50.000"},
		{SKU: "  ", Name: "Fila vacía", Category: "Bolsos y Mochilas", Stock: 9},
	}
}

func TestFilterDropsMissingSKUAndOutOfStock(t *testing.T) {
	got := Filter(filterFixture(), Query{})
	require.Equal(t, []string{"PAL-01", "PAL-02", "ACC-01", "ZAP-01"}, skus(got))

	got = Filter(filterFixture(), Query{ShowOutOfStock: true})
	require.Equal(t, []string{"PAL-01", "PAL-02", "ACC-01", "ZAP-01", "BOL-01"}, skus(got))
}

func TestFilterCategoryAndBrand(t *testing.T) {
	got := Filter(filterFixture(), Query{Category: "Todos", Brand: "Nox"})
	require.Equal(t, []string{"PAL-02", "ACC-01"}, skus(got))

	got = Filter(filterFixture(), Query{Category: "Paletas de Padel", Brand: AllValues})
	require.Equal(t, []string{"PAL-01", "PAL-02"}, skus(got))
}

func TestFilterSearchTerms(t *testing.T) {
	cases := map[string][]string{
		"pro":            {"PAL-01", "PAL-02"},
		"cup":            {"PAL-02"},
		"ml":             {"PAL-02"},
		"l10":            {},
		"pal-0":          {"PAL-01", "PAL-02"},
		"avanz":          {"PAL-01"},
		"2025":           {"PAL-02"},
		"NOX muñe":       {"ACC-01"},
		"  siux   2026 ": {"PAL-01"},
		"paleta adidas":  {},
	}
	for search, want := range cases {
		got := Filter(filterFixture(), Query{Search: search})
		require.Equal(t, want, skus(got), "search %q", search)
	}
}

func TestFilterSortsByReferencePrice(t *testing.T) {
	asc := Filter(filterFixture(), Query{Sort: SortAsc})
	// The wristband is pooled-minimum so it ranks at twice its base price.
	require.Equal(t, []string{"ZAP-01", "PAL-02", "ACC-01", "PAL-01"}, skus(asc))

	desc := Filter(filterFixture(), Query{Sort: SortDesc})
	require.Equal(t, []string{"PAL-01", "ACC-01", "PAL-02", "ZAP-01"}, skus(desc))

	plain := Filter(filterFixture(), Query{Sort: SortDefault})
	require.Equal(t, []string{"PAL-01", "PAL-02", "ACC-01", "ZAP-01"}, skus(plain))
}

func TestBuildFacets(t *testing.T) {
	all := BuildFacets(filterFixture(), "")
	require.Equal(t, []string{"Todos", "Paletas de Padel", "Accesorios y zapatillas", "Bolsos y Mochilas"}, all.Categories)
	require.Equal(t, []string{"Todos", "Siux", "Nox", "Bullpadel", "Varlion"}, all.Brands)

	acc := BuildFacets(filterFixture(), "Accesorios y zapatillas")
	require.Equal(t, []string{"Todos", "Nox", "Bullpadel"}, acc.Brands)
}

func TestExtractBrandAndLabels(t *testing.T) {
	require.Equal(t, "Black Crown", ExtractBrand("Paleta BLACK CROWN Piton"))
	require.Equal(t, "X-TRUST", ExtractBrand("Grip x-trust"))
	require.Equal(t, "", ExtractBrand("Pelotas Head"))

	require.Equal(t, AccessoryLabels, LabelsFor("Accesorios y zapatillas", false))
	require.Equal(t, DefaultLabels, LabelsFor("Accesorios y zapatillas", true))
	require.Equal(t, DefaultLabels, LabelsFor("Paletas de Padel", false))
	require.Equal(t, AccessoryLabels, ClassLabels(true))
	require.Equal(t, DefaultLabels, ClassLabels(false))
}
