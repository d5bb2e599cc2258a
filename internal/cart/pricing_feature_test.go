package cart_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/catalogo-mayorista/internal/cart"
	"github.com/noah-isme/catalogo-mayorista/internal/catalog"
)

type pricingFeature struct {
	products map[string]catalog.Product
	cart     *cart.Cart
}

func (f *pricingFeature) reset() {
	f.products = map[string]catalog.Product{}
	f.cart = cart.New()
}

func (f *pricingFeature) theCatalogProduct(id, name, category, p1, p2, p3 string) error {
	f.products[id] = catalog.Product{ID: id, Name: name, SKU: id, Category: category, Price1: p1, Price2: p2, Price3: p3}
	return nil
}

func (f *pricingFeature) anEmptyCart() error {
	f.cart = cart.New()
	return nil
}

func (f *pricingFeature) product(id string) (catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return catalog.Product{}, fmt.Errorf("unknown product %q", id)
	}
	return p, nil
}

func (f *pricingFeature) iAdd(qty int, id string) error {
	p, err := f.product(id)
	if err != nil {
		return err
	}
	f.cart.Add(p, qty)
	return nil
}

func (f *pricingFeature) iSetTheQuantity(id string, qty int) error {
	f.cart.UpdateQuantity(id, qty)
	return nil
}

func (f *pricingFeature) iClearTheCart() error {
	f.cart.Clear()
	return nil
}

func (f *pricingFeature) theUnitPriceIs(id, want string) error {
	p, err := f.product(id)
	if err != nil {
		return err
	}
	expected, err := decimal.NewFromString(want)
	if err != nil {
		return err
	}
	if got := f.cart.PricePerUnit(p); !got.Equal(expected) {
		return fmt.Errorf("unit price of %s: expected %s, got %s", id, want, got)
	}
	return nil
}

func (f *pricingFeature) theCartTotalIs(want string) error {
	expected, err := decimal.NewFromString(want)
	if err != nil {
		return err
	}
	if got := f.cart.TotalPrice(); !got.Equal(expected) {
		return fmt.Errorf("cart total: expected %s, got %s", want, got)
	}
	return nil
}

func (f *pricingFeature) theAccessoryWarningIs(state string) error {
	want := state == "on"
	if got := f.cart.ShowAccessoryWarning(); got != want {
		return fmt.Errorf("accessory warning: expected %v, got %v", want, got)
	}
	return nil
}

func (f *pricingFeature) thePooledMinimumTotalIs(want int) error {
	if got := f.cart.PooledMinimumTotal(); got != want {
		return fmt.Errorf("pooled minimum total: expected %d, got %d", want, got)
	}
	return nil
}

func (f *pricingFeature) theCartHasLines(want int) error {
	if got := f.cart.Len(); got != want {
		return fmt.Errorf("lines: expected %d, got %d", want, got)
	}
	return nil
}

func (f *pricingFeature) theCartHoldsUnits(want int) error {
	if got := f.cart.TotalItems(); got != want {
		return fmt.Errorf("units: expected %d, got %d", want, got)
	}
	if pools := f.cart.Pools(); pools.Total() != want {
		return fmt.Errorf("pools %+v do not add up to %d", pools, want)
	}
	return nil
}

func initializePricingScenario(ctx *godog.ScenarioContext) {
	f := &pricingFeature{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		f.reset()
		return ctx, nil
	})

	ctx.Step(`^the catalog product "([^"]*)" "([^"]*)" in "([^"]*)" priced "([^"]*)" "([^"]*)" "([^"]*)"$`, f.theCatalogProduct)
	ctx.Step(`^an empty cart$`, f.anEmptyCart)

	ctx.Step(`^I add (\d+) of "([^"]*)"$`, f.iAdd)
	ctx.Step(`^I set the quantity of "([^"]*)" to (-?\d+)$`, f.iSetTheQuantity)
	ctx.Step(`^I clear the cart$`, f.iClearTheCart)

	ctx.Step(`^the unit price of "([^"]*)" is "([^"]*)"$`, f.theUnitPriceIs)
	ctx.Step(`^the cart total is "([^"]*)"$`, f.theCartTotalIs)
	ctx.Step(`^the accessory warning is (on|off)$`, f.theAccessoryWarningIs)
	ctx.Step(`^the pooled minimum total is (\d+)$`, f.thePooledMinimumTotalIs)
	ctx.Step(`^the cart has (\d+) lines?$`, f.theCartHasLines)
	ctx.Step(`^the cart holds (\d+) units$`, f.theCartHoldsUnits)
}

func TestPricingFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializePricingScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/pricing.feature"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
