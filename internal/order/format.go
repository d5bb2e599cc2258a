package order

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/noah-isme/catalogo-mayorista/internal/cart"
)

const (
	DefaultBrand = "Maycam Games"
	rule         = "================================"
)

var nonDigits = regexp.MustCompile(`\D+`)

// Options controls how an order is rendered.
type Options struct {
	Brand  string
	Locale language.Tag
}

// Formatter renders cart summaries as the plain text order sent over WhatsApp.
type Formatter struct {
	brand   string
	printer *message.Printer
}

// NewFormatter builds a Formatter. Amounts use es-AR conventions unless
// another locale is given.
func NewFormatter(opts Options) *Formatter {
	brand := strings.TrimSpace(opts.Brand)
	if brand == "" {
		brand = DefaultBrand
	}
	tag := opts.Locale
	if tag == language.Und {
		tag = language.MustParse("es-AR")
	}
	return &Formatter{brand: brand, printer: message.NewPrinter(tag)}
}

// Amount formats d with locale grouping and at most two fraction digits.
func (f *Formatter) Amount(d decimal.Decimal) string {
	v, _ := d.Round(2).Float64()
	return f.printer.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
}

// Format renders every line of the summary followed by the totals footer.
func (f *Formatter) Format(s cart.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Pedido %s:\n%s\n", f.brand, rule)
	for _, l := range s.Lines {
		fmt.Fprintf(&b, "\n📦 %s\n", l.Name)
		fmt.Fprintf(&b, "SKU: %s\n", l.SKU)
		fmt.Fprintf(&b, "Cantidad: %d unidades\n", l.Quantity)
		fmt.Fprintf(&b, "Precio unitario: $%s\n", f.Amount(l.UnitPrice))
		fmt.Fprintf(&b, "Subtotal: %s\n", f.Amount(l.Subtotal))
	}
	fmt.Fprintf(&b, "\n%s\n", rule)
	fmt.Fprintf(&b, "💰 Total: $%s\n", f.Amount(s.Total))
	fmt.Fprintf(&b, "📊 Total unidades: %d\n", s.TotalItems)
	b.WriteString(rule)
	return b.String()
}

// ShareLink returns a wa.me link that opens a chat with phone prefilled with
// text. It returns "" when phone has no digits.
func ShareLink(phone, text string) string {
	digits := nonDigits.ReplaceAllString(phone, "")
	if digits == "" {
		return ""
	}
	return "https://wa.me/" + digits + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}
