package catalog

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/catalogo-mayorista/internal/pricing"
)

// overlayClassKey names the optional column that pins a SKU's pricing class.
const overlayClassKey = "Clase"

// OverlayEntry is what the overlay knows about one SKU.
type OverlayEntry struct {
	Images []string
	Class  pricing.Class
}

// ImageOverlay maps SKUs to image URLs read from a JSON export of the image
// spreadsheet. Every string column other than SKU, Nombre and Clase that looks
// like a URL is an image. Clase ("pooled" or "standard") overrides the name
// based pricing classification. The file is re-read when its modification
// time changes.
type ImageOverlay struct {
	path string

	mu    sync.Mutex
	mtime time.Time
	bySKU map[string]OverlayEntry
}

// NewImageOverlay returns an overlay backed by path. An empty path disables it.
func NewImageOverlay(path string) *ImageOverlay {
	return &ImageOverlay{path: strings.TrimSpace(path)}
}

// Apply replaces product images with overlay images where the SKU has any.
// Where the overlay pins a pricing class it also swaps the tier labels for
// those of the pinned schedule.
func (o *ImageOverlay) Apply(products []Product) error {
	if o == nil || o.path == "" {
		return nil
	}
	index, err := o.load()
	if err != nil {
		return err
	}
	for i := range products {
		entry, ok := index[strings.TrimSpace(products[i].SKU)]
		if !ok {
			continue
		}
		if len(entry.Images) > 0 {
			products[i].Images = append([]string(nil), entry.Images...)
		}
		if entry.Class != pricing.ClassAuto {
			products[i].PricingClass = entry.Class
			if products[i].Price1Label != "" {
				products[i].ApplyLabels(ClassLabels(entry.Class == pricing.ClassPooled))
			}
		}
	}
	return nil
}

// Images returns the overlay URLs for a SKU.
func (o *ImageOverlay) Images(sku string) []string {
	if o == nil || o.path == "" {
		return nil
	}
	index, err := o.load()
	if err != nil {
		return nil
	}
	return index[strings.TrimSpace(sku)].Images
}

func (o *ImageOverlay) load() (map[string]OverlayEntry, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	info, err := os.Stat(o.path)
	if err != nil {
		return nil, fmt.Errorf("stat image overlay: %w", err)
	}
	if o.bySKU != nil && !info.ModTime().After(o.mtime) {
		return o.bySKU, nil
	}
	data, err := os.ReadFile(o.path)
	if err != nil {
		return nil, fmt.Errorf("read image overlay: %w", err)
	}
	index, err := ParseImageOverlay(data)
	if err != nil {
		return nil, err
	}
	o.bySKU = index
	o.mtime = info.ModTime()
	return index, nil
}

// ParseImageOverlay decodes the overlay rows into a SKU index. Rows without a
// SKU, or with neither a URL nor a known Clase, are ignored.
func ParseImageOverlay(data []byte) (map[string]OverlayEntry, error) {
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode image overlay: %w", err)
	}
	index := make(map[string]OverlayEntry, len(rows))
	for _, row := range rows {
		sku := strings.TrimSpace(stringify(row["SKU"]))
		if sku == "" {
			continue
		}
		var entry OverlayEntry
		switch class := pricing.Class(strings.ToLower(strings.TrimSpace(stringify(row[overlayClassKey])))); class {
		case pricing.ClassPooled, pricing.ClassStandard:
			entry.Class = class
		}
		for _, key := range slices.Sorted(maps.Keys(row)) {
			if key == "SKU" || key == "Nombre" || key == overlayClassKey {
				continue
			}
			s, ok := row[key].(string)
			if !ok {
				continue
			}
			s = strings.TrimSpace(s)
			if strings.HasPrefix(s, "http") {
				entry.Images = append(entry.Images, s)
			}
		}
		if len(entry.Images) > 0 || entry.Class != pricing.ClassAuto {
			index[sku] = entry
		}
	}
	return index, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return fmt.Sprintf("%.0f", t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
