package sheets

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/catalogo-mayorista/internal/catalog"
	"github.com/noah-isme/catalogo-mayorista/internal/obs"
)

// ValueReader is the part of Client used by Source and the importer.
type ValueReader interface {
	Values(ctx context.Context, sheet string) ([][]string, error)
}

// Source loads the catalog from every sheet in SheetNames.
type Source struct {
	Reader ValueReader
	Sheets []string
	Logger zerolog.Logger
}

// NewSource builds a Source reading the default sheets.
func NewSource(reader ValueReader, logger zerolog.Logger) *Source {
	return &Source{
		Reader: reader,
		Sheets: SheetNames,
		Logger: logger.With().Str("component", "sheets").Logger(),
	}
}

// Name implements catalog.Source.
func (s *Source) Name() string { return "sheets" }

func (s *Source) sheets() []string {
	if len(s.Sheets) > 0 {
		return s.Sheets
	}
	return SheetNames
}

// Products implements catalog.Source. A sheet that cannot be read is logged and
// skipped; the call fails only when no sheet could be read.
func (s *Source) Products(ctx context.Context) ([]catalog.Product, error) {
	if s == nil || s.Reader == nil {
		return nil, ErrNotConfigured
	}
	var (
		products []catalog.Product
		failures []error
	)
	for _, sheet := range s.sheets() {
		rows, err := s.Reader.Values(ctx, sheet)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.Logger.Error().Err(err).Str("sheet", sheet).Msg("sheet fetch failed")
			failures = append(failures, err)
			continue
		}
		parsed, skipped := ParseProducts(sheet, rows)
		for i := 0; i < skipped; i++ {
			obs.ObserveSheetsRowSkipped(sheet)
		}
		products = append(products, parsed...)
	}
	if len(failures) == len(s.sheets()) {
		return nil, fmt.Errorf("no sheet could be read: %w", errors.Join(failures...))
	}
	if products == nil {
		products = []catalog.Product{}
	}
	return products, nil
}

// SheetImport is the outcome of reading one sheet for import.
type SheetImport struct {
	Sheet string
	Rows  []ImportRow
	Err   error
}

// ImportRows reads every sheet and returns its upsert candidates. Read errors
// are reported per sheet.
func (s *Source) ImportRows(ctx context.Context) ([]SheetImport, error) {
	if s == nil || s.Reader == nil {
		return nil, ErrNotConfigured
	}
	out := make([]SheetImport, 0, len(s.sheets()))
	for _, sheet := range s.sheets() {
		rows, err := s.Reader.Values(ctx, sheet)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			out = append(out, SheetImport{Sheet: sheet, Err: err})
			continue
		}
		out = append(out, SheetImport{Sheet: sheet, Rows: ParseImportRows(sheet, rows)})
	}
	return out, nil
}
