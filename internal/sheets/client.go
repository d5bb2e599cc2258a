package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/noah-isme/catalogo-mayorista/internal/resilience"
)

// ErrNotConfigured is returned when the spreadsheet id or API key is missing.
var ErrNotConfigured = errors.New("sheets: spreadsheet id and api key are required")

// Config holds spreadsheet access settings.
type Config struct {
	SpreadsheetID string
	APIKey        string
	Timeout       time.Duration
	// Endpoint overrides the Sheets API base URL.
	Endpoint string
	// HTTPClient replaces the default retrying client. The API key is still added.
	HTTPClient *http.Client
}

// Client reads raw cell values from the catalog spreadsheet.
type Client struct {
	spreadsheetID string
	svc           *gsheets.Service
}

// NewClient constructs a Client. It returns ErrNotConfigured when credentials are missing.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	base := cfg.HTTPClient
	if base == nil {
		base = resilience.NewHTTPClient("sheets", cfg.Timeout, 3)
	}
	rt := base.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	httpClient := &http.Client{
		Timeout:   base.Timeout,
		Transport: &transport.APIKey{Key: cfg.APIKey, Transport: rt},
	}
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: new service: %w", err)
	}
	return &Client{spreadsheetID: cfg.SpreadsheetID, svc: svc}, nil
}

// Values returns every row of columns A..L of the named sheet, header included.
func (c *Client) Values(ctx context.Context, sheet string) ([][]string, error) {
	ctx, span := otel.Tracer("sheets.Client").Start(ctx, "Sheets.Values")
	defer span.End()
	span.SetAttributes(attribute.String("sheets.name", sheet))

	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, fmt.Sprintf("'%s'!A:L", sheet)).Context(ctx).Do()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("sheets: read %q: %w", sheet, err)
	}
	rows := Stringify(resp.Values)
	span.SetAttributes(attribute.Int("sheets.rows", len(rows)))
	return rows, nil
}
