package sheets_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/catalogo-mayorista/internal/sheets"
)

func fakeSheetsAPI(t *testing.T, data map[string][][]interface{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			http.Error(w, `{"error":{"code":403,"message":"bad key"}}`, http.StatusForbidden)
			return
		}
		for sheet, values := range data {
			if strings.Contains(r.URL.Path, "'"+sheet+"'") {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(map[string]any{"range": sheet + "!A1:L9", "majorDimension": "ROWS", "values": values})
				return
			}
		}
		http.Error(w, `{"error":{"code":400,"message":"Unable to parse range"}}`, http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := sheets.NewClient(context.Background(), sheets.Config{SpreadsheetID: "abc"})
	require.ErrorIs(t, err, sheets.ErrNotConfigured)
}

func TestSourceLoadsAvailableSheets(t *testing.T) {
	srv := fakeSheetsAPI(t, map[string][][]interface{}{
		"Paletas de Padel": {
			{"#", "Nombre"},
			{"1", "Paleta Nox AT10", "$1", "$2", "$3", "", "", "4", "PAL002"},
		},
		"Pelotas Padel": {
			{"#", "Nombre"},
			{"1", "Pelotas Head", "$9", "$9", "$9", "", "", 10.0, "PEL1"},
		},
	})
	client, err := sheets.NewClient(context.Background(), sheets.Config{
		SpreadsheetID: "sheet-id",
		APIKey:        "test-key",
		Endpoint:      srv.URL + "/",
		HTTPClient:    &http.Client{Timeout: time.Second},
	})
	require.NoError(t, err)

	src := sheets.NewSource(client, zerolog.Nop())
	products, err := src.Products(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	require.Equal(t, "Paletas de Padel-PAL002", products[0].ID)
	require.Equal(t, "Pelotas Padel-PEL1", products[1].ID)
	require.Equal(t, 10, products[1].Stock)

	imports, err := src.ImportRows(context.Background())
	require.NoError(t, err)
	require.Len(t, imports, len(sheets.SheetNames))
	require.Len(t, imports[0].Rows, 1)
	require.Error(t, imports[1].Err)
}

type failingReader struct{}

func (failingReader) Values(context.Context, string) ([][]string, error) {
	return nil, errors.New("quota exceeded")
}

func TestSourceFailsWhenNoSheetLoads(t *testing.T) {
	src := sheets.NewSource(failingReader{}, zerolog.Nop())
	_, err := src.Products(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "quota exceeded")
}
