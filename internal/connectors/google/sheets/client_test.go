package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	driveapi "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/custodia-labs/gsuite-cli/internal/connectors/google"
	"github.com/custodia-labs/gsuite-cli/internal/core/domain"
)

// fakeBackend fakes the Sheets and Drive REST endpoints the client
// touches. Drive requests arrive without the /v4 prefix.
type fakeBackend struct {
	spreadsheet map[string]any
	values      [][]any
	driveFiles  []map[string]any

	lastAppendBody  []byte
	lastAppendQuery map[string]string
	lastDriveQuery  string
}

func (f *fakeBackend) handler() http.Handler {
	writeJSON := func(w http.ResponseWriter, body any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, ":append"):
			f.lastAppendBody, _ = io.ReadAll(r.Body)
			f.lastAppendQuery = map[string]string{
				"valueInputOption": r.URL.Query().Get("valueInputOption"),
				"insertDataOption": r.URL.Query().Get("insertDataOption"),
			}
			writeJSON(w, map[string]any{"spreadsheetId": "sheet-key"})

		case strings.Contains(r.URL.Path, "/values/"):
			writeJSON(w, map[string]any{
				"range":          "Data!A1:ZZ1000",
				"majorDimension": "ROWS",
				"values":         f.values,
			})

		case strings.HasPrefix(r.URL.Path, "/v4/spreadsheets/"):
			writeJSON(w, f.spreadsheet)

		case strings.HasPrefix(r.URL.Path, "/files"):
			f.lastDriveQuery = r.URL.Query().Get("q")
			writeJSON(w, map[string]any{"files": f.driveFiles})

		default:
			http.NotFound(w, r)
		}
	})
}

func newTestClient(t *testing.T, backend *fakeBackend) *Client {
	t.Helper()
	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)

	ctx := context.Background()
	svc, err := sheetsapi.NewService(ctx, option.WithEndpoint(server.URL), option.WithoutAuthentication())
	require.NoError(t, err)
	driveSvc, err := driveapi.NewService(ctx, option.WithEndpoint(server.URL), option.WithoutAuthentication())
	require.NoError(t, err)

	return NewClientFromServices(svc, driveSvc, WithRetryPolicy(google.RetryPolicy{
		MaxRetries: 1,
		BaseDelay:  time.Millisecond,
	}))
}

func sampleSpreadsheet() map[string]any {
	return map[string]any{
		"spreadsheetId": "sheet-key",
		"properties":    map[string]any{"title": "Budget"},
		"sheets": []any{
			map[string]any{"properties": map[string]any{
				"sheetId": 0,
				"title":   "Data",
			}},
		},
	}
}

func TestOpenByKeyBindsWorksheets(t *testing.T) {
	backend := &fakeBackend{
		spreadsheet: sampleSpreadsheet(),
		values:      [][]any{{"Name", "Age"}, {"Ana", "30"}},
	}
	c := newTestClient(t, backend)

	s, err := c.OpenByKey(context.Background(), "sheet-key")
	require.NoError(t, err)
	assert.Equal(t, "Budget", s.Title)

	ws := s.Sheet1()
	require.NotNil(t, ws)

	values, err := ws.AllValues(context.Background())
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"Name", "Age"}, {"Ana", "30"}}, values)
}

func TestOpenFindsByTitle(t *testing.T) {
	backend := &fakeBackend{
		spreadsheet: sampleSpreadsheet(),
		driveFiles:  []map[string]any{{"id": "sheet-key", "name": "Budget"}},
	}
	c := newTestClient(t, backend)

	s, err := c.Open(context.Background(), "Budget")
	require.NoError(t, err)
	assert.Equal(t, "sheet-key", s.ID)
	assert.Contains(t, backend.lastDriveQuery, "name='Budget'")
	assert.Contains(t, backend.lastDriveQuery, "mimeType='application/vnd.google-apps.spreadsheet'")
}

func TestOpenMissingTitle(t *testing.T) {
	c := newTestClient(t, &fakeBackend{})

	_, err := c.Open(context.Background(), "Nope")
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "spreadsheet", notFound.ResourceType)
}

func TestOpenByURLRejectsBadURL(t *testing.T) {
	c := newTestClient(t, &fakeBackend{})

	_, err := c.OpenByURL(context.Background(), "https://example.com/not-a-sheet")
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestAllRecordsPadsShortRows(t *testing.T) {
	backend := &fakeBackend{
		spreadsheet: sampleSpreadsheet(),
		values: [][]any{
			{"Name", "Age", "City"},
			{"Ana", "30", "Berlin"},
			{"Bo"},
		},
	}
	c := newTestClient(t, backend)

	s, err := c.OpenByKey(context.Background(), "sheet-key")
	require.NoError(t, err)

	records, err := s.Sheet1().AllRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, map[string]any{"Name": "Ana", "Age": "30", "City": "Berlin"}, records[0])
	assert.Equal(t, map[string]any{"Name": "Bo", "Age": "", "City": ""}, records[1])
}

func TestAppendRowUsesUserEnteredInput(t *testing.T) {
	backend := &fakeBackend{spreadsheet: sampleSpreadsheet()}
	c := newTestClient(t, backend)

	s, err := c.OpenByKey(context.Background(), "sheet-key")
	require.NoError(t, err)

	require.NoError(t, s.Sheet1().AppendRow(context.Background(), []any{"Cy", "41"}))
	assert.Equal(t, "USER_ENTERED", backend.lastAppendQuery["valueInputOption"])
	assert.Equal(t, "INSERT_ROWS", backend.lastAppendQuery["insertDataOption"])
	assert.Contains(t, string(backend.lastAppendBody), `"Cy"`)
}

func TestCellEmptyOutsideData(t *testing.T) {
	backend := &fakeBackend{spreadsheet: sampleSpreadsheet()}
	c := newTestClient(t, backend)

	s, err := c.OpenByKey(context.Background(), "sheet-key")
	require.NoError(t, err)

	value, err := s.Sheet1().Cell(context.Background(), 5, 5)
	require.NoError(t, err)
	assert.Equal(t, "", value)
}

func TestFindReportsOneIndexedPosition(t *testing.T) {
	backend := &fakeBackend{
		spreadsheet: sampleSpreadsheet(),
		values: [][]any{
			{"Name", "Age"},
			{"Ana", "30"},
		},
	}
	c := newTestClient(t, backend)

	s, err := c.OpenByKey(context.Background(), "sheet-key")
	require.NoError(t, err)

	row, col, ok, err := s.Sheet1().Find(context.Background(), "30")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, row)
	assert.Equal(t, 2, col)

	_, _, ok, err = s.Sheet1().Find(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}
