package table

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"decksync/pkg/deck"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// fakeGoogle serves the handful of Sheets and Drive endpoints SheetsOpener uses.
type fakeGoogle struct {
	mu       sync.Mutex
	values   [][]interface{}
	appended [][]interface{}
	query    string
}

func (f *fakeGoogle) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case strings.HasPrefix(r.URL.Path, "/drive/v3/files"):
		f.query = r.URL.Query().Get("q")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"files": []map[string]string{{"id": "sheet-123", "name": "OPCG Database"}},
		})
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
		body, _ := io.ReadAll(r.Body)
		var vr sheets.ValueRange
		json.Unmarshal(body, &vr)
		f.appended = append(f.appended, vr.Values...)
		f.values = append(f.values, vr.Values...)
		json.NewEncoder(w).Encode(map[string]interface{}{"spreadsheetId": "sheet-123"})
	case strings.Contains(r.URL.Path, "/values/"):
		json.NewEncoder(w).Encode(map[string]interface{}{
			"range":          "'OP08 English Winning Deck'!A1:F3",
			"majorDimension": "ROWS",
			"values":         f.values,
		})
	case strings.HasSuffix(r.URL.Path, "/spreadsheets/sheet-123"):
		json.NewEncoder(w).Encode(map[string]interface{}{
			"spreadsheetId": "sheet-123",
			"sheets": []map[string]interface{}{
				{"properties": map[string]string{"title": "OP08 English Winning Deck"}},
			},
		})
	default:
		http.NotFound(w, r)
	}
}

func newFakeSheetsOpener(t *testing.T, f *fakeGoogle) *SheetsOpener {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	s, err := sheets.NewService(ctx, option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication())
	require.NoError(t, err)
	d, err := drive.NewService(ctx, option.WithEndpoint(srv.URL+"/drive/v3/"), option.WithoutAuthentication())
	require.NoError(t, err)
	return newSheetsOpener(s, d, deck.StandardLayout.Header())
}

func TestSheetsOpenByNameAndReadRows(t *testing.T) {
	f := &fakeGoogle{values: [][]interface{}{
		{"Deck Name", "Date", "Decklist", "Author", "Tournament", "Status"},
		{"Red Zoro", "2024-05-01", "", "Alice", "Regional"},
		{"Blue Doffy", "2024-05-02", "4xOP04-031", "Bob", "Store Event", "Not Processed"},
	}}
	o := newFakeSheetsOpener(t, f)

	tbl, err := o.Open(context.Background(), Ref{Spreadsheet: "OPCG Database", Tab: "OP08 English Winning Deck"})
	require.NoError(t, err)
	assert.Contains(t, f.query, "name = 'OPCG Database'")

	assert.Empty(t, f.appended, "an existing header is left alone")

	rows, err := tbl.Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, redZoro, deck.FromRow(rows[0]))
	assert.Equal(t, "", rows[0][deck.ColStatus])
	assert.Equal(t, "Not Processed", rows[1][deck.ColStatus])
}

func TestSheetsAppend(t *testing.T) {
	f := &fakeGoogle{}
	o := newFakeSheetsOpener(t, f)

	tbl, err := o.Open(context.Background(), Ref{ID: "sheet-123", Tab: "OP08 English Winning Deck"})
	require.NoError(t, err)
	assert.Empty(t, f.query, "drive lookup must be skipped when the ID is known")

	require.NoError(t, tbl.Append(context.Background(), deck.StandardLayout.Row(redZoro, "")))
	require.Len(t, f.appended, 2)
	assert.Equal(t, []interface{}{"Red Zoro", "2024-05-01", "", "Alice", "Regional", ""}, f.appended[1])
}

func TestSheetsEmptyWorksheetGetsHeader(t *testing.T) {
	f := &fakeGoogle{}
	o := newFakeSheetsOpener(t, f)
	ctx := context.Background()

	tbl, err := o.Open(ctx, Ref{ID: "sheet-123", Tab: "OP08 English Winning Deck"})
	require.NoError(t, err)
	require.Len(t, f.appended, 1)
	assert.Equal(t, []interface{}{"Deck Name", "Date", "Decklist", "Author", "Tournament", "Status"}, f.appended[0])

	rows, err := tbl.Rows(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)

	require.NoError(t, tbl.Append(ctx, deck.StandardLayout.Row(redZoro, "")))
	rows, err = tbl.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, redZoro, deck.FromRow(rows[0]))

	// Reopening does not write a second header.
	_, err = o.Open(ctx, Ref{ID: "sheet-123", Tab: "OP08 English Winning Deck"})
	require.NoError(t, err)
	assert.Len(t, f.appended, 2)
}

func TestSheetsOpenMissingTab(t *testing.T) {
	o := newFakeSheetsOpener(t, &fakeGoogle{})

	_, err := o.Open(context.Background(), Ref{ID: "sheet-123", Tab: "OP09 Japan Winning Deck"})
	assert.ErrorContains(t, err, "not found")
}

func TestA1Tab(t *testing.T) {
	assert.Equal(t, "'OP08 English Winning Deck'", a1Tab("OP08 English Winning Deck"))
	assert.Equal(t, "'Zoro''s Decks'", a1Tab("Zoro's Decks"))
	assert.Equal(t, `Zoro\'s \\ Decks`, escapeQuery(`Zoro's \ Decks`))
}
