package table

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// SheetsOpener opens Google Sheets worksheets with a service account.
type SheetsOpener struct {
	sheets *sheets.Service
	drive  *drive.Service
	header []string
}

// NewSheetsOpener authorizes with the service-account credentials file.
// Drive read access is used to find spreadsheets by name. header is written
// to worksheets that are still empty.
func NewSheetsOpener(ctx context.Context, credentialsFile string, header []string) (*SheetsOpener, error) {
	creds := option.WithCredentialsFile(credentialsFile)

	sheetsSvc, err := sheets.NewService(ctx, creds, option.WithScopes(sheets.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, creds, option.WithScopes(drive.DriveReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive client: %w", err)
	}
	return newSheetsOpener(sheetsSvc, driveSvc, header), nil
}

func newSheetsOpener(s *sheets.Service, d *drive.Service, header []string) *SheetsOpener {
	return &SheetsOpener{sheets: s, drive: d, header: header}
}

// Open resolves the spreadsheet and checks that the tab exists. An empty
// worksheet gets the header row first so appended rows are read back as data.
func (o *SheetsOpener) Open(ctx context.Context, ref Ref) (Table, error) {
	id := ref.ID
	if id == "" {
		var err error
		if id, err = o.lookup(ctx, ref.Spreadsheet); err != nil {
			return nil, err
		}
	}

	ss, err := o.sheets.Spreadsheets.Get(id).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet %s: %w", id, err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == ref.Tab {
			t := &SheetTable{svc: o.sheets, id: id, rng: a1Tab(ref.Tab)}
			if err := t.ensureHeader(ctx, o.header); err != nil {
				return nil, err
			}
			return t, nil
		}
	}
	return nil, fmt.Errorf("worksheet %q not found in spreadsheet %s", ref.Tab, id)
}

func (o *SheetsOpener) lookup(ctx context.Context, name string) (string, error) {
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escapeQuery(name), spreadsheetMimeType)
	list, err := o.drive.Files.List().Q(q).Fields("files(id, name)").PageSize(10).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to look up spreadsheet %q: %w", name, err)
	}
	if len(list.Files) == 0 {
		return "", fmt.Errorf("spreadsheet %q not found", name)
	}
	return list.Files[0].Id, nil
}

// Close is a no-op; the API clients hold no persistent connection.
func (o *SheetsOpener) Close() error { return nil }

// SheetTable is one worksheet. The first row is the header.
type SheetTable struct {
	svc *sheets.Service
	id  string
	rng string
}

// Rows reads the whole worksheet
func (t *SheetTable) Rows(ctx context.Context) ([]map[string]string, error) {
	resp, err := t.svc.Spreadsheets.Values.Get(t.id, t.rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read values: %w", err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}

	header := cellStrings(resp.Values[0])
	rows := make([]map[string]string, 0, len(resp.Values)-1)
	for _, v := range resp.Values[1:] {
		rows = append(rows, zipRow(header, cellStrings(v)))
	}
	return rows, nil
}

func (t *SheetTable) ensureHeader(ctx context.Context, header []string) error {
	if len(header) == 0 {
		return nil
	}
	resp, err := t.svc.Spreadsheets.Values.Get(t.id, t.rng+"!1:1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}
	if err := t.Append(ctx, header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return nil
}

// Append adds cells after the last row, stored verbatim.
func (t *SheetTable) Append(ctx context.Context, cells []string) error {
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	vr := &sheets.ValueRange{Values: [][]interface{}{values}}

	_, err := t.svc.Spreadsheets.Values.Append(t.id, t.rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append row: %w", err)
	}
	return nil
}

func cellStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		if v == nil {
			continue
		}
		out[i] = fmt.Sprint(v)
	}
	return out
}

// a1Tab quotes a worksheet title for use as an A1 range.
func a1Tab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
