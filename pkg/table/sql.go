package table

import (
	"fmt"

	"decksync/pkg/deck"
)

// SQL backends store every (spreadsheet, tab) pair in one deck_rows table.
// Rows come back keyed by the same header names a spreadsheet would use.

var headerColumns = []struct {
	header string
	column string
}{
	{deck.ColDeckName, "deck_name"},
	{deck.ColDate, "deck_date"},
	{deck.ColDecklist, "decklist"},
	{deck.ColAuthor, "author"},
	{deck.ColTournament, "tournament"},
	{deck.ColStatus, "status"},
}

const selectRowsSQL = `SELECT deck_name, deck_date, decklist, author, tournament, status FROM deck_rows WHERE spreadsheet = %s AND tab = %s ORDER BY id`

// columnValues maps positional cells to SQL column values in headerColumns order.
func columnValues(layout deck.Layout, cells []string) ([]any, error) {
	if len(cells) != len(layout.Columns) {
		return nil, fmt.Errorf("row has %d cells, layout %s has %d columns", len(cells), layout.Name, len(layout.Columns))
	}
	byHeader := make(map[string]string, len(cells))
	for i, name := range layout.Columns {
		byHeader[name] = cells[i]
	}
	values := make([]any, len(headerColumns))
	for i, hc := range headerColumns {
		values[i] = byHeader[hc.header]
	}
	return values, nil
}

// scannedRow keys values scanned in headerColumns order by header name.
func scannedRow(values []string) map[string]string {
	row := make(map[string]string, len(headerColumns))
	for i, hc := range headerColumns {
		row[hc.header] = values[i]
	}
	return row
}

func sheetKey(ref Ref) string {
	if ref.Spreadsheet != "" {
		return ref.Spreadsheet
	}
	return ref.ID
}
