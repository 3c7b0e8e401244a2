// Package table is the boundary to the tabular store that holds one row per
// persisted deck.
package table

import (
	"context"
	"fmt"
)

// Ref names one table: a spreadsheet (by name or ID) and a tab inside it.
type Ref struct {
	Spreadsheet string
	// ID, when set, is used instead of looking the spreadsheet up by name.
	ID  string
	Tab string
}

func (r Ref) String() string {
	name := r.Spreadsheet
	if name == "" {
		name = r.ID
	}
	return fmt.Sprintf("%s/%s", name, r.Tab)
}

// Table is an open destination table.
type Table interface {
	// Rows returns every data row keyed by header name.
	Rows(ctx context.Context) ([]map[string]string, error)

	// Append adds one row of cells in column order.
	Append(ctx context.Context, cells []string) error
}

// Opener opens tables and owns the underlying connection.
type Opener interface {
	Open(ctx context.Context, ref Ref) (Table, error)

	// Close releases the connection.
	Close() error
}

// zipRow keys cells by header. Short rows read as empty strings; cells
// beyond the header are dropped.
func zipRow(header []string, cells []string) map[string]string {
	row := make(map[string]string, len(header))
	for i, name := range header {
		if name == "" {
			continue
		}
		if i < len(cells) {
			row[name] = cells[i]
		} else {
			row[name] = ""
		}
	}
	return row
}
