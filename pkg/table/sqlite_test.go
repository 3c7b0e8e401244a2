package table

import (
	"context"
	"testing"

	"decksync/pkg/deck"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRoundTrip(t *testing.T) {
	for _, layout := range []deck.Layout{deck.StandardLayout, deck.AuthorFirstLayout} {
		t.Run(layout.Name, func(t *testing.T) {
			ctx := context.Background()
			o, err := NewSQLiteOpener(":memory:", layout)
			require.NoError(t, err)
			defer o.Close()

			op08, err := o.Open(ctx, Ref{Spreadsheet: "OPCG Database", Tab: "OP08"})
			require.NoError(t, err)
			op09, err := o.Open(ctx, Ref{Spreadsheet: "OPCG Database", Tab: "OP09"})
			require.NoError(t, err)

			withList := redZoro
			withList.Decklist = "4xOP01-025"
			require.NoError(t, op08.Append(ctx, layout.Row(redZoro, "")))
			require.NoError(t, op08.Append(ctx, layout.Row(withList, "Not Processed")))

			rows, err := op08.Rows(ctx)
			require.NoError(t, err)
			require.Len(t, rows, 2)
			assert.Equal(t, redZoro, deck.FromRow(rows[0]))
			assert.Equal(t, "4xOP01-025", rows[1][deck.ColDecklist])
			assert.Equal(t, "Not Processed", rows[1][deck.ColStatus])

			rows, err = op09.Rows(ctx)
			require.NoError(t, err)
			assert.Empty(t, rows)
		})
	}
}

func TestSQLiteAppendRejectsShortRow(t *testing.T) {
	ctx := context.Background()
	o, err := NewSQLiteOpener(":memory:", deck.StandardLayout)
	require.NoError(t, err)
	defer o.Close()

	tbl, err := o.Open(ctx, Ref{Spreadsheet: "OPCG Database", Tab: "OP08"})
	require.NoError(t, err)
	assert.Error(t, tbl.Append(ctx, []string{"only", "two"}))
}

func TestSQLiteOpenAfterClose(t *testing.T) {
	o, err := NewSQLiteOpener(":memory:", deck.StandardLayout)
	require.NoError(t, err)
	require.NoError(t, o.Close())

	_, err = o.Open(context.Background(), Ref{Spreadsheet: "OPCG Database", Tab: "OP08"})
	assert.Error(t, err)
}
