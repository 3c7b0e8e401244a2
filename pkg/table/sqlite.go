package table

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"decksync/pkg/deck"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS deck_rows (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		spreadsheet TEXT NOT NULL,
		tab         TEXT NOT NULL,
		deck_name   TEXT NOT NULL DEFAULT '',
		deck_date   TEXT NOT NULL DEFAULT '',
		decklist    TEXT NOT NULL DEFAULT '',
		author      TEXT NOT NULL DEFAULT '',
		tournament  TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS deck_rows_sheet_tab_idx ON deck_rows (spreadsheet, tab, id)
`

const sqliteInsertSQL = `INSERT INTO deck_rows (spreadsheet, tab, deck_name, deck_date, decklist, author, tournament, status) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

// SQLiteOpener stores deck rows in a local SQLite file.
type SQLiteOpener struct {
	db     *sql.DB
	layout deck.Layout
}

// NewSQLiteOpener opens path (":memory:" for a throwaway database) and
// creates the schema.
func NewSQLiteOpener(path string, layout deck.Layout) (*SQLiteOpener, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps :memory: databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	for _, stmt := range strings.Split(sqliteSchema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return &SQLiteOpener{db: db, layout: layout}, nil
}

// Open returns a view of the rows stored for ref
func (o *SQLiteOpener) Open(ctx context.Context, ref Ref) (Table, error) {
	if err := o.db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &sqliteTable{opener: o, sheet: sheetKey(ref), tab: ref.Tab}, nil
}

// Close closes the database
func (o *SQLiteOpener) Close() error {
	return o.db.Close()
}

type sqliteTable struct {
	opener *SQLiteOpener
	sheet  string
	tab    string
}

func (t *sqliteTable) Rows(ctx context.Context) ([]map[string]string, error) {
	rows, err := t.opener.db.QueryContext(ctx, fmt.Sprintf(selectRowsSQL, "?", "?"), t.sheet, t.tab)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows: %w", err)
	}
	defer rows.Close()

	var out []map[string]string
	for rows.Next() {
		values := make([]string, len(headerColumns))
		dest := make([]any, len(values))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, scannedRow(values))
	}
	return out, rows.Err()
}

func (t *sqliteTable) Append(ctx context.Context, cells []string) error {
	values, err := columnValues(t.opener.layout, cells)
	if err != nil {
		return err
	}
	args := append([]any{t.sheet, t.tab}, values...)
	if _, err := t.opener.db.ExecContext(ctx, sqliteInsertSQL, args...); err != nil {
		return fmt.Errorf("failed to insert row: %w", err)
	}
	return nil
}
