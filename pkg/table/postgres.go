package table

import (
	"context"
	"fmt"
	"time"

	"decksync/pkg/deck"
	"decksync/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS deck_rows (
		id          BIGSERIAL PRIMARY KEY,
		spreadsheet TEXT NOT NULL,
		tab         TEXT NOT NULL,
		deck_name   TEXT NOT NULL DEFAULT '',
		deck_date   TEXT NOT NULL DEFAULT '',
		decklist    TEXT NOT NULL DEFAULT '',
		author      TEXT NOT NULL DEFAULT '',
		tournament  TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS deck_rows_sheet_tab_idx ON deck_rows (spreadsheet, tab, id);
`

const postgresInsertSQL = `
	INSERT INTO deck_rows (spreadsheet, tab, deck_name, deck_date, decklist, author, tournament, status)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id
`

// PostgresConfig holds database connection settings
type PostgresConfig struct {
	URI      string
	MinConns int32
	MaxConns int32
	Layout   deck.Layout
}

// PostgresOpener stores deck rows in PostgreSQL through a pgx pool.
type PostgresOpener struct {
	pool   *pgxpool.Pool
	layout deck.Layout
	logger *logger.Logger
}

// NewPostgresOpener connects, verifies the connection and creates the schema.
func NewPostgresOpener(ctx context.Context, cfg PostgresConfig, l *logger.Logger) (*PostgresOpener, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &PostgresOpener{pool: pool, layout: cfg.Layout, logger: l}, nil
}

// Open returns a view of the rows stored for ref
func (o *PostgresOpener) Open(ctx context.Context, ref Ref) (Table, error) {
	if err := o.pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &postgresTable{opener: o, sheet: sheetKey(ref), tab: ref.Tab}, nil
}

// Close closes the pool
func (o *PostgresOpener) Close() error {
	o.pool.Close()
	return nil
}

type postgresTable struct {
	opener *PostgresOpener
	sheet  string
	tab    string
}

func (t *postgresTable) Rows(ctx context.Context) ([]map[string]string, error) {
	rows, err := t.opener.pool.Query(ctx, fmt.Sprintf(selectRowsSQL, "$1", "$2"), t.sheet, t.tab)
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

func (t *postgresTable) Append(ctx context.Context, cells []string) error {
	values, err := columnValues(t.opener.layout, cells)
	if err != nil {
		return err
	}

	var id int64
	args := append([]any{t.sheet, t.tab}, values...)
	if err := t.opener.pool.QueryRow(ctx, postgresInsertSQL, args...).Scan(&id); err != nil {
		return fmt.Errorf("failed to insert row: %w", err)
	}
	t.opener.logger.Debug("row inserted", zap.Int64("id", id), zap.String("tab", t.tab))
	return nil
}
