// Package ingest appends deck records to a destination table, skipping
// records whose identity is already present.
package ingest

import (
	"context"
	"fmt"
	"time"

	"decksync/pkg/claim"
	"decksync/pkg/deck"
	"decksync/pkg/failure"
	"decksync/pkg/logger"
	"decksync/pkg/metrics"
	"decksync/pkg/producer"
	"decksync/pkg/table"

	"go.uber.org/zap"
)

// Status is what happened to one record.
type Status int

const (
	Appended Status = iota + 1
	Skipped
)

func (s Status) String() string {
	switch s {
	case Appended:
		return "appended"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Reason explains a Skipped outcome.
type Reason string

const (
	// ReasonDuplicate means the identity is already in the table, or another
	// writer claimed it first.
	ReasonDuplicate Reason = "duplicate"
)

// Outcome is the result of ingesting one record.
type Outcome struct {
	Status Status
	Reason Reason
	// Row holds the appended cells in column order.
	Row []string
}

// Options configures an Ingestor for one job.
type Options struct {
	Job    string
	Ref    table.Ref
	Layout deck.Layout
	// Status is written to the trailing status column of every new row.
	Status string
	// Rescan re-reads the whole table before every record instead of
	// trusting the identity index built on first use.
	Rescan   bool
	Claimer  claim.Claimer
	Producer producer.Producer
	Now      func() time.Time
}

// Ingestor decides, record by record, whether to append to one table.
// It is not safe for concurrent use; a job feeds it sequentially.
type Ingestor struct {
	table  table.Table
	opts   Options
	logger *logger.Logger

	index  map[string]struct{}
	loaded bool
}

// New creates a new Ingestor for t
func New(t table.Table, opts Options, l *logger.Logger) *Ingestor {
	if opts.Layout.Columns == nil {
		opts.Layout = deck.StandardLayout
	}
	if opts.Claimer == nil {
		opts.Claimer = claim.NopClaimer{}
	}
	if opts.Producer == nil {
		opts.Producer = producer.NopProducer{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Ingestor{
		table:  t,
		opts:   opts,
		logger: l,
		index:  make(map[string]struct{}),
	}
}

// Load reads the table and rebuilds the identity index.
func (ig *Ingestor) Load(ctx context.Context) error {
	rows, err := ig.table.Rows(ctx)
	if err != nil {
		metrics.StoreFailuresTotal.WithLabelValues(ig.opts.Job).Inc()
		return failure.StoreConnection(ig.opts.Ref.String(), fmt.Errorf("failed to read rows: %w", err))
	}

	index := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		index[deck.IdentityOf(deck.FromRow(row)).Key()] = struct{}{}
	}
	ig.index = index
	ig.loaded = true
	return nil
}

// Known returns the number of distinct identities in the index.
func (ig *Ingestor) Known() int {
	return len(ig.index)
}

// Ingest appends rec unless its identity is already recorded. Store errors
// come back as StoreConnectionFailure; the record is then neither appended
// nor skipped.
func (ig *Ingestor) Ingest(ctx context.Context, rec deck.Record) (Outcome, error) {
	if !ig.loaded || ig.opts.Rescan {
		if err := ig.Load(ctx); err != nil {
			return Outcome{}, err
		}
	}

	key := deck.IdentityOf(rec).Key()
	if _, ok := ig.index[key]; ok {
		return ig.skip(rec, "deck already recorded"), nil
	}

	claimKey := ig.claimKey(key)
	won, err := ig.opts.Claimer.Claim(ctx, claimKey)
	if err != nil {
		metrics.StoreFailuresTotal.WithLabelValues(ig.opts.Job).Inc()
		return Outcome{}, failure.StoreConnection(ig.opts.Ref.String(), fmt.Errorf("failed to claim deck: %w", err))
	}
	if !won {
		return ig.skip(rec, "deck claimed by another writer"), nil
	}

	row := ig.opts.Layout.Row(rec, ig.opts.Status)
	if err := ig.table.Append(ctx, row); err != nil {
		if rerr := ig.opts.Claimer.Release(ctx, claimKey); rerr != nil {
			ig.logger.Error("failed to release claim", rerr, zap.String("deck", rec.DeckName))
		}
		metrics.StoreFailuresTotal.WithLabelValues(ig.opts.Job).Inc()
		return Outcome{}, failure.StoreConnection(ig.opts.Ref.String(), fmt.Errorf("failed to append row: %w", err))
	}
	ig.index[key] = struct{}{}
	metrics.DecksAppendedTotal.WithLabelValues(ig.opts.Job).Inc()

	ig.logger.Info("added deck", deckFields(rec)...)
	ig.notify(ctx, key, rec)

	return Outcome{Status: Appended, Row: row}, nil
}

// claimKey scopes an identity key to the destination table. The same deck
// may be appended once to each table.
func (ig *Ingestor) claimKey(key string) string {
	return ig.opts.Ref.String() + "\x1f" + key
}

func (ig *Ingestor) skip(rec deck.Record, msg string) Outcome {
	metrics.DecksSkippedTotal.WithLabelValues(ig.opts.Job).Inc()
	ig.logger.Info(msg+", skipping", deckFields(rec)...)
	return Outcome{Status: Skipped, Reason: ReasonDuplicate}
}

// notify announces an appended deck. Failures never undo the append.
func (ig *Ingestor) notify(ctx context.Context, key string, rec deck.Record) {
	event := producer.NewDeckAppended(ig.opts.Job, ig.opts.Ref.Tab, rec, ig.opts.Now())
	if err := ig.opts.Producer.Publish(ctx, key, event); err != nil {
		metrics.NotifyFailuresTotal.Inc()
		ig.logger.Warn("failed to publish appended deck", zap.Error(err), zap.String("deck", rec.DeckName))
	}
}

func deckFields(rec deck.Record) []zap.Field {
	return []zap.Field{
		zap.String("deck", rec.DeckName),
		zap.String("author", rec.Author),
		zap.String("date", rec.Date),
		zap.String("tournament", rec.Tournament),
	}
}
