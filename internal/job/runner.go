package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"decksync/pkg/claim"
	"decksync/pkg/config"
	"decksync/pkg/deck"
	"decksync/pkg/failure"
	"decksync/pkg/ingest"
	"decksync/pkg/logger"
	"decksync/pkg/metrics"
	"decksync/pkg/producer"
	"decksync/pkg/scrape"
	"decksync/pkg/table"

	"go.uber.org/zap"
)

// Job is one source page feeding one destination table.
type Job struct {
	Name      string
	Ref       table.Ref
	URL       string
	Mode      scrape.Mode
	Status    string
	Selectors scrape.Selectors
}

// FromConfig converts a configured job.
func FromConfig(c config.JobConfig) Job {
	return Job{
		Name:      c.Name,
		Ref:       table.Ref{Spreadsheet: c.Spreadsheet, ID: c.SpreadsheetID, Tab: c.Tab},
		URL:       c.URL,
		Mode:      scrape.Mode(c.Mode),
		Status:    c.Status,
		Selectors: c.Selectors.Scrape(),
	}
}

// Report summarizes one job run.
type Report struct {
	Job          string
	PagesFetched int
	Extracted    int
	Appended     int
	Skipped      int
	Failures     []*failure.Error
	Duration     time.Duration
}

// SessionFactory starts a page session for one job run.
type SessionFactory func(ctx context.Context) (scrape.Session, error)

// RunnerOptions holds the collaborators shared by every job.
type RunnerOptions struct {
	Layout   deck.Layout
	Rescan   bool
	Claimer  claim.Claimer
	Producer producer.Producer
}

// Runner executes a single job: open the table, extract the page, ingest
// every record.
type Runner struct {
	logger     *logger.Logger
	newSession SessionFactory
	opener     table.Opener
	opts       RunnerOptions
}

// NewRunner creates a new Runner instance
func NewRunner(l *logger.Logger, sessions SessionFactory, opener table.Opener, opts RunnerOptions) *Runner {
	return &Runner{
		logger:     l,
		newSession: sessions,
		opener:     opener,
		opts:       opts,
	}
}

// Run executes j. Page and field failures are collected in the report; a
// StoreConnectionFailure stops the job and is returned.
func (r *Runner) Run(ctx context.Context, j Job) (report Report, err error) {
	start := time.Now()
	report = Report{Job: j.Name}
	log := r.logger.ForJob(j.Name, j.Ref.Tab, j.URL)
	defer func() {
		report.Duration = time.Since(start)
		metrics.JobDuration.WithLabelValues(j.Name).Observe(report.Duration.Seconds())
	}()

	extractor, err := scrape.NewExtractor(nil, j.Mode, j.Selectors)
	if err != nil {
		return report, fmt.Errorf("invalid selectors for job %s: %w", j.Name, err)
	}

	tbl, err := r.opener.Open(ctx, j.Ref)
	if err != nil {
		metrics.StoreFailuresTotal.WithLabelValues(j.Name).Inc()
		return report, r.storeFailure(log, &report, failure.StoreConnection(j.Ref.String(), err))
	}

	ig := ingest.New(tbl, ingest.Options{
		Job:      j.Name,
		Ref:      j.Ref,
		Layout:   r.opts.Layout,
		Status:   j.Status,
		Rescan:   r.opts.Rescan,
		Claimer:  r.opts.Claimer,
		Producer: r.opts.Producer,
	}, log)
	if err := ig.Load(ctx); err != nil {
		return report, r.storeFailure(log, &report, err)
	}
	log.Info("opened table", zap.Int("known_decks", ig.Known()))

	session, err := r.newSession(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to start page session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Error("failed to close page session", err)
		}
	}()

	res := extractor.WithSession(session).Extract(ctx, j.URL)
	report.PagesFetched = res.PagesFetched
	report.Extracted = len(res.Records)
	metrics.PagesFetchedTotal.WithLabelValues(j.Name).Add(float64(res.PagesFetched))
	metrics.RecordsExtractedTotal.WithLabelValues(j.Name).Add(float64(len(res.Records)))

	for _, f := range res.Failures {
		report.Failures = append(report.Failures, f)
		if f.Kind == failure.FieldNotFound {
			metrics.FieldFailuresTotal.WithLabelValues(j.Name).Inc()
			log.Failure("skipping record", f)
		} else {
			metrics.PageFailuresTotal.WithLabelValues(j.Name).Inc()
			log.Failure("failed to load page", f)
		}
	}

	for _, rec := range res.Records {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		out, err := ig.Ingest(ctx, rec)
		if err != nil {
			return report, r.storeFailure(log, &report, err)
		}
		switch out.Status {
		case ingest.Appended:
			report.Appended++
		case ingest.Skipped:
			report.Skipped++
		}
	}

	log.Info("job finished",
		zap.Int("pages", report.PagesFetched),
		zap.Int("extracted", report.Extracted),
		zap.Int("appended", report.Appended),
		zap.Int("skipped", report.Skipped),
		zap.Int("failures", len(report.Failures)),
	)
	return report, nil
}

func (r *Runner) storeFailure(log *logger.Logger, report *Report, err error) error {
	var ferr *failure.Error
	if errors.As(err, &ferr) {
		report.Failures = append(report.Failures, ferr)
	}
	log.Failure("destination table unavailable, stopping job", err)
	return err
}
