package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Extraction Metrics
	PagesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "decksync_pages_fetched_total",
		Help: "The total number of listing and detail pages loaded",
	}, []string{"job"})
	PageFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "decksync_page_failures_total",
		Help: "The total number of pages that failed to load or had no rows",
	}, []string{"job"})
	RecordsExtractedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "decksync_records_extracted_total",
		Help: "The total number of deck records extracted",
	}, []string{"job"})
	FieldFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "decksync_field_failures_total",
		Help: "The total number of records dropped because a field was missing",
	}, []string{"job"})

	// Ingestion Metrics
	DecksAppendedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "decksync_decks_appended_total",
		Help: "The total number of rows appended to destination tables",
	}, []string{"job"})
	DecksSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "decksync_decks_skipped_total",
		Help: "The total number of records skipped as duplicates",
	}, []string{"job"})
	StoreFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "decksync_store_failures_total",
		Help: "The total number of destination table open, read or append failures",
	}, []string{"job"})
	NotifyFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "decksync_notify_failures_total",
		Help: "The total number of appended-deck events that could not be published",
	})

	// Scheduler Metrics
	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "decksync_job_duration_seconds",
		Help:    "Wall time of one job run",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	}, []string{"job"})
	LastPassTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "decksync_last_pass_timestamp_seconds",
		Help: "Unix time of the last pass in which every job opened its table",
	})
)
