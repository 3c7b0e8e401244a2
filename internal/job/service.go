package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"decksync/pkg/failure"
	"decksync/pkg/logger"
	"decksync/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobRunner runs one job.
type JobRunner interface {
	Run(ctx context.Context, j Job) (Report, error)
}

// Readiness receives the health of the last pass.
type Readiness interface {
	SetReady(ready bool)
}

// Service runs every configured job, once or on a fixed interval
type Service struct {
	logger   *logger.Logger
	runner   JobRunner
	jobs     []Job
	interval time.Duration
	ready    Readiness
}

// NewService creates a new job Service instance
func NewService(l *logger.Logger, runner JobRunner, jobs []Job, interval time.Duration) *Service {
	return &Service{
		logger:   l,
		runner:   runner,
		jobs:     jobs,
		interval: interval,
	}
}

// WithReadiness reports each pass to r.
func (s *Service) WithReadiness(r Readiness) *Service {
	s.ready = r
	return s
}

// RunOnce runs every job in order. A failing job does not stop the ones
// after it; all job errors are returned joined.
func (s *Service) RunOnce(ctx context.Context) ([]Report, error) {
	log := s.logger.With(zap.String("pass", uuid.NewString()))
	log.Info("starting pass", zap.Int("jobs", len(s.jobs)))
	start := time.Now()

	reports := make([]Report, 0, len(s.jobs))
	appended := 0
	var errs []error
	storeOK := true

	for _, j := range s.jobs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		report, err := s.runner.Run(ctx, j)
		reports = append(reports, report)
		appended += report.Appended
		if err != nil {
			errs = append(errs, fmt.Errorf("job %s: %w", j.Name, err))
			if errors.Is(err, failure.ErrStoreConnection) {
				storeOK = false
			}
		}
	}

	if storeOK && ctx.Err() == nil {
		metrics.LastPassTimestamp.SetToCurrentTime()
	}
	if s.ready != nil {
		s.ready.SetReady(storeOK)
	}
	log.Info("pass finished",
		zap.Int("appended", appended),
		zap.Int("failed_jobs", len(errs)),
		zap.Duration("took", time.Since(start)))
	return reports, errors.Join(errs...)
}

// Start runs a pass immediately. With a zero interval it returns that pass's
// error; otherwise it repeats until ctx is cancelled and returns nil.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("starting job service", zap.Int("jobs", len(s.jobs)), zap.Duration("interval", s.interval))

	_, err := s.RunOnce(ctx)
	if s.interval <= 0 {
		return err
	}
	s.logPass(err)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, err := s.RunOnce(ctx)
			s.logPass(err)

		case <-ctx.Done():
			s.logger.Info("shutting down job service")
			return nil
		}
	}
}

func (s *Service) logPass(err error) {
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("pass finished with errors", err)
	}
}
