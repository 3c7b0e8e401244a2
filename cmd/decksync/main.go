package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"decksync/internal/job"
	"decksync/pkg/config"
	"decksync/pkg/deck"
	"decksync/pkg/logger"
	"decksync/pkg/server"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "Path to the YAML or JSON config file")
	once := flag.Bool("once", false, "Run a single pass even if schedule.interval is set")
	only := flag.String("job", "", "Run only the named job")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize logger
	l, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Environment,
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer l.Sync()

	l.Info("decksync initializing",
		zap.String("env", cfg.Environment),
		zap.String("backend", cfg.Store.Backend),
		zap.String("browser", cfg.Browser.Mode))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, l, *once, *only); err != nil {
		l.Error("decksync failed", err)
		l.Sync()
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.AppConfig, l *logger.Logger, once bool, only string) error {
	layout, err := deck.LayoutByName(cfg.Store.Layout)
	if err != nil {
		return err
	}

	// 3. Destination tables
	opener, err := openStore(ctx, cfg, layout, l)
	if err != nil {
		return err
	}
	defer opener.Close()

	// 4. Optional claims and notifications
	claimer, closeClaims, err := newClaimer(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer closeClaims()

	notifier := newProducer(cfg.Kafka)
	defer notifier.Close()

	// 5. Jobs
	jobs, err := selectJobs(cfg.Jobs, only)
	if err != nil {
		return err
	}

	runner := job.NewRunner(l, sessionFactory(cfg.Browser), opener, job.RunnerOptions{
		Layout:   layout,
		Rescan:   cfg.Store.Rescan,
		Claimer:  claimer,
		Producer: notifier,
	})

	interval := cfg.Schedule.Interval
	if once {
		interval = 0
	}
	svc := job.NewService(l, runner, jobs, interval)

	if interval <= 0 {
		return svc.Start(ctx)
	}

	// 6. Daemon mode gets the observability server
	obsServer := server.New(cfg.Server.Addr, l)
	svc.WithReadiness(obsServer)
	go func() {
		if err := obsServer.Start(); err != nil {
			l.Error("observability server failed", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		obsServer.Shutdown(shutdownCtx)
	}()

	err = svc.Start(ctx)
	l.Info("decksync stopping")
	return err
}

func selectJobs(configured []config.JobConfig, only string) ([]job.Job, error) {
	var jobs []job.Job
	for _, c := range configured {
		if only != "" && c.Name != only {
			continue
		}
		jobs = append(jobs, job.FromConfig(c))
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("no job named %q", only)
	}
	return jobs, nil
}
