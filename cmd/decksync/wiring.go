package main

import (
	"context"
	"fmt"

	"decksync/internal/job"
	"decksync/pkg/claim"
	"decksync/pkg/config"
	"decksync/pkg/deck"
	"decksync/pkg/logger"
	"decksync/pkg/producer"
	"decksync/pkg/scrape"
	"decksync/pkg/table"

	"github.com/redis/go-redis/v9"
)

func openStore(ctx context.Context, cfg *config.AppConfig, layout deck.Layout, l *logger.Logger) (table.Opener, error) {
	switch cfg.Store.Backend {
	case config.BackendSheets:
		o, err := table.NewSheetsOpener(ctx, cfg.CredentialsFile, layout.Header())
		if err != nil {
			return nil, fmt.Errorf("failed to authorize google apis: %w", err)
		}
		return o, nil
	case config.BackendPostgres:
		o, err := table.NewPostgresOpener(ctx, table.PostgresConfig{
			URI:      cfg.Store.PostgresURI,
			MinConns: int32(cfg.Store.PostgresMin),
			MaxConns: int32(cfg.Store.PostgresMax),
			Layout:   layout,
		}, l)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return o, nil
	case config.BackendSQLite:
		o, err := table.NewSQLiteOpener(cfg.Store.SQLitePath, layout)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		return o, nil
	case config.BackendMemory:
		return table.NewMemoryOpener(layout.Header()), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// sessionFactory starts one page session per job run.
func sessionFactory(cfg config.BrowserConfig) job.SessionFactory {
	if cfg.Mode == config.BrowserChrome {
		return func(ctx context.Context) (scrape.Session, error) {
			s, err := scrape.NewChromeSession(ctx, scrape.ChromeConfig{
				ExecPath:   cfg.ChromePath,
				UserAgent:  cfg.UserAgent,
				Timeout:    cfg.Timeout,
				ScrollWait: cfg.ScrollWait,
			})
			if err != nil {
				return nil, err
			}
			return s, nil
		}
	}
	return func(ctx context.Context) (scrape.Session, error) {
		return scrape.NewHTTPSession(scrape.HTTPConfig{
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.Timeout,
		}), nil
	}
}

func newClaimer(ctx context.Context, cfg config.RedisConfig) (claim.Claimer, func(), error) {
	if cfg.Addr == "" {
		return claim.NopClaimer{}, func() {}, nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return claim.NewRedisClaimer(client, cfg.KeyPrefix, cfg.ClaimTTL), func() { client.Close() }, nil
}

func newProducer(cfg config.KafkaConfig) producer.Producer {
	if len(cfg.Brokers) == 0 {
		return producer.NopProducer{}
	}
	return producer.NewKafkaProducer(producer.Config{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
	})
}
