package claim

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Claimer is a compare-and-append guard shared by every writer of a table.
// A key can be claimed once; the first caller wins.
//
// A writer that dies between Claim and its append leaves the claim behind.
// Until the claim expires, other writers skip that deck as a duplicate even
// though no row was written, so the expiry should stay close to one job run.
type Claimer interface {
	// Claim reserves key. It returns false if someone else already holds it.
	Claim(ctx context.Context, key string) (bool, error)

	// Release gives key back, e.g. after the guarded append failed.
	Release(ctx context.Context, key string) error
}

// NopClaimer grants every claim. It is used when a single job instance owns
// the table.
type NopClaimer struct{}

func (NopClaimer) Claim(ctx context.Context, key string) (bool, error) { return true, nil }

func (NopClaimer) Release(ctx context.Context, key string) error { return nil }

// RedisClaimer implements Claimer with SET NX
type RedisClaimer struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisClaimer creates a new RedisClaimer. A ttl of 0 keeps claims forever.
func NewRedisClaimer(client *redis.Client, prefix string, ttl time.Duration) *RedisClaimer {
	return &RedisClaimer{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *RedisClaimer) Claim(ctx context.Context, key string) (bool, error) {
	return c.client.SetNX(ctx, c.prefix+key, time.Now().UTC().Format(time.RFC3339), c.ttl).Result()
}

func (c *RedisClaimer) Release(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefix+key).Err()
}
