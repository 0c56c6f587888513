// Package cache provides a Redis-backed cache for provider data that
// changes rarely but is expensive to fetch.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fintrakhq/banksync/pkg/gocardless"
	"github.com/fintrakhq/banksync/pkg/slogx"
)

// DefaultInstitutionsTTL is how long a per-country institution list stays
// cached. Provider catalogs change on the order of days.
const DefaultInstitutionsTTL = 6 * time.Hour

// Institutions caches per-country institution lists in Redis. All failures
// degrade to cache misses; the cache never makes a request fail.
type Institutions struct {
	client *redis.Client
	ttl    time.Duration
}

// NewInstitutions connects to Redis and verifies the connection.
func NewInstitutions(ctx context.Context, addr string, ttl time.Duration) (*Institutions, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultInstitutionsTTL
	}
	return &Institutions{client: client, ttl: ttl}, nil
}

func (c *Institutions) Get(ctx context.Context, country string) ([]gocardless.Institution, bool) {
	raw, err := c.client.Get(ctx, key(country)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slogx.FromContext(ctx).Warn("institutions cache read failed", "country", country, "error", err)
		}
		return nil, false
	}

	var institutions []gocardless.Institution
	if err := json.Unmarshal(raw, &institutions); err != nil {
		slogx.FromContext(ctx).Warn("institutions cache entry corrupt, dropping", "country", country, "error", err)
		c.client.Del(ctx, key(country))
		return nil, false
	}
	return institutions, true
}

func (c *Institutions) Set(ctx context.Context, country string, institutions []gocardless.Institution) {
	raw, err := json.Marshal(institutions)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key(country), raw, c.ttl).Err(); err != nil {
		slogx.FromContext(ctx).Warn("institutions cache write failed", "country", country, "error", err)
	}
}

// Close releases the Redis connection.
func (c *Institutions) Close() error {
	return c.client.Close()
}

func key(country string) string {
	return "institutions:" + country
}
