// Package cache holds computed company results in Redis between submissions.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ResultsCache stores derived, recomputable values per company. Invalidate
// bumps the company's generation so every cached variant becomes unreachable at
// once; stale entries then expire on their own TTL.
//
// Callers read the generation before computing and pass it to both Get and Set.
// A value computed while an invalidation raced past is then written under the
// old generation, where no later Get looks.
type ResultsCache interface {
	Generation(ctx context.Context, tenantID, companyID uuid.UUID) (int64, error)
	// Get decodes the cached value into dst and reports whether there was one.
	Get(ctx context.Context, tenantID, companyID uuid.UUID, gen int64, variant string, dst interface{}) (bool, error)
	Set(ctx context.Context, tenantID, companyID uuid.UUID, gen int64, variant string, v interface{}) error
	Invalidate(ctx context.Context, tenantID, companyID uuid.UUID) error
}

type resultsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResultsCache creates a Redis-backed results cache.
func NewResultsCache(client *redis.Client, ttl time.Duration) ResultsCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &resultsCache{client: client, ttl: ttl}
}

// Key helpers
func generationKey(tenantID, companyID uuid.UUID) string {
	return fmt.Sprintf("psyche:%s:company:%s:gen", tenantID, companyID)
}

func resultKey(tenantID, companyID uuid.UUID, gen int64, variant string) string {
	return fmt.Sprintf("psyche:%s:company:%s:g%d:%s", tenantID, companyID, gen, variant)
}

func (c *resultsCache) Generation(ctx context.Context, tenantID, companyID uuid.UUID) (int64, error) {
	v, err := c.client.Get(ctx, generationKey(tenantID, companyID)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(v, 10, 64)
}

func (c *resultsCache) Get(ctx context.Context, tenantID, companyID uuid.UUID, gen int64, variant string, dst interface{}) (bool, error) {
	data, err := c.client.Get(ctx, resultKey(tenantID, companyID, gen, variant)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *resultsCache) Set(ctx context.Context, tenantID, companyID uuid.UUID, gen int64, variant string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, resultKey(tenantID, companyID, gen, variant), data, c.ttl).Err()
}

func (c *resultsCache) Invalidate(ctx context.Context, tenantID, companyID uuid.UUID) error {
	return c.client.Incr(ctx, generationKey(tenantID, companyID)).Err()
}

// Noop is used when no Redis address is configured. Every Get misses.
type Noop struct{}

func (Noop) Generation(context.Context, uuid.UUID, uuid.UUID) (int64, error) { return 0, nil }

func (Noop) Get(context.Context, uuid.UUID, uuid.UUID, int64, string, interface{}) (bool, error) {
	return false, nil
}

func (Noop) Set(context.Context, uuid.UUID, uuid.UUID, int64, string, interface{}) error { return nil }

func (Noop) Invalidate(context.Context, uuid.UUID, uuid.UUID) error { return nil }
