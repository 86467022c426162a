//go:build integration

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestResultsCacheRoundTripAndInvalidate(t *testing.T) {
	c := NewResultsCache(testClient(t), time.Minute)
	ctx := context.Background()
	tenant, company := uuid.New(), uuid.New()

	type payload struct{ Overall float64 }
	gen, err := c.Generation(ctx, tenant, company)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, tenant, company, gen, "results", payload{Overall: 61.5}))

	var got payload
	hit, err := c.Get(ctx, tenant, company, gen, "results", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 61.5, got.Overall)

	require.NoError(t, c.Invalidate(ctx, tenant, company))
	gen, err = c.Generation(ctx, tenant, company)
	require.NoError(t, err)
	hit, err = c.Get(ctx, tenant, company, gen, "results", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestResultsCacheLateWriteAfterInvalidate(t *testing.T) {
	c := NewResultsCache(testClient(t), time.Minute)
	ctx := context.Background()
	tenant, company := uuid.New(), uuid.New()

	type payload struct{ Label string }
	gen, err := c.Generation(ctx, tenant, company)
	require.NoError(t, err)
	var got payload
	hit, err := c.Get(ctx, tenant, company, gen, "results", &got)
	require.NoError(t, err)
	require.False(t, hit)

	// a submission lands while the results are being computed
	require.NoError(t, c.Invalidate(ctx, tenant, company))
	require.NoError(t, c.Set(ctx, tenant, company, gen, "results", payload{Label: "stale-before-submit"}))

	next, err := c.Generation(ctx, tenant, company)
	require.NoError(t, err)
	assert.Equal(t, gen+1, next)
	hit, err = c.Get(ctx, tenant, company, next, "results", &got)
	require.NoError(t, err)
	assert.False(t, hit, "a value computed before the invalidation must not be served")
}
