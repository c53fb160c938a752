// Package cache keeps recent pipeline results in Redis so the dashboard can
// re-read a batch without re-running the pipeline or hitting Postgres.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/outreach-analytics/internal/pipeline"
)

const keyPrefix = "reconciliation:batch:"

// ResultCache stores pipeline results keyed by batch id with a TTL.
type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New builds a ResultCache over an existing client.
func New(client *redis.Client, ttl time.Duration) *ResultCache {
	return &ResultCache{client: client, ttl: ttl}
}

// Connect dials Redis and verifies the connection.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Put stores a result under its batch id.
func (c *ResultCache) Put(ctx context.Context, batchID string, result *pipeline.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal cached result: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+batchID, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache result: %w", err)
	}
	return nil
}

// Get returns the cached result, or (nil, nil) on a miss.
func (c *ResultCache) Get(ctx context.Context, batchID string) (*pipeline.Result, error) {
	payload, err := c.client.Get(ctx, keyPrefix+batchID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cached result: %w", err)
	}

	var result pipeline.Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("unmarshal cached result: %w", err)
	}
	return &result, nil
}

// Invalidate drops a cached result, e.g. after its batch is deleted.
func (c *ResultCache) Invalidate(ctx context.Context, batchID string) error {
	return c.client.Del(ctx, keyPrefix+batchID).Err()
}
