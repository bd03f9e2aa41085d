// Package index holds the fast deny-set over blacklist fingerprints.
package index

import (
	"context"
	"fmt"

	platformredis "medboard/internal/platform/redis"
)

const fingerprintSetKey = "blacklist:fingerprints"

// RedisIndex keeps active blacklist fingerprints in a Redis set so intake
// checks don't hit the database. It is a cache over the store: misses fall
// back to the store, and Rebuild re-syncs it after deactivations.
type RedisIndex struct {
	client *platformredis.Client
}

func NewRedis(client *platformredis.Client) *RedisIndex {
	return &RedisIndex{client: client}
}

func (i *RedisIndex) Add(ctx context.Context, fingerprints []string) error {
	if len(fingerprints) == 0 {
		return nil
	}
	if err := i.client.SAdd(ctx, fingerprintSetKey, toAny(fingerprints)...).Err(); err != nil {
		return fmt.Errorf("add fingerprints to index: %w", err)
	}
	return nil
}

// Contains reports whether any of the fingerprints is in the deny set.
func (i *RedisIndex) Contains(ctx context.Context, fingerprints []string) (bool, error) {
	if len(fingerprints) == 0 {
		return false, nil
	}
	members, err := i.client.SMIsMember(ctx, fingerprintSetKey, toAny(fingerprints)...).Result()
	if err != nil {
		return false, fmt.Errorf("check fingerprint index: %w", err)
	}
	for _, member := range members {
		if member {
			return true, nil
		}
	}
	return false, nil
}

// Rebuild replaces the deny set with the given fingerprints atomically via a
// pipeline: delete, re-add, all in one round trip. Used on startup to warm
// the set and after deactivations, when removed entries may share
// fingerprints with ones still active.
func (i *RedisIndex) Rebuild(ctx context.Context, fingerprints []string) error {
	pipe := i.client.TxPipeline()
	pipe.Del(ctx, fingerprintSetKey)
	if len(fingerprints) > 0 {
		pipe.SAdd(ctx, fingerprintSetKey, toAny(fingerprints)...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("rebuild fingerprint index: %w", err)
	}
	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
