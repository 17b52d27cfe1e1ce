package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const seenKeyPrefix = "creditgate:compliance:seen:"

// Deduper claims event IDs so each alert fires once per event even when
// Kafka redelivers.
type Deduper interface {
	// Claim returns true the first time key is seen within the TTL window.
	Claim(ctx context.Context, key string) (bool, error)
}

// RedisDeduper claims keys with SET NX and lets them expire after ttl.
type RedisDeduper struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisDeduper(client redis.Cmdable, ttl time.Duration) *RedisDeduper {
	if client == nil {
		panic("redis deduper requires a client")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisDeduper{client: client, ttl: ttl}
}

func (d *RedisDeduper) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := d.client.SetNX(ctx, seenKeyPrefix+key, 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	return ok, nil
}
