package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"creditgate/internal/platform/config"
)

// Client wraps the go-redis client with health checking and pool metrics.
type Client struct {
	*redis.Client
	lastStats  *redis.PoolStats
	poolEvents *prometheus.CounterVec
	poolConns  *prometheus.GaugeVec
}

// New creates a new Redis client from the provided configuration and
// registers its pool metrics on reg.
// Returns nil if the URL is empty (Redis not configured).
func New(cfg config.RedisConfig, reg prometheus.Registerer) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout+time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close() //nolint:errcheck // best-effort cleanup on init failure
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	f := promauto.With(reg)
	return &Client{
		Client: client,
		poolEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "creditgate_redis_pool_events_total",
			Help: "Redis connection pool events (hit, miss, timeout, stale)",
		}, []string{"event"}),
		poolConns: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "creditgate_redis_pool_conns",
			Help: "Redis connections in the pool by state",
		}, []string{"state"}),
	}, nil
}

// Name returns the check name for health reporting.
func (c *Client) Name() string { return "redis" }

// Health checks if the Redis connection is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// RecordPoolStats updates Prometheus metrics with current pool statistics.
// Call it periodically from a background goroutine.
func (c *Client) RecordPoolStats() {
	stats := c.PoolStats()
	c.poolConns.WithLabelValues("total").Set(float64(stats.TotalConns))
	c.poolConns.WithLabelValues("idle").Set(float64(stats.IdleConns))

	prev := c.lastStats
	if prev == nil {
		prev = &redis.PoolStats{}
	}
	c.addDelta("hit", stats.Hits, prev.Hits)
	c.addDelta("miss", stats.Misses, prev.Misses)
	c.addDelta("timeout", stats.Timeouts, prev.Timeouts)
	c.addDelta("stale", stats.StaleConns, prev.StaleConns)
	c.lastStats = stats
}

func (c *Client) addDelta(event string, now, before uint32) {
	if now > before {
		c.poolEvents.WithLabelValues(event).Add(float64(now - before))
	}
}
