package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Liszten/kpiComp/pkg/config"
)

// The sector cache L2 sits in front of a provider fan-out, so a slow Redis
// must fail fast and fall back to the in-process level.
const (
	dialTimeout  = 2 * time.Second
	readTimeout  = 500 * time.Millisecond
	writeTimeout = 500 * time.Millisecond
	pingTimeout  = 3 * time.Second
	maxRetries   = 1

	defaultNamespace = "kpicomp"
)

// Client wraps the Redis client with the key namespace shared by cache and rate limiter
// ⭐ SSOT: Redis 연결은 여기서만 관리
type Client struct {
	rdb       *redis.Client
	namespace string
}

// New connects to Redis when REDIS_ENABLED is set, otherwise returns a disabled client
func New(cfg *config.Config) (*Client, error) {
	if !cfg.Redis.Enabled {
		return Disabled(), nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		MaxRetries:   maxRetries,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &Client{rdb: rdb, namespace: namespaceOr(cfg.Redis.Namespace)}, nil
}

// Disabled returns a client whose cache and limiter operations are no-ops
func Disabled() *Client {
	return &Client{namespace: defaultNamespace}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// Enabled reports whether a connection is held
func (c *Client) Enabled() bool {
	return c.rdb != nil
}

// Key joins parts under the client namespace, e.g. "kpicomp:cache:sector:peers:energy"
func (c *Client) Key(parts ...string) string {
	return c.namespace + ":" + strings.Join(parts, ":")
}

func namespaceOr(ns string) string {
	ns = strings.Trim(strings.TrimSpace(ns), ":")
	if ns == "" {
		return defaultNamespace
	}
	return ns
}
