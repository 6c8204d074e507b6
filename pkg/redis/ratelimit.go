package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindow admits a request when fewer than limit members sit in the window.
// Members are unique per request so concurrent peer fetches in one millisecond all count.
// Returns {allowed, remaining, retry_after_ms}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window_ms = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window_ms)

local count = redis.call('ZCARD', key)
if count < limit then
	redis.call('ZADD', key, now, member)
	redis.call('PEXPIRE', key, window_ms)
	return {1, limit - count - 1, 0}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local retry = window_ms
if oldest[2] then
	retry = tonumber(oldest[2]) + window_ms - now
end
return {0, 0, retry}
`)

// minRetryDelay keeps Wait from spinning when the window is about to open
const minRetryDelay = 5 * time.Millisecond

// RateLimiter enforces a request budget shared by every instance on one Redis
// ⭐ SSOT: 레이트 리밋은 여기서만
type RateLimiter struct {
	client *Client
}

// RateLimitConfig is a budget of Limit requests per Window
type RateLimitConfig struct {
	Key    string
	Limit  int
	Window time.Duration
}

// Decision is the outcome of one Allow call
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration // zero when allowed
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow records one request against cfg if the window has room
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig) (Decision, error) {
	if !r.client.Enabled() || cfg.Limit <= 0 {
		return Decision{Allowed: true, Remaining: cfg.Limit}, nil
	}

	res, err := slidingWindow.Run(ctx, r.client.rdb,
		[]string{r.client.Key("ratelimit", cfg.Key)},
		time.Now().UnixMilli(),
		cfg.Window.Milliseconds(),
		cfg.Limit,
		uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit script failed: %w", err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("rate limit script returned %d values", len(res))
	}

	return decide(res[0], res[1], res[2], cfg.Window), nil
}

// Wait blocks until a request is allowed or ctx is done
func (r *RateLimiter) Wait(ctx context.Context, cfg RateLimitConfig) error {
	for {
		d, err := r.Allow(ctx, cfg)
		if err != nil {
			return err
		}
		if d.Allowed {
			return nil
		}

		timer := time.NewTimer(d.RetryAfter)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func decide(allowed, remaining, retryMs int64, window time.Duration) Decision {
	if allowed == 1 {
		return Decision{Allowed: true, Remaining: int(remaining)}
	}
	retry := time.Duration(retryMs) * time.Millisecond
	if retry < minRetryDelay {
		retry = minRetryDelay
	}
	if window > 0 && retry > window {
		retry = window
	}
	return Decision{RetryAfter: retry}
}

// YahooLimit is the cluster-wide quote budget, matched to YAHOO_RATE_PER_SEC
func YahooLimit(perSecond int) RateLimitConfig {
	return RateLimitConfig{Key: "yahoo", Limit: perSecond, Window: time.Second}
}

// UniverseSourceLimit caps constituent page scrapes; one refresh needs a single fetch
var UniverseSourceLimit = RateLimitConfig{
	Key:    "universe_source",
	Limit:  10,
	Window: time.Minute,
}
