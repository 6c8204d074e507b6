package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Liszten/kpiComp/pkg/config"
)

func TestNew_DisabledByConfig(t *testing.T) {
	client, err := New(&config.Config{})
	require.NoError(t, err)

	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestNew_UnreachableFailsFast(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Host:    "127.0.0.1",
			Port:    "1",
			Enabled: true,
		},
	}

	start := time.Now()
	_, err := New(cfg)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), pingTimeout+time.Second)
}

func TestClient_Key(t *testing.T) {
	assert.Equal(t, "kpicomp:cache:sector:peers:energy", Disabled().Key("cache", SectorPeersKey("energy")))

	c := &Client{namespace: namespaceOr(" prod: ")}
	assert.Equal(t, "prod:ratelimit:yahoo", c.Key("ratelimit", "yahoo"))

	assert.Equal(t, defaultNamespace, namespaceOr(""))
}

func TestRateLimiter_DisabledAllowsPeerFanOut(t *testing.T) {
	limiter := NewRateLimiter(Disabled())
	cfg := YahooLimit(5)

	// a sector warmup fans out to far more peers than the per-second budget
	for i := 0; i < 50; i++ {
		d, err := limiter.Allow(context.Background(), cfg)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 5, d.Remaining)
	}
	assert.NoError(t, limiter.Wait(context.Background(), cfg))
}

func TestYahooLimit(t *testing.T) {
	cfg := YahooLimit(8)
	assert.Equal(t, "yahoo", cfg.Key)
	assert.Equal(t, 8, cfg.Limit)
	assert.Equal(t, time.Second, cfg.Window)
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name      string
		allowed   int64
		remaining int64
		retryMs   int64
		window    time.Duration
		want      Decision
	}{
		{
			name:      "allowed",
			allowed:   1,
			remaining: 3,
			window:    time.Second,
			want:      Decision{Allowed: true, Remaining: 3},
		},
		{
			name:    "waits until the oldest request leaves the window",
			retryMs: 240,
			window:  time.Second,
			want:    Decision{RetryAfter: 240 * time.Millisecond},
		},
		{
			name:    "never spins on a zero retry",
			retryMs: 0,
			window:  time.Second,
			want:    Decision{RetryAfter: minRetryDelay},
		},
		{
			name:    "capped at one window",
			retryMs: 5000,
			window:  time.Second,
			want:    Decision{RetryAfter: time.Second},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decide(tt.allowed, tt.remaining, tt.retryMs, tt.window))
		})
	}
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(Disabled())
	ctx := context.Background()

	var peers []string
	found, err := cache.Get(ctx, SectorPeersKey("energy"), &peers)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, cache.Set(ctx, SectorPeersKey("energy"), []string{"XOM", "CVX"}, time.Minute))

	n, err := cache.DeletePattern(ctx, SectorPeersKey("*"))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSectorPeersKey(t *testing.T) {
	assert.Equal(t, "sector:peers:technology", SectorPeersKey("technology"))
}
