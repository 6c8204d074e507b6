package httputil

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/Liszten/kpiComp/pkg/logger"
	"github.com/Liszten/kpiComp/pkg/redis"
)

func TestNew_Defaults(t *testing.T) {
	client := New(logger.NewNop())

	assert.Equal(t, defaultTimeout, client.httpClient.Timeout)
	assert.Equal(t, defaultRetries, client.maxRetries)
	assert.Equal(t, DefaultUserAgent, client.userAgent)
	assert.Nil(t, client.limiter)
	assert.Nil(t, client.shared)
}

func TestNew_Options(t *testing.T) {
	limiter := redis.NewRateLimiter(redis.Disabled())
	client := New(logger.NewNop(),
		WithTimeout(5*time.Second),
		WithRetry(5, 2*time.Second),
		WithLimiter(4),
		WithSharedLimit(limiter, redis.YahooLimit(4)),
	)

	assert.Equal(t, 5*time.Second, client.httpClient.Timeout)
	assert.Equal(t, 5, client.maxRetries)
	assert.Equal(t, 2*time.Second, client.retryDelay)
	require.NotNil(t, client.limiter)
	assert.Equal(t, 4, client.limiter.Burst())
	assert.Equal(t, "yahoo", client.sharedLimit.Key)

	assert.Nil(t, New(logger.NewNop(), WithLimiter(0)).limiter)
	assert.Zero(t, New(logger.NewNop(), WithoutRetry()).maxRetries)
}

func TestGet_SetsUserAgent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "kpicomp-test", r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	resp, err := New(logger.NewNop(), WithUserAgent("kpicomp-test")).Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ticker":"AAPL","pe":24.7}`))
	}))
	defer server.Close()

	var dest struct {
		Ticker string  `json:"ticker"`
		PE     float64 `json:"pe"`
	}
	err := New(logger.NewNop()).GetJSON(context.Background(), server.URL, &dest)

	require.NoError(t, err)
	assert.Equal(t, "AAPL", dest.Ticker)
	assert.Equal(t, 24.7, dest.PE)
}

func TestGetJSON_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`not found`))
	}))
	defer server.Close()

	var dest map[string]any
	err := New(logger.NewNop()).GetJSON(context.Background(), server.URL, &dest)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, "not found", statusErr.Body)
}

func TestGetJSON_GivesUpAfterRetries(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	var dest map[string]any
	err := New(logger.NewNop(), WithRetry(2, time.Millisecond)).GetJSON(context.Background(), server.URL, &dest)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestRetryOn5xx(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	resp, err := New(logger.NewNop(), WithRetry(3, 10*time.Millisecond)).Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestRetryOn429_HonorsRetryAfter(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	// a 1h backoff would time out the test unless Retry-After wins
	client := New(logger.NewNop(), WithRetry(2, time.Hour))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.Get(ctx, server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestRetriesDrawFromLimiter(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(logger.NewNop(), WithRetry(3, time.Millisecond))
	client.limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 1)

	start := time.Now()
	resp, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond, "each retry waits for a token")
}

func TestRetry_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New(logger.NewNop(), WithRetry(5, time.Second)).Get(ctx, server.URL)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBackoff(t *testing.T) {
	tooMany := func(retryAfter string) *http.Response {
		h := http.Header{}
		if retryAfter != "" {
			h.Set("Retry-After", retryAfter)
		}
		return &http.Response{StatusCode: http.StatusTooManyRequests, Header: h}
	}

	assert.Equal(t, 2*time.Second, backoff(tooMany("2"), time.Second))
	assert.Equal(t, maxRetryDelay, backoff(tooMany("3600"), time.Second))
	assert.Equal(t, time.Second, backoff(tooMany(""), time.Second))
	assert.Equal(t, time.Second, backoff(tooMany("Wed, 21 Oct 2015 07:28:00 GMT"), time.Second))
	assert.Equal(t, time.Second, backoff(&http.Response{StatusCode: http.StatusBadGateway, Header: http.Header{"Retry-After": {"2"}}}, time.Second))
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		statusCode int
		want       bool
	}{
		{200, false},
		{400, false},
		{404, false},
		{429, true},
		{500, true},
		{502, true},
		{503, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.statusCode), func(t *testing.T) {
			assert.Equal(t, tt.want, retryable(tt.statusCode))
		})
	}
}
