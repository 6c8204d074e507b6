package httputil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/Liszten/kpiComp/pkg/logger"
	"github.com/Liszten/kpiComp/pkg/redis"
)

// DefaultUserAgent is sent on every request unless overridden
const DefaultUserAgent = "Mozilla/5.0 (compatible; kpicomp/1.0)"

const (
	defaultTimeout    = 30 * time.Second
	defaultRetries    = 3
	defaultRetryDelay = time.Second
	maxRetryDelay     = 10 * time.Second
	errorBodyLimit    = 512
)

// Client is the outbound HTTP client for market data and universe scrapes.
// Every attempt, retries included, draws from the configured request budgets.
// ⭐ SSOT: 모든 HTTP 요청은 이 클라이언트를 통해서만 수행
type Client struct {
	httpClient *http.Client
	logger     *logger.Logger
	userAgent  string

	maxRetries int
	retryDelay time.Duration

	limiter     *rate.Limiter // in-process budget
	shared      *redis.RateLimiter
	sharedLimit redis.RateLimitConfig
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the per-attempt timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRetry sets how often 429 and 5xx responses are retried and the first backoff
func WithRetry(maxRetries int, initialDelay time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.retryDelay = initialDelay
	}
}

// WithoutRetry sends each request once
func WithoutRetry() Option {
	return WithRetry(0, 0)
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLimiter caps the request rate of this process
func WithLimiter(perSecond int) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), perSecond)
		}
	}
}

// WithSharedLimit adds a Redis-backed budget shared by every instance
func WithSharedLimit(limiter *redis.RateLimiter, cfg redis.RateLimitConfig) Option {
	return func(c *Client) {
		c.shared = limiter
		c.sharedLimit = cfg
	}
}

// StatusError is returned by GetJSON for non-2xx responses
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// New creates a new HTTP client
// ⭐ SSOT: http.Client 인스턴스는 여기서만 생성
func New(log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     log,
		userAgent:  DefaultUserAgent,
		maxRetries: defaultRetries,
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GET request: %w", err)
	}
	return c.do(req)
}

// GetJSON performs a GET request and decodes a 2xx JSON body into dest
func (c *Client) GetJSON(ctx context.Context, url string, dest interface{}) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return &StatusError{URL: url, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode JSON from %s: %w", url, err)
	}
	return nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	log := c.logger.WithFields(map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	start := time.Now()
	delay := c.retryDelay

	for attempt := 0; ; attempt++ {
		if err := c.acquire(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait failed: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			log.WithError(err).WithDuration(time.Since(start)).Error("HTTP request failed")
			return nil, err
		}
		if !retryable(resp.StatusCode) || attempt >= c.maxRetries {
			log.WithDuration(time.Since(start)).WithFields(map[string]interface{}{
				"status_code": resp.StatusCode,
				"attempts":    attempt + 1,
			}).Debug("HTTP request completed")
			return resp, nil
		}

		wait := backoff(resp, delay)
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		log.WithFields(map[string]interface{}{
			"status_code": resp.StatusCode,
			"attempt":     attempt + 1,
			"delay":       wait.String(),
		}).Warn("Retrying HTTP request")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}
}

// acquire waits on the in-process budget, then the shared one
func (c *Client) acquire(ctx context.Context) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	if c.shared != nil {
		return c.shared.Wait(ctx, c.sharedLimit)
	}
	return nil
}

// backoff prefers a 429 Retry-After in seconds over the exponential delay
func backoff(resp *http.Response, delay time.Duration) time.Duration {
	if resp.StatusCode == http.StatusTooManyRequests {
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs >= 0 {
			wait := time.Duration(secs) * time.Second
			if wait > maxRetryDelay {
				wait = maxRetryDelay
			}
			return wait
		}
	}
	return delay
}

// retryable reports whether a status is worth another attempt
func retryable(statusCode int) bool {
	return statusCode >= 500 || statusCode == http.StatusTooManyRequests
}
