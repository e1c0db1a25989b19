package httputil

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/factorlab-lite/pkg/config"
	"github.com/wonny/factorlab-lite/pkg/logger"
)

// Client is an HTTP client wrapper with retry logic, rate limiting and logging
// ⭐ SSOT: every upstream HTTP request goes through this client
type Client struct {
	httpClient  *http.Client
	logger      *logger.Logger
	retryConfig RetryConfig
	limiter     *rate.Limiter
	sleep       func(time.Duration)
}

// RetryConfig holds retry configuration. A request is attempted at most
// MaxAttempts times; between attempts the client sleeps
// BaseWait * 2^(attempt-1) plus a random jitter in [0, BaseWait/2).
type RetryConfig struct {
	MaxAttempts int
	BaseWait    time.Duration
	MaxWait     time.Duration
}

// New creates a new HTTP client from config
func New(cfg *config.Config, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log,
		retryConfig: RetryConfig{
			MaxAttempts: cfg.FetchRetries,
			BaseWait:    cfg.RetryBaseWait,
			MaxWait:     10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		sleep:   time.Sleep,
	}
}

// WithRetry overrides the retry policy
func (c *Client) WithRetry(maxAttempts int, baseWait time.Duration) *Client {
	c.retryConfig.MaxAttempts = maxAttempts
	c.retryConfig.BaseWait = baseWait
	return c
}

// WithSleep overrides the sleep function. Intended for tests.
func (c *Client) WithSleep(sleep func(time.Duration)) *Client {
	c.sleep = sleep
	return c
}

// GetBody performs a GET request and returns the response body.
// Non-2xx statuses are reported as errors so callers never have to
// inspect a half-read response.
func (c *Client) GetBody(ctx context.Context, url string, header http.Header) ([]byte, error) {
	start := time.Now()

	body, err := c.doWithRetry(ctx, url, header)

	if err != nil {
		c.logger.WithFields(map[string]interface{}{
			"url":      url,
			"duration": time.Since(start),
			"error":    err.Error(),
		}).Warn("HTTP request failed")
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"url":      url,
		"duration": time.Since(start),
		"bytes":    len(body),
	}).Debug("HTTP request completed")

	return body, nil
}

// doWithRetry executes the request with exponential backoff and jitter
func (c *Client) doWithRetry(ctx context.Context, url string, header http.Header) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= c.retryConfig.MaxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait failed: %w", err)
		}

		body, err := c.doOnce(ctx, url, header)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if attempt == c.retryConfig.MaxAttempts {
			break
		}

		delay := c.backoff(attempt)
		c.logger.WithFields(map[string]interface{}{
			"attempt": attempt,
			"delay":   delay,
			"url":     url,
		}).Warn("Retrying HTTP request")
		c.sleep(delay)
	}

	return nil, lastErr
}

// doOnce executes a single request
func (c *Client) doOnce(ctx context.Context, url string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GET request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !IsSuccess(resp.StatusCode) {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected http status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}
	return body, nil
}

// backoff returns the delay before the next attempt:
// BaseWait * 2^(attempt-1) + jitter in [0, BaseWait/2), capped at MaxWait.
func (c *Client) backoff(attempt int) time.Duration {
	delay := c.retryConfig.BaseWait << (attempt - 1)
	jitter := time.Duration(rand.Int63n(int64(c.retryConfig.BaseWait)/2 + 1))
	delay += jitter
	if delay > c.retryConfig.MaxWait {
		delay = c.retryConfig.MaxWait
	}
	return delay
}

// IsSuccess reports whether an HTTP status code is a 2xx
func IsSuccess(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
